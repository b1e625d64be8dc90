// Package groups computes skip-propagation closures for grouped test
// cases. Ported directly from original_source's trace_group_dependencies:
// a pure DFS-based reachability precomputation over declared edges
// (dependent, prerequisite).
package groups

// Edge declares that Dependent should be skipped if Prerequisite fails.
type Edge struct {
	Dependent    int
	Prerequisite int
}

// Table maps a group to the full set of groups (including itself) that
// must be skipped when any case in that group fails.
type Table map[int]map[int]struct{}

// Resolve builds the skip-propagation table from a list of edges. A nil or
// empty edge list returns an empty table. Duplicate edges are idempotent;
// self-loops and cycles are tolerated and produce mutually-including
// reachable sets.
func Resolve(edges []Edge) Table {
	result := Table{}
	if len(edges) == 0 {
		return result
	}

	// forward adjacency: prerequisite -> set of immediate dependents
	graph := map[int]map[int]struct{}{}
	for _, e := range edges {
		if graph[e.Prerequisite] == nil {
			graph[e.Prerequisite] = map[int]struct{}{}
		}
		graph[e.Prerequisite][e.Dependent] = struct{}{}
	}

	for start := range graph {
		reachable := map[int]struct{}{}
		dfs(start, graph, reachable)
		result[start] = reachable
	}
	return result
}

func dfs(node int, graph map[int]map[int]struct{}, reachable map[int]struct{}) {
	reachable[node] = struct{}{}
	for next := range graph[node] {
		if _, seen := reachable[next]; !seen {
			dfs(next, graph, reachable)
		}
	}
}

// ClosureOrSelf returns T[group], or {group} if group is not a key of T —
// the orchestrator-level "default to {group}" rule for a group that only
// ever appears as a dependent, never a prerequisite.
func (t Table) ClosureOrSelf(group int) map[int]struct{} {
	if closure, ok := t[group]; ok {
		return closure
	}
	return map[int]struct{}{group: {}}
}
