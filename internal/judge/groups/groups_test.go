package groups

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_Empty(t *testing.T) {
	table := Resolve(nil)
	assert.Empty(t, table)
}

func TestResolve_LinearChain(t *testing.T) {
	// group 3 depends on 2, which depends on 1 — failing 1 should take down 2 and 3.
	table := Resolve([]Edge{
		{Dependent: 2, Prerequisite: 1},
		{Dependent: 3, Prerequisite: 2},
	})

	closure := table.ClosureOrSelf(1)
	assert.Contains(t, closure, 1)
	assert.Contains(t, closure, 2)
	assert.Contains(t, closure, 3)
	assert.Len(t, closure, 3)

	// group 2 failing only takes down 2 and 3, not 1.
	closure = table.ClosureOrSelf(2)
	assert.NotContains(t, closure, 1)
	assert.Contains(t, closure, 2)
	assert.Contains(t, closure, 3)
}

func TestResolve_DiamondDependency(t *testing.T) {
	table := Resolve([]Edge{
		{Dependent: 2, Prerequisite: 1},
		{Dependent: 3, Prerequisite: 1},
		{Dependent: 4, Prerequisite: 2},
		{Dependent: 4, Prerequisite: 3},
	})

	closure := table.ClosureOrSelf(1)
	assert.ElementsMatch(t, keys(closure), []int{1, 2, 3, 4})
}

func TestResolve_CycleTolerated(t *testing.T) {
	table := Resolve([]Edge{
		{Dependent: 1, Prerequisite: 2},
		{Dependent: 2, Prerequisite: 1},
	})

	assert.Contains(t, table.ClosureOrSelf(1), 1)
	assert.Contains(t, table.ClosureOrSelf(1), 2)
	assert.Contains(t, table.ClosureOrSelf(2), 1)
	assert.Contains(t, table.ClosureOrSelf(2), 2)
}

func TestResolve_SelfLoopTolerated(t *testing.T) {
	table := Resolve([]Edge{{Dependent: 5, Prerequisite: 5}})
	assert.Equal(t, map[int]struct{}{5: {}}, table.ClosureOrSelf(5))
}

func TestClosureOrSelf_UngroupedDefaultsToSingleton(t *testing.T) {
	table := Resolve([]Edge{{Dependent: 2, Prerequisite: 1}})
	// group 7 never appears in any edge — its closure is just itself.
	assert.Equal(t, map[int]struct{}{7: {}}, table.ClosureOrSelf(7))
}

func TestResolve_DuplicateEdgesIdempotent(t *testing.T) {
	table := Resolve([]Edge{
		{Dependent: 2, Prerequisite: 1},
		{Dependent: 2, Prerequisite: 1},
	})
	assert.Len(t, table.ClosureOrSelf(1), 2)
}

func keys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
