package judgepb

import (
	"context"
	"time"

	"github.com/ocx/judge-core/internal/judge"
	"github.com/ocx/judge-core/internal/judge/groups"
	"github.com/ocx/judge-core/internal/store"
)

// Server adapts a judge.Orchestrator to the OrchestratorServiceServer
// interface, translating between wire types and domain types.
type Server struct {
	UnimplementedOrchestratorServiceServer
	Orchestrator *judge.Orchestrator
}

// Orchestrate implements OrchestratorServiceServer.
func (s *Server) Orchestrate(ctx context.Context, in *OrchestrateRequest) (*OrchestrateResponse, error) {
	req := judge.Request{
		SubFingerprint:        in.SubFingerprint,
		SubCode:               in.SubCode,
		SubLang:               in.SubLang,
		MaxTime:               time.Duration(in.MaxTimeMs) * time.Millisecond,
		MaxMemory:             in.MaxMemoryBytes,
		CheckerFingerprint:    store.Fingerprint(in.CheckerFingerprint),
		InteractorFingerprint: store.Fingerprint(in.InteractorFingerprint),
		RunUntilComplete:      in.RunUntilComplete,
	}

	hasGroups := false
	for _, c := range in.Cases {
		req.CaseList = append(req.CaseList, store.Fingerprint(c.Fingerprint))
		if c.HasGroup {
			hasGroups = true
		}
	}
	if hasGroups {
		req.GroupList = make([]int, len(in.Cases))
		for i, c := range in.Cases {
			req.GroupList[i] = int(c.Group)
		}
	}
	for _, e := range in.GroupDependencies {
		req.GroupDependencies = append(req.GroupDependencies, groups.Edge{
			Dependent:    int(e.Dependent),
			Prerequisite: int(e.Prerequisite),
		})
	}

	snapshot := s.Orchestrator.Orchestrate(ctx, req)
	return toResponse(snapshot), nil
}

func toResponse(snap judge.ProgressSnapshot) *OrchestrateResponse {
	resp := &OrchestrateResponse{Status: snap.Status, Message: snap.Message}
	if snap.Verdict != nil {
		resp.HasVerdict = true
		resp.Verdict = int32(*snap.Verdict)
	}
	if snap.Time != nil {
		resp.HasTime = true
		resp.TimeMs = *snap.Time
	}
	if snap.Memory != nil {
		resp.HasMemory = true
		resp.MemoryKB = *snap.Memory
	}
	for _, d := range snap.Detail {
		cr := &CaseResultPB{Verdict: int32(d.Verdict), Message: d.Message}
		if d.Time != nil {
			cr.HasTime = true
			cr.TimeMs = *d.Time
		}
		if d.Memory != nil {
			cr.HasMemory = true
			cr.MemoryKB = *d.Memory
		}
		if d.Group != nil {
			cr.HasGroup = true
			cr.Group = int32(*d.Group)
		}
		resp.Detail = append(resp.Detail, cr)
	}
	return resp
}
