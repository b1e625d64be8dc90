// Package judgepb is a hand-authored (not protoc-generated) gRPC facade
// over the judge Orchestrator, in the same style as the teacher's pb/mock.go:
// plain Go structs standing in for message types, a service interface, and
// an unimplemented-server embed for forward-compatible registration.
package judgepb

import (
	"context"

	"google.golang.org/grpc"
)

// CaseSpec is one test case request entry: its fingerprint and, when
// grouping is in use, its group id.
type CaseSpec struct {
	Fingerprint string
	Group       int32
	HasGroup    bool
}

// GroupEdge mirrors judge.groups.Edge over the wire.
type GroupEdge struct {
	Dependent    int32
	Prerequisite int32
}

// OrchestrateRequest is the wire form of judge.Request.
type OrchestrateRequest struct {
	SubFingerprint        string
	SubCode               string
	SubLang               string
	Cases                 []*CaseSpec
	MaxTimeMs             int64
	MaxMemoryBytes        int64
	CheckerFingerprint    string
	InteractorFingerprint string
	RunUntilComplete      bool
	GroupDependencies     []*GroupEdge
}

// CaseResultPB is the wire form of judge.CaseResult.
type CaseResultPB struct {
	Verdict  int32
	HasTime  bool
	TimeMs   int64
	HasMemory bool
	MemoryKB int64
	Message  string
	HasGroup bool
	Group    int32
}

// OrchestrateResponse is the wire form of judge.ProgressSnapshot.
type OrchestrateResponse struct {
	Status    string
	HasVerdict bool
	Verdict   int32
	Detail    []*CaseResultPB
	HasTime   bool
	TimeMs    int64
	HasMemory bool
	MemoryKB  int64
	Message   string
}

// OrchestratorServiceClient is the client-side stub a worker pool uses to
// invoke Orchestrate as an internal RPC rather than an in-process call.
type OrchestratorServiceClient interface {
	Orchestrate(ctx context.Context, in *OrchestrateRequest, opts ...grpc.CallOption) (*OrchestrateResponse, error)
}

// OrchestratorServiceServer is the server-side interface Server implements.
// cmd/judge-worker does not register it against its grpc.Server; it is
// called in-process.
type OrchestratorServiceServer interface {
	Orchestrate(context.Context, *OrchestrateRequest) (*OrchestrateResponse, error)
}

// UnimplementedOrchestratorServiceServer can be embedded to get forward
// compatible implementations.
type UnimplementedOrchestratorServiceServer struct{}

func (UnimplementedOrchestratorServiceServer) Orchestrate(context.Context, *OrchestrateRequest) (*OrchestrateResponse, error) {
	return nil, nil
}
