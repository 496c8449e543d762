package dasgrpc

import (
	"context"
	"errors"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/server"
	"github.com/blockberries/dasguard/types"
)

var _ ValidatorServer = (*GRPCServer)(nil)

// GRPCServer exposes a validator over gRPC. Transactions and verdicts
// are serialized directly via cramberry.
type GRPCServer struct {
	srv *server.Server
}

// NewGRPCServer wraps v in a server.Server configured by opts.
func NewGRPCServer(v dasguard.Validator, opts ...server.Option) *GRPCServer {
	return &GRPCServer{srv: server.New(v, opts...)}
}

// Register adds the validator service to a gRPC server.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterValidatorServer(gs, s)
}

// Serve starts a gRPC server on the given listener and blocks until it
// stops.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs.Serve(lis)
}

// Server returns the underlying server.
func (s *GRPCServer) Server() *server.Server {
	return s.srv
}

func (s *GRPCServer) Validate(ctx context.Context, req *ValidateRequest) (*types.Verdict, error) {
	v, err := s.srv.Validate(ctx, req.Tx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &v, nil
}

func (s *GRPCServer) ValidateBatch(req *ValidateBatchRequest, stream grpc.ServerStream) error {
	for i := range req.Txs {
		v, err := s.srv.Validate(stream.Context(), req.Txs[i])
		if err != nil {
			return toStatus(err)
		}
		if err := stream.SendMsg(&v); err != nil {
			return err
		}
	}
	return nil
}

func (s *GRPCServer) Manifest(ctx context.Context, _ *ManifestRequest) (*ManifestResponse, error) {
	mods, err := s.srv.Manifest(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ManifestResponse{Modules: mods}, nil
}

// toStatus maps integrity violations and halts to DataLoss so clients
// can tell a compromised build from a transport failure. Aborted runs
// keep their context code.
func toStatus(err error) error {
	if _, ok := dasguard.IsIntegrity(err); ok || errors.Is(err, server.ErrHalted) {
		return status.Error(codes.DataLoss, err.Error())
	}
	if dasguard.IsAborted(err) {
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}
