package dasgrpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/blockberries/dasguard/types"
)

const serviceName = "dasguard.v1.Validator"

// ValidatorServer is the server-side interface for the validator
// service.
type ValidatorServer interface {
	Validate(context.Context, *ValidateRequest) (*types.Verdict, error)
	ValidateBatch(*ValidateBatchRequest, grpc.ServerStream) error
	Manifest(context.Context, *ManifestRequest) (*ManifestResponse, error)
}

// RegisterValidatorServer registers the service with a gRPC server.
func RegisterValidatorServer(s *grpc.Server, srv ValidatorServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ValidatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: validateHandler},
		{MethodName: "Manifest", Handler: manifestHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ValidateBatch",
			Handler:       validateBatchHandler,
			ServerStreams: true,
		},
	},
}

func validateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ValidateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ValidatorServer).Validate(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Validate")}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ValidatorServer).Validate(ctx, req.(*ValidateRequest))
	})
}

func manifestHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ManifestRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ValidatorServer).Manifest(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Manifest")}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ValidatorServer).Manifest(ctx, req.(*ManifestRequest))
	})
}

func validateBatchHandler(srv any, stream grpc.ServerStream) error {
	req := new(ValidateBatchRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(ValidatorServer).ValidateBatch(req, stream)
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}
