package dasgrpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/types"
)

// ErrRemoteIntegrity is returned when the remote validator reports an
// integrity violation or has halted because of one.
var ErrRemoteIntegrity = errors.New("dasgrpc: remote integrity violation")

var _ dasguard.Connection = (*Client)(nil)

// Client implements dasguard.Connection for a remote validator over
// gRPC using cramberry serialization.
type Client struct {
	cc *grpc.ClientConn
}

// Dial creates a client for the validator at target. The connection is
// established lazily on the first call.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(CramberryCodec{}),
	))
	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dasgrpc: dial %s: %w", target, err)
	}
	return &Client{cc: cc}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

// Validate sends tx to the remote validator. A DataLoss status comes
// back as an integrity verdict together with ErrRemoteIntegrity. Any
// other failure comes back as an aborted verdict with the error;
// Canceled and DeadlineExceeded wrap the matching context error.
func (c *Client) Validate(ctx context.Context, tx types.Tx) (types.Verdict, error) {
	resp := new(types.Verdict)
	if err := c.cc.Invoke(ctx, fullMethod("Validate"), &ValidateRequest{Tx: tx}, resp); err != nil {
		return fromStatus(err)
	}
	return *resp, nil
}

// ValidateBatch validates txs in order over one stream. On an integrity
// violation it returns the verdicts received so far followed by the
// integrity verdict.
func (c *Client) ValidateBatch(ctx context.Context, txs []types.Tx) ([]types.Verdict, error) {
	desc := &grpc.StreamDesc{StreamName: "ValidateBatch", ServerStreams: true}
	stream, err := c.cc.NewStream(ctx, desc, fullMethod("ValidateBatch"))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&ValidateBatchRequest{Txs: txs}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	verdicts := make([]types.Verdict, 0, len(txs))
	for {
		v := new(types.Verdict)
		err := stream.RecvMsg(v)
		if err == io.EOF {
			return verdicts, nil
		}
		if err != nil {
			iv, ierr := fromStatus(err)
			if errors.Is(ierr, ErrRemoteIntegrity) {
				verdicts = append(verdicts, iv)
			}
			return verdicts, ierr
		}
		verdicts = append(verdicts, *v)
	}
}

func (c *Client) Manifest(ctx context.Context) ([]types.ModuleInfo, error) {
	resp := new(ManifestResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Manifest"), &ManifestRequest{}, resp); err != nil {
		_, err = fromStatus(err)
		return nil, err
	}
	return resp.Modules, nil
}

func fromStatus(err error) (types.Verdict, error) {
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.DataLoss:
		return types.Reject(types.CategoryIntegrity, st.Message()),
			fmt.Errorf("%w: %s", ErrRemoteIntegrity, st.Message())
	case codes.Canceled:
		err = fmt.Errorf("dasgrpc: %w: %s", context.Canceled, st.Message())
	case codes.DeadlineExceeded:
		err = fmt.Errorf("dasgrpc: %w: %s", context.DeadlineExceeded, st.Message())
	}
	return types.Reject(types.CategoryAborted, err.Error()), err
}
