// Package dasgrpc exposes a validator over gRPC, using cramberry for
// deterministic binary serialization.
//
// No protobuf code generation is required. Transactions and verdicts
// from dasguard/types travel as-is via their cramberry struct tags.
package dasgrpc

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype clients and servers negotiate.
const CodecName = "cramberry"

var _ encoding.Codec = CramberryCodec{}

// CramberryCodec carries requests, verdicts and manifests as cramberry
// messages, so the wire bytes match the encoding of transaction files.
type CramberryCodec struct{}

func (CramberryCodec) Marshal(v any) ([]byte, error) {
	data, err := cramberry.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("dasgrpc: marshal %T: %w", v, err)
	}
	return data, nil
}

func (CramberryCodec) Unmarshal(data []byte, v any) error {
	if err := cramberry.Unmarshal(data, v); err != nil {
		return fmt.Errorf("dasgrpc: unmarshal %T: %w", v, err)
	}
	return nil
}

func (CramberryCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(CramberryCodec{})
}
