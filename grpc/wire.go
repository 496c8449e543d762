package dasgrpc

import "github.com/blockberries/dasguard/types"

// Wire types for RPCs whose payload is not a bare domain type.

// ValidateRequest carries one transaction.
type ValidateRequest struct {
	Tx types.Tx `cramberry:"1"`
}

// ValidateBatchRequest carries transactions validated in order. One
// verdict is streamed back per transaction.
type ValidateBatchRequest struct {
	Txs []types.Tx `cramberry:"1"`
}

// ManifestRequest is empty.
type ManifestRequest struct{}

// ManifestResponse lists the validator's modules in build order.
type ManifestResponse struct {
	Modules []types.ModuleInfo `cramberry:"1"`
}
