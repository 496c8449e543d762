// Package dasguard defines the validation core of an on-chain account
// registry: witness decoding, type-id resolution, unique cell location
// and integrity-pinned dispatch to per-chain signature modules.
//
// A validation run is a pure, deterministic function from a
// transaction to a [types.Verdict]. The only error surfaced beside a
// verdict is an [IntegrityError], which callers must treat as fatal.
package dasguard

import (
	"context"

	"github.com/blockberries/dasguard/types"
)

// Validator is the core interface every dispatcher implements.
//
// Validate evaluates one transaction. Every ordinary failure is
// reported as a rejecting verdict with a nil error. A non-nil error
// comes with a non-accepting verdict and is one of two kinds:
//
//   - an [IntegrityError]: the caller must stop processing rather than
//     attempt any fallback.
//   - an aborted run ([IsAborted]): ctx was cancelled or hit its
//     deadline before a decision. The verdict is [types.CategoryAborted]
//     and the same transaction may be validated again.
//
// Implementations MUST be safe for concurrent use. Each call owns its
// own witness cache; nothing is shared between runs except the
// read-only module manifest.
type Validator interface {
	Validate(ctx context.Context, tx types.Tx) (types.Verdict, error)
}

// Verifier is the entry point exposed by every signing module.
// It MUST be a pure function with no observable side effects.
type Verifier interface {
	Verify(message, signature, pubkeyMaterial []byte) bool
}

// VerifierFunc adapts a plain function to Verifier.
type VerifierFunc func(message, signature, pubkeyMaterial []byte) bool

// Verify calls f.
func (f VerifierFunc) Verify(message, signature, pubkeyMaterial []byte) bool {
	return f(message, signature, pubkeyMaterial)
}

// CellSource enumerates the cells of a transaction by role.
// *types.Tx implements it.
type CellSource interface {
	CellsOf(role types.CellRole) []types.Cell
}

// ApprovalContext is what approval rules see of a transaction.
type ApprovalContext struct {
	Action    string
	Role      types.SignRole
	Timestamp uint64
	Approval  types.AccountApprovalTransfer
}

// ApprovalPolicy decides whether an action is allowed on an account
// carrying a pending transfer approval. Returning an error rejects the
// transaction with [types.CategoryPolicy] unless the error already
// carries a category.
type ApprovalPolicy interface {
	CheckApproval(ctx context.Context, actx ApprovalContext) error
}

// Connection represents a transport-agnostic connection to a
// validator. Both the gRPC client and the in-process adapter
// implement it.
type Connection interface {
	Validator

	// Manifest lists the modules the validator can dispatch to.
	Manifest(ctx context.Context) ([]types.ModuleInfo, error)

	// Close terminates the connection.
	Close() error
}
