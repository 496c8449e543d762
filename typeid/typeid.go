// Package typeid resolves stable script identifiers to the type
// hashes a transaction's witnesses assign them.
package typeid

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/types"
	"github.com/blockberries/dasguard/witness"
)

// Resolver resolves script identifiers against one parser.
type Resolver struct {
	p      *witness.Parser
	logger *zap.Logger
}

// New creates a resolver backed by p.
func New(p *witness.Parser, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{p: p, logger: logger}
}

// Resolve returns the type hash of id, initializing the parser if
// needed. A parse failure keeps its decode category; a missing role is
// a resolution failure. Both name the identifier.
func (r *Resolver) Resolve(id types.ScriptIdentifier) (types.TypeHash, error) {
	if !r.p.IsInited() {
		if err := r.p.Init(); err != nil {
			return types.TypeHash{}, fmt.Errorf("resolve %s: %w", id, err)
		}
	}
	h, err := r.p.TypeID(id)
	if err != nil {
		return types.TypeHash{}, dasguard.Reject(dasguard.CategoryOf(err), err, "resolve %s", id)
	}
	r.logger.Debug("type id resolved", zap.Stringer("script", id), zap.Stringer("type_hash", h))
	return h, nil
}

// AccountCell resolves the account registry cell type.
func (r *Resolver) AccountCell() (types.TypeHash, error) {
	return r.Resolve(types.ScriptAccountCell)
}

// SubAccountCell resolves the sub-account cell type.
func (r *Resolver) SubAccountCell() (types.TypeHash, error) {
	return r.Resolve(types.ScriptSubAccountCell)
}

// DPointCell resolves the DPoint cell type.
func (r *Resolver) DPointCell() (types.TypeHash, error) {
	return r.Resolve(types.ScriptDPointCell)
}

// ReverseRecordRootCell resolves the reverse record root cell type.
func (r *Resolver) ReverseRecordRootCell() (types.TypeHash, error) {
	return r.Resolve(types.ScriptReverseRecordRootCell)
}
