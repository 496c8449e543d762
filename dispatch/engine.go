package dispatch

import (
	"context"
	"fmt"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/modules"
	"github.com/blockberries/dasguard/registry"
	"github.com/blockberries/dasguard/types"
)

// Engine executes a verified manifest entry. The sandbox engine runs
// the embedded binary; NativeEngine runs the statically linked Go
// equivalent.
type Engine interface {
	Invoke(ctx context.Context, entry registry.Entry, inv types.Invocation) (bool, error)
}

// NativeEngine routes each entry to a statically linked verifier by
// selector.
type NativeEngine struct {
	verifiers map[types.Selector]dasguard.Verifier
}

var _ Engine = (*NativeEngine)(nil)

// NewNativeEngine creates an engine over verifiers. A nil map uses
// every module linked into the binary.
func NewNativeEngine(verifiers map[types.Selector]dasguard.Verifier) *NativeEngine {
	if verifiers == nil {
		verifiers = modules.Native()
	}
	return &NativeEngine{verifiers: verifiers}
}

func (n *NativeEngine) Invoke(_ context.Context, entry registry.Entry, inv types.Invocation) (bool, error) {
	v, ok := n.verifiers[entry.Selector]
	if !ok {
		return false, fmt.Errorf("dispatch: no native verifier for %s (%s)", entry.Name, entry.Selector)
	}
	return v.Verify(inv.Message, inv.Signature, inv.PubkeyMaterial), nil
}
