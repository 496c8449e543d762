package dasguardtest

import (
	"context"
	"sync"
	"testing"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/registry"
	"github.com/blockberries/dasguard/types"
)

// Factory builds a fresh validator over the given manifest and engine.
// The compliance suite supplies both so it can count invocations and
// simulate tampering.
type Factory func(manifest *registry.Manifest, engine *CountingEngine) dasguard.Validator

// RunComplianceSuite runs a standard compliance test suite against a
// validator implementation to verify the dispatch contract.
func RunComplianceSuite(t *testing.T, factory Factory) {
	t.Helper()

	newHarness := func(t *testing.T, m *registry.Manifest) (*Harness, *CountingEngine) {
		engine := &CountingEngine{}
		return NewHarness(t, factory(m, engine)), engine
	}

	t.Run("accepts_every_algorithm", func(t *testing.T) {
		h, _ := newHarness(t, NativeManifest())
		for _, s := range AllSigners(1) {
			t.Run(s.Selector().String(), func(t *testing.T) {
				h.MustAccept(NewTxBuilder(s).Build())
			})
		}
	})

	t.Run("manager_role", func(t *testing.T) {
		h, _ := newHarness(t, NativeManifest())
		tx := NewTxBuilder(NewETHSigner(1)).Manager(NewTRONSigner(2)).Role(types.RoleManager).Build()
		v := h.MustAccept(tx)
		if v.Module != "tron_sign" {
			t.Errorf("expected tron_sign, got %q", v.Module)
		}
	})

	t.Run("wrong_signer_rejected", func(t *testing.T) {
		h, _ := newHarness(t, NativeManifest())
		tx := NewTxBuilder(NewCKBSigner(1)).Build()
		tx.Signature = NewCKBSigner(2).Sign(tx.Message[:])
		h.MustReject(tx, types.CategorySignature)
	})

	t.Run("unsupported_selector_never_invokes", func(t *testing.T) {
		h, engine := newHarness(t, NativeManifest())
		tx := NewTxBuilder(NewETHSigner(1)).Build()
		tx.LockArgs[0] = 0x09
		h.MustReject(tx, types.CategoryUnsupportedAlgorithm)
		if n := engine.Invocations.Load(); n != 0 {
			t.Fatalf("expected no invocation, got %d", n)
		}
	})

	t.Run("integrity_before_invoke", func(t *testing.T) {
		h, engine := newHarness(t, TamperedManifest("eth_sign"))
		ie := h.MustHalt(NewTxBuilder(NewETHSigner(1)).Build())
		if ie.Module != "eth_sign" {
			t.Errorf("expected eth_sign, got %q", ie.Module)
		}
		if n := engine.Invocations.Load(); n != 0 {
			t.Fatalf("expected no invocation, got %d", n)
		}
	})

	t.Run("ambiguous_account_rejected", func(t *testing.T) {
		h, _ := newHarness(t, NativeManifest())
		h.MustReject(NewTxBuilder(NewETHSigner(1)).AccountCells(2).Build(), types.CategoryLocator)
	})

	t.Run("deterministic", func(t *testing.T) {
		h1, _ := newHarness(t, NativeManifest())
		h2, _ := newHarness(t, NativeManifest())
		txs := []types.Tx{
			NewTxBuilder(NewDOGESigner(3)).Build(),
			NewTxBuilder(NewDOGESigner(3)).AccountCells(0).Build(),
		}
		for i, tx := range txs {
			v1, v2 := h1.Validate(tx), h2.Validate(tx)
			if v1 != v2 {
				t.Errorf("tx %d: non-deterministic: %+v != %+v", i, v1, v2)
			}
		}
	})

	t.Run("concurrent_validation", func(t *testing.T) {
		h, _ := newHarness(t, NativeManifest())
		tx := NewTxBuilder(NewEd25519Signer(4)).Build()
		var wg sync.WaitGroup
		errs := make(chan error, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := h.Server().Validate(context.Background(), tx)
				if err == nil && !v.Accepted() {
					err = dasguard.Reject(v.Category, nil, "%s", v.Info)
				}
				if err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("concurrent validation: %v", err)
		}
	})
}
