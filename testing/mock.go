// Package dasguardtest provides test utilities for dasguard
// validators: deterministic signers, a transaction builder, counting
// engines, a test harness and a compliance suite.
package dasguardtest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/dispatch"
	"github.com/blockberries/dasguard/modules"
	"github.com/blockberries/dasguard/registry"
	"github.com/blockberries/dasguard/types"
)

// Compile-time interface checks.
var (
	_ dispatch.Engine         = (*CountingEngine)(nil)
	_ dasguard.ApprovalPolicy = (*MockPolicy)(nil)
	_ dasguard.Validator      = (*MockValidator)(nil)
)

// CountingEngine wraps an engine and counts invocations. A nil Inner
// uses the native modules.
type CountingEngine struct {
	Inner dispatch.Engine

	Invocations atomic.Int64
}

func (c *CountingEngine) Invoke(ctx context.Context, entry registry.Entry, inv types.Invocation) (bool, error) {
	c.Invocations.Add(1)
	inner := c.Inner
	if inner == nil {
		inner = dispatch.NewNativeEngine(nil)
	}
	return inner.Invoke(ctx, entry, inv)
}

// MockPolicy is a configurable approval policy. It accepts everything
// unless CheckFn is set.
type MockPolicy struct {
	CheckFn func(context.Context, dasguard.ApprovalContext) error

	Calls atomic.Int64

	mu   sync.Mutex
	last dasguard.ApprovalContext
}

func (m *MockPolicy) CheckApproval(ctx context.Context, actx dasguard.ApprovalContext) error {
	m.Calls.Add(1)
	m.mu.Lock()
	m.last = actx
	m.mu.Unlock()
	if m.CheckFn != nil {
		return m.CheckFn(ctx, actx)
	}
	return nil
}

// Last returns the context of the most recent call.
func (m *MockPolicy) Last() dasguard.ApprovalContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// MockValidator is a configurable validator for transport tests.
// Unconfigured, it accepts every transaction.
type MockValidator struct {
	ValidateFn func(context.Context, types.Tx) (types.Verdict, error)
	Modules    *registry.Manifest

	ValidateCalls atomic.Int64
}

func (m *MockValidator) Validate(ctx context.Context, tx types.Tx) (types.Verdict, error) {
	m.ValidateCalls.Add(1)
	if m.ValidateFn != nil {
		return m.ValidateFn(ctx, tx)
	}
	return types.Accept("mock", ""), nil
}

// Manifest returns Modules.
func (m *MockValidator) Manifest() *registry.Manifest { return m.Modules }

// NativeManifest pins a placeholder binary for every linked module.
// Paired with a NativeEngine it exercises the full dispatch path
// without compiled wasm.
func NativeManifest() *registry.Manifest {
	var entries []registry.Entry
	for _, m := range modules.All() {
		entries = append(entries, registry.NewEntry(m.Name, m.Selector, []byte("dasguardtest:"+m.Name)))
	}
	return registry.MustManifest(entries...)
}

// TamperedManifest is NativeManifest with one byte of the named
// module's binary flipped after pinning.
func TamperedManifest(name string) *registry.Manifest {
	var entries []registry.Entry
	for _, e := range NativeManifest().Entries() {
		if e.Name == name {
			bin := append([]byte(nil), e.Binary...)
			bin[0] ^= 0x01
			e.Binary = bin
		}
		entries = append(entries, e)
	}
	return registry.MustManifest(entries...)
}
