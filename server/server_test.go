package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/registry"
	"github.com/blockberries/dasguard/types"
)

// testValidator is a minimal validator stub to avoid an import cycle
// with dasguard/testing.
type testValidator struct {
	calls    atomic.Int64
	verdict  types.Verdict
	err      error
	manifest *registry.Manifest
}

func (v *testValidator) Validate(_ context.Context, _ types.Tx) (types.Verdict, error) {
	v.calls.Add(1)
	return v.verdict, v.err
}

func (v *testValidator) Manifest() *registry.Manifest { return v.manifest }

func TestServer_Accept(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	v := &testValidator{verdict: types.Accept("eth_sign", "0xabc")}
	s := New(v, WithMetrics(m))

	got, err := s.Validate(context.Background(), types.Tx{})
	require.NoError(t, err)
	assert.True(t, got.Accepted())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verdicts.WithLabelValues("none")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestServer_RejectCountsCategory(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	v := &testValidator{verdict: types.Reject(types.CategoryLocator, "ambiguous")}
	s := New(v, WithMetrics(m))

	for i := 0; i < 3; i++ {
		got, err := s.Validate(context.Background(), types.Tx{})
		require.NoError(t, err)
		assert.Equal(t, types.CategoryLocator, got.Category)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.verdicts.WithLabelValues("locator")))
}

func TestServer_HaltsAfterIntegrity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	ie := dasguard.NewIntegrityError("eth_sign", [32]byte{1}, [32]byte{2})
	v := &testValidator{verdict: types.Reject(types.CategoryIntegrity, ie.Error()), err: ie}
	s := New(v, WithMetrics(m))

	_, err := s.Validate(context.Background(), types.Tx{})
	require.Error(t, err)
	_, ok := dasguard.IsIntegrity(err)
	require.True(t, ok)

	halted, ok := s.Halted()
	require.True(t, ok)
	assert.Equal(t, "eth_sign", halted.Module)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.halted))

	// Even a validator that would now accept is never reached.
	v.err = nil
	v.verdict = types.Accept("eth_sign", "")
	got, err := s.Validate(context.Background(), types.Tx{})
	assert.True(t, errors.Is(err, ErrHalted))
	_, ok = dasguard.IsIntegrity(err)
	assert.True(t, ok, "halt error keeps the original violation")
	assert.Equal(t, types.CategoryIntegrity, got.Category)
	assert.Equal(t, int64(1), v.calls.Load())

	_, err = s.Manifest(context.Background())
	assert.ErrorIs(t, err, ErrHalted)
}

func TestServer_AbortedPassesThrough(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	v := &testValidator{err: context.DeadlineExceeded}
	s := New(v, WithMetrics(m))

	got, err := s.Validate(context.Background(), types.Tx{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, got.Accepted(), "an aborted run never reads as accepted")
	assert.Equal(t, types.CategoryAborted, got.Category)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verdicts.WithLabelValues("aborted")))

	_, halted := s.Halted()
	assert.False(t, halted)

	v.err = nil
	v.verdict = types.Accept("eth_sign", "")
	got, err = s.Validate(context.Background(), types.Tx{})
	require.NoError(t, err)
	assert.True(t, got.Accepted(), "the same input validates once the run completes")
}

func TestServer_NonIntegrityErrorBecomesVerdict(t *testing.T) {
	v := &testValidator{err: errors.New("boom")}
	s := New(v)

	got, err := s.Validate(context.Background(), types.Tx{})
	require.NoError(t, err)
	assert.Equal(t, types.CategoryDecode, got.Category)
	_, halted := s.Halted()
	assert.False(t, halted)
}

func TestServer_Manifest(t *testing.T) {
	m := registry.MustManifest(
		registry.NewEntry("eth_sign", types.AlgETH, []byte("a")),
		registry.NewEntry("ckb_sign", types.AlgCKB, []byte("b")),
	)

	// Discovered from the validator.
	s := New(&testValidator{manifest: m})
	infos, err := s.Manifest(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "eth_sign", infos[0].Name)
	assert.Equal(t, types.Hash(registry.Sum([]byte("b"))), infos[1].Digest)

	// Explicit option wins.
	other := registry.MustManifest(registry.NewEntry("doge_sign", types.AlgDOGE, []byte("c")))
	s = New(&testValidator{manifest: m}, WithManifest(other))
	infos, err = s.Manifest(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, types.AlgDOGE, infos[0].Selector)
}
