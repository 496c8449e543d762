package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/dispatch"
	"github.com/blockberries/dasguard/modules"
	"github.com/blockberries/dasguard/registry"
	dasguardtest "github.com/blockberries/dasguard/testing"
	"github.com/blockberries/dasguard/types"
	"github.com/blockberries/dasguard/witness"
)

func newDispatcher(m *registry.Manifest, engine dispatch.Engine, opts ...dispatch.Option) *dispatch.Dispatcher {
	return dispatch.New(m, append([]dispatch.Option{dispatch.WithEngine(engine)}, opts...)...)
}

func TestCompliance(t *testing.T) {
	dasguardtest.RunComplianceSuite(t, func(m *registry.Manifest, e *dasguardtest.CountingEngine) dasguard.Validator {
		return newDispatcher(m, e)
	})
}

// Scenario A: one account cell, a well-formed entity and a valid
// signature.
func TestValidate_Accept(t *testing.T) {
	engine := &dasguardtest.CountingEngine{}
	d := newDispatcher(dasguardtest.NativeManifest(), engine, dispatch.WithAddressFormatter(modules.Address))

	s := dasguardtest.NewETHSigner(1)
	v, err := d.Validate(context.Background(), dasguardtest.NewTxBuilder(s).Build())
	require.NoError(t, err)
	require.True(t, v.Accepted(), "info: %s", v.Info)
	assert.Equal(t, "eth_sign", v.Module)
	assert.Equal(t, "0x", v.Sender[:2])
	assert.Len(t, v.Sender, 42)
	assert.Equal(t, int64(1), engine.Invocations.Load())
}

// Scenario B: the account entity witness is truncated mid-record.
func TestValidate_TruncatedWitness(t *testing.T) {
	d := newDispatcher(dasguardtest.NativeManifest(), &dasguardtest.CountingEngine{})
	tx := dasguardtest.NewTxBuilder(dasguardtest.NewCKBSigner(1)).Build()
	last := len(tx.Witnesses) - 1
	tx.Witnesses[last] = tx.Witnesses[last][:len(tx.Witnesses[last])-3]

	v, err := d.Validate(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryDecode, v.Category)
	assert.Equal(t, types.CategoryDecode.Code(), v.Code)
}

// Scenario C: two inputs share the account type hash.
func TestValidate_AmbiguousAccount(t *testing.T) {
	d := newDispatcher(dasguardtest.NativeManifest(), &dasguardtest.CountingEngine{})
	tx := dasguardtest.NewTxBuilder(dasguardtest.NewCKBSigner(1)).AccountCells(2).Build()

	v, err := d.Validate(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryLocator, v.Category)
	assert.Contains(t, v.Info, dasguard.ErrCellAmbiguous.Error())
}

// Scenario D: the selector has no manifest entry.
func TestValidate_UnsupportedSelector(t *testing.T) {
	engine := &dasguardtest.CountingEngine{}
	m := registry.MustManifest(registry.NewEntry("ckb_sign", types.AlgCKB, []byte("ckb")))
	d := newDispatcher(m, engine)

	v, err := d.Validate(context.Background(), dasguardtest.NewTxBuilder(dasguardtest.NewETHSigner(1)).Build())
	require.NoError(t, err)
	assert.Equal(t, types.CategoryUnsupportedAlgorithm, v.Category)
	assert.Zero(t, engine.Invocations.Load())
}

func TestValidate_IntegrityBeforeInvoke(t *testing.T) {
	engine := &dasguardtest.CountingEngine{}
	d := newDispatcher(dasguardtest.TamperedManifest("ckb_sign"), engine)

	v, err := d.Validate(context.Background(), dasguardtest.NewTxBuilder(dasguardtest.NewCKBSigner(1)).Build())
	require.Error(t, err)
	ie, ok := dasguard.IsIntegrity(err)
	require.True(t, ok)
	assert.Equal(t, "ckb_sign", ie.Module)
	assert.NotEqual(t, ie.Want, ie.Got)
	assert.Equal(t, types.CategoryIntegrity, v.Category)
	assert.Zero(t, engine.Invocations.Load())

	// Other modules are untouched.
	v, err = d.Validate(context.Background(), dasguardtest.NewTxBuilder(dasguardtest.NewETHSigner(1)).Build())
	require.NoError(t, err)
	assert.True(t, v.Accepted())
}

func TestValidate_Rejections(t *testing.T) {
	eth := dasguardtest.NewETHSigner(1)
	tests := []struct {
		name   string
		tx     func() types.Tx
		want   types.Category
		target error
	}{
		{
			name: "short lock args",
			tx: func() types.Tx {
				tx := dasguardtest.NewTxBuilder(eth).Build()
				tx.LockArgs = tx.LockArgs[:41]
				return tx
			},
			want:   types.CategoryDecode,
			target: dasguard.ErrMalformedLockArgs,
		},
		{
			name: "unknown sign role",
			tx: func() types.Tx {
				tx := dasguardtest.NewTxBuilder(eth).Build()
				tx.SignRole = 7
				return tx
			},
			want:   types.CategoryDecode,
			target: dasguard.ErrMalformedLockArgs,
		},
		{
			name: "tampered message",
			tx: func() types.Tx {
				tx := dasguardtest.NewTxBuilder(eth).Build()
				tx.Message[0] ^= 1
				return tx
			},
			want:   types.CategorySignature,
			target: dasguard.ErrInvalidSignature,
		},
		{
			name:   "no config witness",
			tx:     func() types.Tx { return dasguardtest.NewTxBuilder(eth).WithoutConfig().Build() },
			want:   types.CategoryResolution,
			target: dasguard.ErrTypeIDNotFound,
		},
		{
			name:   "no account cell",
			tx:     func() types.Tx { return dasguardtest.NewTxBuilder(eth).AccountCells(0).Build() },
			want:   types.CategoryLocator,
			target: dasguard.ErrCellAbsent,
		},
		{
			name: "account entity on another cell",
			tx: func() types.Tx {
				tx := dasguardtest.NewTxBuilder(eth).Build()
				// Shift the account cell; its witness still points at 0.
				tx.Inputs = append([]types.Cell{{}}, tx.Inputs...)
				return tx
			},
			want:   types.CategoryDecode,
			target: dasguard.ErrEntityAbsent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(dasguardtest.NativeManifest(), &dasguardtest.CountingEngine{})
			tx := tt.tx()
			v, err := d.Validate(context.Background(), tx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Category, "info: %s", v.Info)
			assert.Contains(t, v.Info, tt.target.Error())
		})
	}
}

func TestValidate_AccountAtLocatedIndex(t *testing.T) {
	d := newDispatcher(dasguardtest.NativeManifest(), &dasguardtest.CountingEngine{})
	tx := dasguardtest.NewTxBuilder(dasguardtest.NewTRONSigner(1)).
		Input(types.Cell{}).
		Input(types.Cell{Capacity: 1}).
		Build()
	v, err := d.Validate(context.Background(), tx)
	require.NoError(t, err)
	assert.True(t, v.Accepted(), "info: %s", v.Info)
}

func TestValidate_EngineError(t *testing.T) {
	failing := engineFunc(func(context.Context, registry.Entry, types.Invocation) (bool, error) {
		return false, errors.New("trap")
	})
	d := newDispatcher(dasguardtest.NativeManifest(), failing)
	v, err := d.Validate(context.Background(), dasguardtest.NewTxBuilder(dasguardtest.NewETHSigner(1)).Build())
	require.NoError(t, err)
	assert.Equal(t, types.CategorySignature, v.Category)
	assert.Contains(t, v.Info, "trap")
}

type engineFunc func(context.Context, registry.Entry, types.Invocation) (bool, error)

func (f engineFunc) Invoke(ctx context.Context, e registry.Entry, inv types.Invocation) (bool, error) {
	return f(ctx, e, inv)
}

func TestNativeEngine_MissingVerifier(t *testing.T) {
	e := dispatch.NewNativeEngine(map[types.Selector]dasguard.Verifier{})
	_, err := e.Invoke(context.Background(), registry.NewEntry("eth_sign", types.AlgETH, nil), types.Invocation{})
	assert.Error(t, err)
}

func TestValidate_IgnoresUnrelatedWitnesses(t *testing.T) {
	sub, err := witness.EncodeCellEntity(types.DataSubAccount, types.RoleOutput, 0, types.Record{Key: "x"})
	require.NoError(t, err)

	d := newDispatcher(dasguardtest.NativeManifest(), &dasguardtest.CountingEngine{})
	tx := dasguardtest.NewTxBuilder(dasguardtest.NewEd25519Signer(4)).
		Witness([]byte("lock witness, no magic")).
		Witness(sub).
		Build()
	v, err := d.Validate(context.Background(), tx)
	require.NoError(t, err)
	assert.True(t, v.Accepted(), "info: %s", v.Info)
}

func TestValidate_EngineAbortedIsNotAVerdict(t *testing.T) {
	tests := []struct {
		name   string
		target error
	}{
		{"deadline", context.DeadlineExceeded},
		{"canceled", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aborted := engineFunc(func(context.Context, registry.Entry, types.Invocation) (bool, error) {
				return false, fmt.Errorf("sandbox: eth_sign: %w", tt.target)
			})
			d := newDispatcher(dasguardtest.NativeManifest(), aborted)
			v, err := d.Validate(context.Background(), dasguardtest.NewTxBuilder(dasguardtest.NewETHSigner(1)).Build())
			require.ErrorIs(t, err, tt.target)
			assert.True(t, dasguard.IsAborted(err))
			assert.False(t, v.Accepted())
			assert.Equal(t, types.CategoryAborted, v.Category)
			assert.NotErrorIs(t, err, dasguard.ErrInvalidSignature)
		})
	}
}
