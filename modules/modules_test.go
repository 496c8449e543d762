package modules_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/dasguard/modules"
	dasguardtest "github.com/blockberries/dasguard/testing"
	"github.com/blockberries/dasguard/types"
)

var msg = []byte("0123456789abcdef0123456789abcdef")

func TestNative_EverySignerVerifies(t *testing.T) {
	native := modules.Native()
	require.Len(t, native, len(modules.All()))

	for _, s := range dasguardtest.AllSigners(42) {
		t.Run(s.Selector().String(), func(t *testing.T) {
			v, ok := native[s.Selector()]
			require.True(t, ok)
			assert.True(t, v.Verify(msg, s.Sign(msg), s.Args()))
		})
	}
}

func TestNative_CrossAlgorithmRejects(t *testing.T) {
	native := modules.Native()
	signers := dasguardtest.AllSigners(1)
	for _, a := range signers {
		for _, b := range signers {
			if a.Selector() == b.Selector() {
				continue
			}
			assert.False(t, native[a.Selector()].Verify(msg, b.Sign(msg), b.Args()),
				"%s verified a %s signature", a.Selector(), b.Selector())
		}
	}
}

func TestAddress(t *testing.T) {
	args := make([]byte, types.ArgsSize)
	args[19] = 1

	eth, err := modules.Address(types.AlgETH, args)
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", eth)

	tron, err := modules.Address(types.AlgTRON, args)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tron, "T"), tron)

	doge, err := modules.Address(types.AlgDOGE, args)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doge, "D"), doge)

	_, err = modules.Address(types.Selector(9), args)
	assert.Error(t, err)
	_, err = modules.Address(types.AlgETH, args[:19])
	assert.Error(t, err)
}
