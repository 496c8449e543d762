package witness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/dasguard/types"
)

func TestFrameDecoder_RoundTrip(t *testing.T) {
	raw, err := EncodeEntity(types.DataActionData, types.ActionData{Action: "transfer_account"})
	require.NoError(t, err)
	assert.Equal(t, []byte("das"), raw[:3])

	f, ok, err := FrameDecoder{}.DecodeFrame(raw)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.DataActionData, f.DataType)

	var a types.ActionData
	require.NoError(t, FrameDecoder{}.DecodeBody(f.Body, &a))
	assert.Equal(t, "transfer_account", a.Action)
}

func TestFrameDecoder_SkipsLockWitness(t *testing.T) {
	for _, raw := range [][]byte{nil, {}, make([]byte, 65), []byte("da")} {
		_, ok, err := FrameDecoder{}.DecodeFrame(raw)
		assert.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestFrameDecoder_Malformed(t *testing.T) {
	raw := EncodeFrame(types.DataConfigCellMain, []byte{1, 2, 3, 4})

	tests := []struct {
		name string
		raw  []byte
	}{
		{"short header", raw[:HeaderSize-1]},
		{"truncated body", raw[:len(raw)-1]},
		{"trailing bytes", append(append([]byte(nil), raw...), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := FrameDecoder{}.DecodeFrame(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestEncodeGroup_RejectsNonCellData(t *testing.T) {
	_, err := EncodeGroup(types.DataActionData, types.DataEntityGroup{})
	assert.Error(t, err)

	_, err = EncodeCellEntity(types.DataAccountCellData, types.CellRole(9), 0, types.AccountCellData{})
	assert.Error(t, err)
}
