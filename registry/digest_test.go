package registry

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum_KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty", nil, "44f4c69744d5f8c55d642062949dcae49bc4e7ef43d388c5a12f42b5633d163e"},
		{"short", []byte("dasguard"), "6db8164d1e30f9a084f7d7337a6d1262f3ad72fa4d83f36a084169ccc5407588"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sum(tt.data)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestSumReader_MatchesSumAcrossChunks(t *testing.T) {
	// Larger than one read buffer so the streaming path is exercised.
	data := bytes.Repeat(func() []byte {
		b := make([]byte, 256)
		for i := range b {
			b[i] = byte(i)
		}
		return b
	}(), 40)

	got, err := SumReader(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, Sum(data), got)
	require.Equal(t, "de4d043ce568c010aa22d33ac8144c661c69caa0dab8f6170eda2fbeacd53bc2", got.String())
}

func TestBlake160_IsDigestPrefix(t *testing.T) {
	d := Sum([]byte("dasguard"))
	b := Blake160([]byte("dasguard"))
	require.Equal(t, hex.EncodeToString(d[:20]), hex.EncodeToString(b[:]))
}
