package witness

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/types"
)

// countingDecoder counts frame decodes so tests can prove the witness
// list is walked exactly once.
type countingDecoder struct {
	FrameDecoder
	frames atomic.Int64
}

func (d *countingDecoder) DecodeFrame(raw []byte) (Frame, bool, error) {
	d.frames.Add(1)
	return d.FrameDecoder.DecodeFrame(raw)
}

var accountType = types.TypeHash{0xAC}

func mustEncode(t *testing.T) func([]byte, error) []byte {
	return func(raw []byte, err error) []byte {
		t.Helper()
		require.NoError(t, err)
		return raw
	}
}

func fixture(t *testing.T) [][]byte {
	t.Helper()
	return [][]byte{
		make([]byte, 85), // lock witness
		mustEncode(t)(EncodeEntity(types.DataActionData, types.ActionData{Action: "edit_records"})),
		mustEncode(t)(EncodeEntity(types.DataConfigCellMain, types.ConfigCellMain{
			TypeIDTable: types.TypeIDTable{AccountCell: accountType},
		})),
		mustEncode(t)(EncodeCellEntity(types.DataAccountCellData, types.RoleInput, 0,
			types.AccountCellData{Account: "alice.bit"})),
		mustEncode(t)(EncodeEntity(types.DataType(999), types.ActionData{})),
	}
}

func TestParser_InitOnce(t *testing.T) {
	dec := &countingDecoder{}
	w := fixture(t)
	p := NewParser(w, WithDecoder(dec))
	assert.False(t, p.IsInited())
	assert.Zero(t, dec.frames.Load(), "nothing is parsed before the first lookup")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Init())
			_, err := p.TypeID(types.ScriptAccountCell)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, p.IsInited())
	assert.Equal(t, int64(len(w)), dec.frames.Load())
}

func TestParser_FailureIsMemoized(t *testing.T) {
	dec := &countingDecoder{}
	w := [][]byte{EncodeFrame(types.DataAccountCellData, []byte{1, 2})[:HeaderSize+1]}
	p := NewParser(w, WithDecoder(dec))

	err1 := p.Init()
	require.Error(t, err1)
	assert.True(t, errors.Is(err1, dasguard.ErrMalformedWitness))
	assert.Equal(t, types.CategoryDecode, dasguard.CategoryOf(err1))

	err2 := p.Init()
	assert.Same(t, err1, err2)
	assert.False(t, p.IsInited())
	assert.Equal(t, int64(1), dec.frames.Load())

	_, err := p.TypeID(types.ScriptAccountCell)
	assert.Same(t, err1, err)
}

func TestParser_EmptyWitnessList(t *testing.T) {
	p := NewParser(nil)
	require.NoError(t, p.Init())
	assert.True(t, p.IsInited())

	_, err := p.TypeID(types.ScriptAccountCell)
	assert.ErrorIs(t, err, dasguard.ErrTypeIDNotFound)
	assert.Equal(t, types.CategoryResolution, dasguard.CategoryOf(err))

	_, err = p.EntityByCellMeta(CellMeta{Role: types.RoleInput}, types.DataAccountCellData)
	assert.ErrorIs(t, err, dasguard.ErrEntityAbsent)
}

func TestParser_TypeID(t *testing.T) {
	p := NewParser(fixture(t))
	h, err := p.TypeID(types.ScriptAccountCell)
	require.NoError(t, err)
	assert.Equal(t, accountType, h)

	// Two lookups agree.
	h2, err := p.TypeID(types.ScriptAccountCell)
	require.NoError(t, err)
	assert.Equal(t, h, h2)

	_, err = p.TypeID(types.ScriptSubAccountCell)
	assert.ErrorIs(t, err, dasguard.ErrTypeIDNotFound)
	assert.Contains(t, err.Error(), "SubAccountCellType")
}

func TestParser_EntityByCellMeta(t *testing.T) {
	p := NewParser(fixture(t))

	de, err := p.EntityByCellMeta(CellMeta{Role: types.RoleInput, Index: 0}, types.DataAccountCellData)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), de.Version)

	_, err = p.EntityByCellMeta(CellMeta{Role: types.RoleInput, Index: 0}, types.DataSubAccount)
	assert.ErrorIs(t, err, dasguard.ErrEntityMismatch)
	assert.Equal(t, types.CategoryDecode, dasguard.CategoryOf(err))

	_, err = p.EntityByCellMeta(CellMeta{Role: types.RoleOutput, Index: 0}, types.DataAccountCellData)
	assert.ErrorIs(t, err, dasguard.ErrEntityAbsent)
}

func TestEntity_Memoized(t *testing.T) {
	p := NewParser(fixture(t))
	meta := CellMeta{Role: types.RoleInput, Index: 0}

	a1, err := Entity[types.AccountCellData](p, meta, types.DataAccountCellData)
	require.NoError(t, err)
	assert.Equal(t, "alice.bit", a1.Account)

	a2, err := Entity[types.AccountCellData](p, meta, types.DataAccountCellData)
	require.NoError(t, err)
	assert.Same(t, a1, a2)
}

// accountView has the same wire layout as AccountCellData but is a
// distinct Go type.
type accountView types.AccountCellData

func TestEntity_MemoizedPerType(t *testing.T) {
	p := NewParser(fixture(t))
	meta := CellMeta{Role: types.RoleInput, Index: 0}

	a1, err := Entity[types.AccountCellData](p, meta, types.DataAccountCellData)
	require.NoError(t, err)
	v1, err := Entity[accountView](p, meta, types.DataAccountCellData)
	require.NoError(t, err)
	assert.Equal(t, "alice.bit", v1.Account)

	a2, err := Entity[types.AccountCellData](p, meta, types.DataAccountCellData)
	require.NoError(t, err)
	assert.Same(t, a1, a2, "decoding as another type must not evict the cached value")

	v2, err := Entity[accountView](p, meta, types.DataAccountCellData)
	require.NoError(t, err)
	assert.Same(t, v1, v2)
}

func TestParser_Action(t *testing.T) {
	a, err := NewParser(fixture(t)).Action()
	require.NoError(t, err)
	assert.Equal(t, "edit_records", a.Action)

	_, err = NewParser(nil).Action()
	assert.ErrorIs(t, err, dasguard.ErrEntityAbsent)
}

func TestParser_Duplicates(t *testing.T) {
	action := mustEncode(t)(EncodeEntity(types.DataActionData, types.ActionData{Action: "x"}))
	cell := mustEncode(t)(EncodeCellEntity(types.DataAccountCellData, types.RoleInput, 2, types.AccountCellData{}))
	other := mustEncode(t)(EncodeCellEntity(types.DataSubAccount, types.RoleInput, 2, types.AccountCellData{}))

	tests := []struct {
		name string
		w    [][]byte
	}{
		{"action", [][]byte{action, action}},
		{"same slot", [][]byte{cell, cell}},
		{"slot taken by other type", [][]byte{cell, other}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewParser(tt.w).Init()
			assert.ErrorIs(t, err, dasguard.ErrMalformedWitness)
		})
	}
}
