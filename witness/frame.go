// Package witness decodes the structured witnesses of a transaction
// and caches the entities they carry for the duration of one
// validation run.
package witness

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/dasguard/types"
)

// Magic prefixes every entity witness.
var Magic = []byte("das")

// HeaderSize is the magic, the data type and the body length.
const HeaderSize = 3 + 4 + 4

// Frame is one entity witness with its header stripped.
type Frame struct {
	DataType types.DataType
	Body     []byte
}

// Decoder turns raw witnesses into frames and frame bodies into
// entities.
type Decoder interface {
	// DecodeFrame reports ok == false for witnesses that are not
	// entity witnesses, such as lock witnesses. A witness that claims
	// to be one but is malformed is an error.
	DecodeFrame(raw []byte) (f Frame, ok bool, err error)
	// DecodeBody unmarshals an entity body into v.
	DecodeBody(body []byte, v any) error
}

// FrameDecoder is the cramberry-backed Decoder.
type FrameDecoder struct{}

var _ Decoder = FrameDecoder{}

func (FrameDecoder) DecodeFrame(raw []byte) (Frame, bool, error) {
	if !bytes.HasPrefix(raw, Magic) {
		return Frame{}, false, nil
	}
	if len(raw) < HeaderSize {
		return Frame{}, false, fmt.Errorf("witness: header truncated at %d bytes", len(raw))
	}
	dt := types.DataType(binary.LittleEndian.Uint32(raw[3:7]))
	n := binary.LittleEndian.Uint32(raw[7:11])
	body := raw[HeaderSize:]
	if uint64(len(body)) != uint64(n) {
		return Frame{}, false, fmt.Errorf("witness: %s body is %d bytes, header says %d", dt, len(body), n)
	}
	return Frame{DataType: dt, Body: body}, true, nil
}

func (FrameDecoder) DecodeBody(body []byte, v any) error {
	return cramberry.Unmarshal(body, v)
}

// EncodeFrame wraps an already encoded body.
func EncodeFrame(dt types.DataType, body []byte) []byte {
	out := make([]byte, HeaderSize, HeaderSize+len(body))
	copy(out, Magic)
	binary.LittleEndian.PutUint32(out[3:7], uint32(dt))
	binary.LittleEndian.PutUint32(out[7:11], uint32(len(body)))
	return append(out, body...)
}

// EncodeEntity encodes v and frames it with the given data type.
func EncodeEntity(dt types.DataType, v any) ([]byte, error) {
	body, err := cramberry.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("witness: encode %s: %w", dt, err)
	}
	return EncodeFrame(dt, body), nil
}

// EncodeGroup frames a cell-data group.
func EncodeGroup(dt types.DataType, g types.DataEntityGroup) ([]byte, error) {
	if !dt.IsCellData() {
		return nil, fmt.Errorf("witness: %s does not carry cell data", dt)
	}
	return EncodeEntity(dt, g)
}

// EncodeCellEntity encodes entity and binds it to the cell at
// (role, index) in a single-slot group.
func EncodeCellEntity(dt types.DataType, role types.CellRole, index uint32, entity any) ([]byte, error) {
	body, err := cramberry.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("witness: encode %s entity: %w", dt, err)
	}
	de := &types.DataEntity{Index: index, Version: 1, Entity: body}
	var g types.DataEntityGroup
	switch role {
	case types.RoleInput:
		g.Old = de
	case types.RoleOutput:
		g.New = de
	case types.RoleCellDep:
		g.Dep = de
	default:
		return nil, fmt.Errorf("witness: unknown cell role %s", role)
	}
	return EncodeGroup(dt, g)
}
