// Package types defines the data model shared by every dasguard
// component: transactions and cells, witness entities, algorithm
// selectors and the verdict surfaced to the host VM.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization. Witness bodies, sandbox
// invocations, transaction files and the gRPC transport all use the
// same encoding.
package types

import (
	"encoding/hex"
	"fmt"
)

// Hash is a 32-byte cryptographic hash.
type Hash [32]byte

// String returns the 0x-prefixed hex form.
func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// IsZero reports whether every byte is zero.
func (h Hash) IsZero() bool { return h == Hash{} }

// TypeHash identifies one on-chain script (its "class"). It is derived
// at validation time from transaction contents.
type TypeHash [32]byte

// String returns the 0x-prefixed hex form.
func (h TypeHash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// IsZero reports whether every byte is zero.
func (h TypeHash) IsZero() bool { return h == TypeHash{} }

// CellRole partitions a transaction's cell list.
type CellRole uint8

const (
	RoleInput   CellRole = 1
	RoleOutput  CellRole = 2
	RoleCellDep CellRole = 3
)

func (r CellRole) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	case RoleCellDep:
		return "cell_dep"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// Cell is one input, output or dependency slot. Its index is its
// position within the role it belongs to.
type Cell struct {
	// TypeHash is nil for cells without a type script.
	TypeHash *TypeHash `cramberry:"1"`
	Capacity uint64    `cramberry:"2"`
	Data     []byte    `cramberry:"3"`
}

// HasType reports whether the cell carries the given type hash.
func (c Cell) HasType(h TypeHash) bool {
	return c.TypeHash != nil && *c.TypeHash == h
}

// Tx is a proposed transaction together with the context the host
// VM resolved for it.
type Tx struct {
	// Message is the signing digest of the transaction. Computing it
	// is the host's concern.
	Message Hash `cramberry:"1"`
	// LockArgs are the lock script args of the cells being unlocked.
	LockArgs []byte `cramberry:"2"`
	// Signature is the lock field of the first witness in the group.
	Signature []byte   `cramberry:"3"`
	SignRole  SignRole `cramberry:"4"`
	Inputs    []Cell   `cramberry:"5"`
	Outputs   []Cell   `cramberry:"6"`
	CellDeps  []Cell   `cramberry:"7"`
	Witnesses [][]byte `cramberry:"8"`
	// Timestamp is the block time (seconds) the host resolved from
	// header deps. Approval rules compare against it.
	Timestamp uint64 `cramberry:"9"`
}

// CellsOf returns the cells of the given role in index order.
func (tx *Tx) CellsOf(role CellRole) []Cell {
	switch role {
	case RoleInput:
		return tx.Inputs
	case RoleOutput:
		return tx.Outputs
	case RoleCellDep:
		return tx.CellDeps
	default:
		return nil
	}
}

// Invocation is the input handed to a module's verification entry
// point. Sandboxed modules receive it cramberry-encoded on stdin.
type Invocation struct {
	Message        []byte `cramberry:"1"`
	Signature      []byte `cramberry:"2"`
	PubkeyMaterial []byte `cramberry:"3"`
}

// ModuleInfo is the public view of one manifest entry.
type ModuleInfo struct {
	Name     string   `cramberry:"1"`
	Selector Selector `cramberry:"2"`
	Digest   Hash     `cramberry:"3"`
}
