// Package ckbmulti verifies the chain's m-of-n secp256k1 multisig
// lock. The signature field carries the multisig script followed by
// the signatures:
//
//	[1]reserved [1]require_first_n [1]threshold [1]n [n*20]pubkey_hashes [threshold*65]sigs
//
// The lock args are the blake160 of the script.
package ckbmulti

import (
	"bytes"

	"github.com/blockberries/dasguard/internal/ckbhash"
	"github.com/blockberries/dasguard/modules/ckb"
	"github.com/blockberries/dasguard/internal/recovery"
)

// Name is the module's manifest name.
const Name = "ckb_multi_sign"

const (
	headerSize = 4
	hashSize   = 20
)

// Script is a decoded multisig script.
type Script struct {
	RequireFirstN uint8
	Threshold     uint8
	Members       [][hashSize]byte
}

// Bytes encodes the script.
func (s Script) Bytes() []byte {
	out := []byte{0, s.RequireFirstN, s.Threshold, uint8(len(s.Members))}
	for _, m := range s.Members {
		out = append(out, m[:]...)
	}
	return out
}

// ParseScript splits the signature field into script and signatures.
func ParseScript(field []byte) (Script, []byte, []byte, bool) {
	if len(field) < headerSize {
		return Script{}, nil, nil, false
	}
	reserved, first, threshold, n := field[0], field[1], field[2], int(field[3])
	if reserved != 0 || n == 0 || threshold == 0 || int(threshold) > n || first > threshold {
		return Script{}, nil, nil, false
	}
	scriptLen := headerSize + n*hashSize
	if len(field) != scriptLen+int(threshold)*recovery.SigSize {
		return Script{}, nil, nil, false
	}
	s := Script{RequireFirstN: first, Threshold: threshold, Members: make([][hashSize]byte, n)}
	for i := range s.Members {
		copy(s.Members[i][:], field[headerSize+i*hashSize:])
	}
	return s, field[:scriptLen], field[scriptLen:], true
}

// Verify checks that threshold distinct members signed message, that
// the first RequireFirstN members are among them and that the script
// hashes to args.
func Verify(message, signature, args []byte) bool {
	if len(message) != 32 || len(args) != hashSize {
		return false
	}
	s, script, sigs, ok := ParseScript(signature)
	if !ok {
		return false
	}
	if h := ckbhash.Blake160(script); !bytes.Equal(h[:], args) {
		return false
	}

	signed := make([]bool, len(s.Members))
	for i := 0; i < int(s.Threshold); i++ {
		pub, ok := ckb.Recover(message, sigs[i*recovery.SigSize:(i+1)*recovery.SigSize])
		if !ok {
			return false
		}
		idx := memberIndex(s.Members, ckbhash.Blake160(pub))
		if idx < 0 || signed[idx] {
			return false
		}
		signed[idx] = true
	}
	for i := 0; i < int(s.RequireFirstN); i++ {
		if !signed[i] {
			return false
		}
	}
	return true
}

func memberIndex(members [][hashSize]byte, h [hashSize]byte) int {
	for i, m := range members {
		if m == h {
			return i
		}
	}
	return -1
}
