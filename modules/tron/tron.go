// Package tron verifies TRON signed-message signatures.
package tron

import (
	"bytes"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/blockberries/dasguard/internal/recovery"
)

// Name is the module's manifest name.
const Name = "tron_sign"

// Prefix is the TRON signed-message prefix for a 32-byte message.
const Prefix = "\x19TRON Signed Message:\n32"

// compatByte trails the message in the digest TRON wallets sign.
const compatByte = 0x04

// Hash returns the digest a TRON wallet signs for message.
func Hash(message []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(Prefix))
	h.Write(message)
	h.Write([]byte{compatByte})
	return h.Sum(nil)
}

// Verify checks a 65-byte r‖s‖recid signature. args is the 20-byte
// account id: the last 20 bytes of keccak256 over the uncompressed key.
func Verify(message, signature, args []byte) bool {
	if len(message) != 32 || len(args) != 20 {
		return false
	}
	compact, ok := recovery.ToCompact(signature, false)
	if !ok {
		return false
	}
	pub, _, err := ecdsa.RecoverCompact(compact, Hash(message))
	if err != nil {
		return false
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(pub.SerializeUncompressed()[1:])
	return bytes.Equal(h.Sum(nil)[12:], args)
}
