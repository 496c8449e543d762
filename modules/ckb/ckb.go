// Package ckb verifies the chain's native secp256k1 lock: a
// recoverable signature over the message whose compressed public key
// hashes to the lock args.
package ckb

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/blockberries/dasguard/internal/ckbhash"
	"github.com/blockberries/dasguard/internal/recovery"
)

// Name is the module's manifest name.
const Name = "ckb_sign"

// Verify checks a 65-byte r‖s‖recid signature over a 32-byte message
// against the 20-byte blake160 of the signer's compressed key.
func Verify(message, signature, args []byte) bool {
	if len(message) != 32 || len(args) != 20 {
		return false
	}
	pub, ok := Recover(message, signature)
	if !ok {
		return false
	}
	h := ckbhash.Blake160(pub)
	return bytes.Equal(h[:], args)
}

// Recover returns the compressed public key that produced signature.
func Recover(message, signature []byte) ([]byte, bool) {
	compact, ok := recovery.ToCompact(signature, true)
	if !ok {
		return nil, false
	}
	pub, _, err := ecdsa.RecoverCompact(compact, message)
	if err != nil {
		return nil, false
	}
	return pub.SerializeCompressed(), true
}
