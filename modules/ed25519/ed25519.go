// Package ed25519 verifies Ed25519 signatures. The signature field is
// the 64-byte signature followed by the 32-byte public key; the lock
// args are the blake160 of the key.
package ed25519

import (
	"bytes"
	"crypto/ed25519"

	"github.com/blockberries/dasguard/internal/ckbhash"
)

// Name is the module's manifest name.
const Name = "ed25519_sign"

// FieldSize is the length of the signature field.
const FieldSize = ed25519.SignatureSize + ed25519.PublicKeySize

// Verify checks sig‖pubkey over message.
func Verify(message, signature, args []byte) bool {
	if len(args) != 20 || len(signature) != FieldSize {
		return false
	}
	sig, pub := signature[:ed25519.SignatureSize], signature[ed25519.SignatureSize:]
	if h := ckbhash.Blake160(pub); !bytes.Equal(h[:], args) {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig)
}
