// Package eth verifies Ethereum personal-sign signatures.
package eth

import (
	"bytes"

	"github.com/ethereum/go-ethereum/crypto"
)

// Name is the module's manifest name.
const Name = "eth_sign"

// Prefix is the personal-sign prefix for a 32-byte message.
const Prefix = "\x19Ethereum Signed Message:\n32"

// Hash returns the personal-sign digest of message.
func Hash(message []byte) []byte {
	return crypto.Keccak256([]byte(Prefix), message)
}

// Verify checks a 65-byte r‖s‖v signature over the personal-sign
// digest of message. v may be 0/1 or 27/28. args is the 20-byte
// Ethereum address.
func Verify(message, signature, args []byte) bool {
	if len(message) != 32 || len(args) != 20 || len(signature) != crypto.SignatureLength {
		return false
	}
	sig := append([]byte(nil), signature...)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return false
	}
	pub, err := crypto.SigToPub(Hash(message), sig)
	if err != nil {
		return false
	}
	addr := crypto.PubkeyToAddress(*pub)
	return bytes.Equal(addr[:], args)
}
