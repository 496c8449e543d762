// Package doge verifies Dogecoin signed-message signatures over the
// hex form of the message.
package doge

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // hash160 is part of the address format.
)

// Name is the module's manifest name.
const Name = "doge_sign"

// Prefix is the length-prefixed magic of a Dogecoin signed message.
const Prefix = "\x19Dogecoin Signed Message:\n"

// Hash returns the double SHA-256 a Dogecoin wallet signs for message.
// The wallet signs the lowercase hex of the 32-byte message.
func Hash(message []byte) []byte {
	text := hex.EncodeToString(message)
	var buf bytes.Buffer
	buf.WriteString(Prefix)
	buf.WriteByte(byte(len(text)))
	buf.WriteString(text)
	first := sha256.Sum256(buf.Bytes())
	second := sha256.Sum256(first[:])
	return second[:]
}

// Hash160 is RIPEMD-160 over SHA-256.
func Hash160(b []byte) []byte {
	s := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(s[:])
	return r.Sum(nil)
}

// Verify checks a 65-byte compact signature (header first). args is
// the hash160 of the signing key, serialized as the header says.
func Verify(message, signature, args []byte) bool {
	if len(message) != 32 || len(args) != 20 || len(signature) != 65 {
		return false
	}
	pub, compressed, err := ecdsa.RecoverCompact(signature, Hash(message))
	if err != nil {
		return false
	}
	key := pub.SerializeUncompressed()
	if compressed {
		key = pub.SerializeCompressed()
	}
	return bytes.Equal(Hash160(key), args)
}
