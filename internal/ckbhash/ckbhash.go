// Package ckbhash is the chain's default hash: BLAKE2b-256 personalized
// with "ckb-default-hash". It has no dependencies beyond the hash
// itself so signing modules compiled to wasm can share it.
package ckbhash

import (
	"hash"

	blake2b "github.com/minio/blake2b-simd"
)

// Personalization is the BLAKE2b personalization string.
const Personalization = "ckb-default-hash"

// Size is the digest length in bytes.
const Size = 32

// New returns a fresh personalized hasher.
func New() hash.Hash {
	h, err := blake2b.New(&blake2b.Config{
		Size:   Size,
		Person: []byte(Personalization),
	})
	if err != nil {
		// The config is constant and valid.
		panic("ckbhash: blake2b config: " + err.Error())
	}
	return h
}

// Sum hashes the concatenation of parts.
func Sum(parts ...[]byte) [Size]byte {
	h := New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Blake160 is the first 20 bytes of Sum. Locks commit to public keys
// and scripts with it.
func Blake160(data []byte) [20]byte {
	d := Sum(data)
	var out [20]byte
	copy(out[:], d[:20])
	return out
}
