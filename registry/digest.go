// Package registry holds the integrity-pinned module registry: the
// personalized digest every module is pinned with, the immutable
// manifest the dispatcher consults, and the build-time step that
// compiles, hashes and embeds each module.
package registry

import (
	"encoding/hex"
	"hash"
	"io"

	"github.com/blockberries/dasguard/internal/ckbhash"
)

// Personalization domain-separates module digests from any other
// BLAKE2b use. It is the chain's default hash personalization.
const Personalization = ckbhash.Personalization

// DigestSize is the length of a module digest in bytes.
const DigestSize = ckbhash.Size

// readBufSize is the chunk size used when hashing artifacts.
const readBufSize = 8 * 1024

// Digest is a 256-bit personalized BLAKE2b digest.
type Digest [DigestSize]byte

// String returns the lowercase hex form.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// NewHasher returns a BLAKE2b-256 hash personalized with
// Personalization.
func NewHasher() hash.Hash { return ckbhash.New() }

// Sum digests data.
func Sum(data []byte) Digest { return Digest(ckbhash.Sum(data)) }

// SumReader digests everything read from r.
func SumReader(r io.Reader) (Digest, error) {
	h := NewHasher()
	buf := make([]byte, readBufSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return Digest{}, err
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// Blake160 is the first 20 bytes of the personalized digest. Locks use
// it to commit to a public key or script.
func Blake160(data []byte) [20]byte { return ckbhash.Blake160(data) }
