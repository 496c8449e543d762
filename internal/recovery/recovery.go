// Package recovery converts the chain's r‖s‖recid signature layout
// into the header-first compact form secp256k1 libraries recover from.
package recovery

// SigSize is r, s and the recovery id.
const SigSize = 65

// compactBase is the header of a compact signature with recovery id 0
// for an uncompressed key.
const compactBase = 27

// ToCompact returns the compact form of sig, or false if sig is not a
// 65-byte r‖s‖recid signature with recid below 4. compressed selects
// the key encoding flag in the header.
func ToCompact(sig []byte, compressed bool) ([]byte, bool) {
	if len(sig) != SigSize || sig[64] >= 4 {
		return nil, false
	}
	out := make([]byte, SigSize)
	out[0] = compactBase + sig[64]
	if compressed {
		out[0] += 4
	}
	copy(out[1:], sig[:64])
	return out, true
}

// FromCompact is the inverse of ToCompact.
func FromCompact(compact []byte) ([]byte, bool) {
	if len(compact) != SigSize || compact[0] < compactBase || compact[0] > compactBase+7 {
		return nil, false
	}
	out := make([]byte, SigSize)
	copy(out, compact[1:])
	out[64] = (compact[0] - compactBase) & 3
	return out, true
}
