package types

import "fmt"

// Selector identifies the signature algorithm a lock expects. The
// values are the algorithm ids carried in lock args on chain.
type Selector uint8

const (
	AlgCKB      Selector = 0
	AlgCKBMulti Selector = 1
	AlgETH      Selector = 3
	AlgTRON     Selector = 4
	AlgEd25519  Selector = 6
	AlgDOGE     Selector = 7
)

func (s Selector) String() string {
	switch s {
	case AlgCKB:
		return "ckb"
	case AlgCKBMulti:
		return "ckb_multi"
	case AlgETH:
		return "eth"
	case AlgTRON:
		return "tron"
	case AlgEd25519:
		return "ed25519"
	case AlgDOGE:
		return "doge"
	default:
		return fmt.Sprintf("alg(%d)", uint8(s))
	}
}

// SignRole selects which half of the lock args must sign.
type SignRole uint8

const (
	RoleOwner   SignRole = 0
	RoleManager SignRole = 1
)

func (r SignRole) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleManager:
		return "manager"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// ArgsSize is the length of the pubkey material in each lock args part.
const ArgsSize = 20

// LockArgsSize is the full length of owner and manager parts.
const LockArgsSize = 2 * (1 + ArgsSize)

// LockPart is one half of the lock args.
type LockPart struct {
	Selector Selector
	Args     [ArgsSize]byte
}

// LockArgs is the decoded account lock args:
//
//	[1]owner_algorithm [20]owner_args [1]manager_algorithm [20]manager_args
type LockArgs struct {
	Owner   LockPart
	Manager LockPart
}

// ParseLockArgs decodes raw lock args. The length must be exact.
func ParseLockArgs(b []byte) (LockArgs, error) {
	if len(b) != LockArgsSize {
		return LockArgs{}, fmt.Errorf("lock args: expected %d bytes, got %d", LockArgsSize, len(b))
	}
	var la LockArgs
	la.Owner.Selector = Selector(b[0])
	copy(la.Owner.Args[:], b[1:1+ArgsSize])
	la.Manager.Selector = Selector(b[1+ArgsSize])
	copy(la.Manager.Args[:], b[2+ArgsSize:])
	return la, nil
}

// Bytes encodes the lock args.
func (la LockArgs) Bytes() []byte {
	out := make([]byte, 0, LockArgsSize)
	out = append(out, byte(la.Owner.Selector))
	out = append(out, la.Owner.Args[:]...)
	out = append(out, byte(la.Manager.Selector))
	out = append(out, la.Manager.Args[:]...)
	return out
}

// Part returns the selector and pubkey material for the given role.
func (la LockArgs) Part(role SignRole) (Selector, []byte, error) {
	switch role {
	case RoleOwner:
		return la.Owner.Selector, append([]byte(nil), la.Owner.Args[:]...), nil
	case RoleManager:
		return la.Manager.Selector, append([]byte(nil), la.Manager.Args[:]...), nil
	default:
		return 0, nil, fmt.Errorf("lock args: unknown sign role %s", role)
	}
}
