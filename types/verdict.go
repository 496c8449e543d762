package types

import "fmt"

// Category classifies why a transaction was rejected.
type Category uint8

const (
	CategoryNone Category = iota
	// CategoryDecode: witness bytes are structurally invalid or a
	// required entity is absent or mis-typed.
	CategoryDecode
	// CategoryResolution: a script identifier has no type hash in
	// this transaction.
	CategoryResolution
	// CategoryLocator: zero or several cells match a required role.
	CategoryLocator
	// CategoryUnsupportedAlgorithm: no registered module for the selector.
	CategoryUnsupportedAlgorithm
	// CategoryIntegrity: a module digest does not match its pinned
	// value. Fatal.
	CategoryIntegrity
	// CategorySignature: the module rejected the signature.
	CategorySignature
	// CategoryPolicy: an approval rule rejected the action.
	CategoryPolicy
	// CategoryAborted: the run was cancelled or timed out before a
	// decision. It says nothing about the transaction.
	CategoryAborted
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryDecode:
		return "decode"
	case CategoryResolution:
		return "resolution"
	case CategoryLocator:
		return "locator"
	case CategoryUnsupportedAlgorithm:
		return "unsupported-algorithm"
	case CategoryIntegrity:
		return "integrity-violation"
	case CategorySignature:
		return "signature"
	case CategoryPolicy:
		return "policy"
	case CategoryAborted:
		return "aborted"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Code is the exit code reported to the host VM. Zero means accept.
func (c Category) Code() uint32 {
	if c == CategoryNone {
		return 0
	}
	return 100 + uint32(c)
}

// Verdict is the terminal outcome of one validation run.
type Verdict struct {
	// 0 = accepted. Non-zero = rejected, see Category.
	Code     uint32   `cramberry:"1"`
	Category Category `cramberry:"2"`
	// Rejection reason (diagnostics only).
	Info string `cramberry:"3"`
	// Sender is the chain-formatted signer, when known.
	Sender string `cramberry:"4"`
	// Module is the name of the module that verified the signature.
	Module string `cramberry:"5"`
}

// Accepted returns true if the transaction was accepted.
func (v Verdict) Accepted() bool { return v.Code == 0 }

// Accept builds an accepting verdict.
func Accept(module, sender string) Verdict {
	return Verdict{Module: module, Sender: sender}
}

// Reject builds a rejecting verdict for the given category.
func Reject(c Category, info string) Verdict {
	if c == CategoryNone {
		c = CategoryDecode
	}
	return Verdict{Code: c.Code(), Category: c, Info: info}
}
