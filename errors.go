package dasguard

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/blockberries/dasguard/types"
)

// Sentinel errors, one per leaf of the rejection taxonomy. They are
// always returned wrapped in a *RejectError carrying their category.
var (
	ErrMalformedWitness     = errors.New("malformed witness")
	ErrEntityAbsent         = errors.New("witness entity absent")
	ErrEntityMismatch       = errors.New("witness entity has unexpected data type")
	ErrMalformedLockArgs    = errors.New("malformed lock args")
	ErrTypeIDNotFound       = errors.New("type id not found")
	ErrCellAbsent           = errors.New("cell absent")
	ErrCellAmbiguous        = errors.New("cell ambiguous")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrApprovalRejected     = errors.New("rejected by approval")
)

// RejectError is a rejection with a category. It wraps the sentinel
// (or underlying error) that caused it.
type RejectError struct {
	Category types.Category
	Reason   string
	Err      error
}

func (e *RejectError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Category, e.Reason)
	case e.Reason == "":
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Reason, e.Err)
	}
}

func (e *RejectError) Unwrap() error { return e.Err }

// Reject creates a RejectError. err may be nil.
func Reject(c types.Category, err error, format string, args ...any) *RejectError {
	return &RejectError{Category: c, Reason: fmt.Sprintf(format, args...), Err: err}
}

// CategoryOf returns the category carried by err. Errors without one
// report CategoryDecode; nil reports CategoryNone.
func CategoryOf(err error) types.Category {
	if err == nil {
		return types.CategoryNone
	}
	if _, ok := IsIntegrity(err); ok {
		return types.CategoryIntegrity
	}
	if IsAborted(err) {
		return types.CategoryAborted
	}
	var r *RejectError
	if errors.As(err, &r) {
		return r.Category
	}
	return types.CategoryDecode
}

// VerdictOf converts a rejection into its terminal verdict.
func VerdictOf(err error) types.Verdict {
	if err == nil {
		return types.Verdict{}
	}
	return types.Reject(CategoryOf(err), err.Error())
}

// IsAborted reports whether err stems from a cancelled or expired
// context rather than from the transaction.
func IsAborted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IntegrityError signals that an embedded module binary no longer
// hashes to its pinned digest. This is unreachable in a correct build.
//
// When a caller receives an IntegrityError it must stop processing,
// report the build as compromised and never fall back to another
// module.
type IntegrityError struct {
	Module string
	Want   [32]byte
	Got    [32]byte
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("INTEGRITY VIOLATION in module %s: pinned %s, computed %s",
		e.Module, hex.EncodeToString(e.Want[:]), hex.EncodeToString(e.Got[:]))
}

// NewIntegrityError creates a new IntegrityError.
func NewIntegrityError(module string, want, got [32]byte) *IntegrityError {
	return &IntegrityError{Module: module, Want: want, Got: got}
}

// IsIntegrity checks whether an error is an IntegrityError and returns it.
func IsIntegrity(err error) (*IntegrityError, bool) {
	var ie *IntegrityError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
