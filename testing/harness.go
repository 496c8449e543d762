package dasguardtest

import (
	"context"
	"testing"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/server"
	"github.com/blockberries/dasguard/types"
)

// Harness provides a convenient test harness for validators. It runs
// every transaction through a server.Server so halt semantics apply.
type Harness struct {
	t   *testing.T
	srv *server.Server
}

// NewHarness creates a test harness wrapping the given validator.
func NewHarness(t *testing.T, v dasguard.Validator, opts ...server.Option) *Harness {
	t.Helper()
	return &Harness{t: t, srv: server.New(v, opts...)}
}

// Server returns the underlying server for direct access.
func (h *Harness) Server() *server.Server {
	return h.srv
}

// Validate validates tx and fails the test on any error.
func (h *Harness) Validate(tx types.Tx) types.Verdict {
	h.t.Helper()
	v, err := h.srv.Validate(context.Background(), tx)
	if err != nil {
		h.t.Fatalf("Validate failed: %v", err)
	}
	return v
}

// MustAccept asserts that a transaction is accepted.
func (h *Harness) MustAccept(tx types.Tx) types.Verdict {
	h.t.Helper()
	v := h.Validate(tx)
	if !v.Accepted() {
		h.t.Fatalf("expected tx accepted, got code=%d category=%s info=%q", v.Code, v.Category, v.Info)
	}
	return v
}

// MustReject asserts that a transaction is rejected with category c.
func (h *Harness) MustReject(tx types.Tx, c types.Category) types.Verdict {
	h.t.Helper()
	v := h.Validate(tx)
	if v.Accepted() {
		h.t.Fatalf("expected tx rejected with %s, got accepted", c)
	}
	if v.Category != c {
		h.t.Fatalf("expected category %s, got %s (info=%q)", c, v.Category, v.Info)
	}
	if v.Code != c.Code() {
		h.t.Fatalf("expected code %d, got %d", c.Code(), v.Code)
	}
	return v
}

// MustHalt asserts that a transaction trips an integrity violation.
func (h *Harness) MustHalt(tx types.Tx) *dasguard.IntegrityError {
	h.t.Helper()
	v, err := h.srv.Validate(context.Background(), tx)
	ie, ok := dasguard.IsIntegrity(err)
	if !ok {
		h.t.Fatalf("expected integrity violation, got verdict=%+v err=%v", v, err)
	}
	if v.Category != types.CategoryIntegrity {
		h.t.Fatalf("expected integrity verdict, got %s", v.Category)
	}
	return ie
}
