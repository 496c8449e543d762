package ed25519_test

import (
	"testing"

	"github.com/blockberries/dasguard/modules/ed25519"
	dasguardtest "github.com/blockberries/dasguard/testing"
)

var msg = []byte("0123456789abcdef0123456789abcdef")

func TestVerify(t *testing.T) {
	s := dasguardtest.NewEd25519Signer(5)
	field := s.Sign(msg)
	if len(field) != ed25519.FieldSize {
		t.Fatalf("field is %d bytes, want %d", len(field), ed25519.FieldSize)
	}
	if !ed25519.Verify(msg, field, s.Args()) {
		t.Fatal("expected valid signature to verify")
	}

	// Swap in another key: the signature no longer matches and neither
	// does the args hash.
	other := dasguardtest.NewEd25519Signer(6)
	mixed := append(append([]byte(nil), field[:64]...), other.Sign(msg)[64:]...)
	if ed25519.Verify(msg, mixed, other.Args()) {
		t.Fatal("expected signature under another key to be rejected")
	}
	if ed25519.Verify(msg, field, other.Args()) {
		t.Fatal("expected args mismatch to be rejected")
	}
}
