package ckb_test

import (
	"testing"

	"github.com/blockberries/dasguard/modules/ckb"
	dasguardtest "github.com/blockberries/dasguard/testing"
)

var msg = []byte("0123456789abcdef0123456789abcdef")

func TestVerify(t *testing.T) {
	s := dasguardtest.NewCKBSigner(1)
	sig := s.Sign(msg)
	if !ckb.Verify(msg, sig, s.Args()) {
		t.Fatal("expected valid signature to verify")
	}

	other := dasguardtest.NewCKBSigner(2)
	if ckb.Verify(msg, sig, other.Args()) {
		t.Fatal("expected args of another key to be rejected")
	}

	tampered := append([]byte(nil), msg...)
	tampered[0] ^= 1
	if ckb.Verify(tampered, sig, s.Args()) {
		t.Fatal("expected tampered message to be rejected")
	}

	bad := append([]byte(nil), sig...)
	bad[64] = 7
	if ckb.Verify(msg, bad, s.Args()) {
		t.Fatal("expected invalid recovery id to be rejected")
	}
	if ckb.Verify(msg, sig[:64], s.Args()) {
		t.Fatal("expected short signature to be rejected")
	}
}
