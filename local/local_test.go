package local_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/blockberries/dasguard/dispatch"
	"github.com/blockberries/dasguard/local"
	"github.com/blockberries/dasguard/server"
	dasguardtest "github.com/blockberries/dasguard/testing"
	"github.com/blockberries/dasguard/types"
)

func TestLocalConnection_FullCycle(t *testing.T) {
	m := dasguardtest.NativeManifest()
	conn := local.NewConnection(dispatch.New(m))
	defer conn.Close()
	ctx := context.Background()

	mods, err := conn.Manifest(ctx)
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if len(mods) != m.Len() {
		t.Fatalf("expected %d modules, got %d", m.Len(), len(mods))
	}

	v, err := conn.Validate(ctx, dasguardtest.NewTxBuilder(dasguardtest.NewTRONSigner(2)).Build())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !v.Accepted() {
		t.Fatalf("expected accept, got %s: %s", v.Category, v.Info)
	}
	if v.Module != "tron_sign" {
		t.Errorf("expected module tron_sign, got %s", v.Module)
	}
}

func TestLocalConnection_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := server.NewMetrics(reg)
	conn := local.NewConnection(dispatch.New(dasguardtest.NativeManifest()), server.WithMetrics(metrics))

	ctx := context.Background()
	good := dasguardtest.NewTxBuilder(dasguardtest.NewCKBSigner(1)).Build()
	bad := dasguardtest.NewTxBuilder(dasguardtest.NewCKBSigner(1)).AccountCells(0).Build()
	for _, tx := range []types.Tx{good, bad, bad} {
		if _, err := conn.Validate(ctx, tx); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	}

	expected := `
# HELP dasguard_verdicts_total Total number of validation verdicts by category.
# TYPE dasguard_verdicts_total counter
dasguard_verdicts_total{category="locator"} 2
dasguard_verdicts_total{category="none"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "dasguard_verdicts_total"); err != nil {
		t.Error(err)
	}
}

func TestLocalConnection_Halt(t *testing.T) {
	conn := local.NewConnection(dispatch.New(dasguardtest.TamperedManifest("doge_sign")))
	ctx := context.Background()

	_, err := conn.Validate(ctx, dasguardtest.NewTxBuilder(dasguardtest.NewDOGESigner(1)).Build())
	if err == nil {
		t.Fatal("expected integrity error")
	}
	ie, halted := conn.Server().Halted()
	if !halted || ie.Module != "doge_sign" {
		t.Fatalf("expected halt on doge_sign, got %v", ie)
	}

	_, err = conn.Validate(ctx, dasguardtest.NewTxBuilder(dasguardtest.NewCKBSigner(1)).Build())
	if !errors.Is(err, server.ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", err)
	}
}
