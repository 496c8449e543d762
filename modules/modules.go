// Package modules collects the signing modules statically linked into
// the host, keyed by the selector that routes to each.
package modules

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/modules/ckb"
	"github.com/blockberries/dasguard/modules/ckbmulti"
	"github.com/blockberries/dasguard/modules/doge"
	"github.com/blockberries/dasguard/modules/ed25519"
	"github.com/blockberries/dasguard/modules/eth"
	"github.com/blockberries/dasguard/modules/tron"
	"github.com/blockberries/dasguard/types"
)

// Module is one statically linked signing module.
type Module struct {
	Name     string
	Selector types.Selector
	Verifier dasguard.Verifier
}

var all = []Module{
	{eth.Name, types.AlgETH, dasguard.VerifierFunc(eth.Verify)},
	{ckb.Name, types.AlgCKB, dasguard.VerifierFunc(ckb.Verify)},
	{tron.Name, types.AlgTRON, dasguard.VerifierFunc(tron.Verify)},
	{ed25519.Name, types.AlgEd25519, dasguard.VerifierFunc(ed25519.Verify)},
	{ckbmulti.Name, types.AlgCKBMulti, dasguard.VerifierFunc(ckbmulti.Verify)},
	{doge.Name, types.AlgDOGE, dasguard.VerifierFunc(doge.Verify)},
}

// All returns every module in build order.
func All() []Module {
	out := make([]Module, len(all))
	copy(out, all)
	return out
}

// Native returns the verifiers keyed by selector.
func Native() map[types.Selector]dasguard.Verifier {
	m := make(map[types.Selector]dasguard.Verifier, len(all))
	for _, mod := range all {
		m[mod.Selector] = mod.Verifier
	}
	return m
}

// Address version bytes for Base58Check chains.
const (
	tronVersion = 0x41
	dogeVersion = 0x1e
)

// Address formats lock args the way the signer's chain displays them.
func Address(sel types.Selector, args []byte) (string, error) {
	if len(args) != types.ArgsSize {
		return "", fmt.Errorf("modules: %s args must be %d bytes, got %d", sel, types.ArgsSize, len(args))
	}
	switch sel {
	case types.AlgETH, types.AlgCKB, types.AlgCKBMulti, types.AlgEd25519:
		return "0x" + hex.EncodeToString(args), nil
	case types.AlgTRON:
		return base58.CheckEncode(args, tronVersion), nil
	case types.AlgDOGE:
		return base58.CheckEncode(args, dogeVersion), nil
	default:
		return "", fmt.Errorf("modules: no address format for %s", sel)
	}
}
