//go:build wasip1

// Command wasm is the sandboxed build of the ckb signing module.
package main

import (
	"github.com/blockberries/dasguard/modules/ckb"
	"github.com/blockberries/dasguard/modules/internal/wasmentry"
)

func main() { wasmentry.Run(ckb.Verify) }
