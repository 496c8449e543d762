//go:build wasip1

// Command wasm is the sandboxed build of the ckbmulti signing module.
package main

import (
	"github.com/blockberries/dasguard/modules/ckbmulti"
	"github.com/blockberries/dasguard/modules/internal/wasmentry"
)

func main() { wasmentry.Run(ckbmulti.Verify) }
