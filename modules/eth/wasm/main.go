//go:build wasip1

// Command wasm is the sandboxed build of the eth signing module.
package main

import (
	"github.com/blockberries/dasguard/modules/eth"
	"github.com/blockberries/dasguard/modules/internal/wasmentry"
)

func main() { wasmentry.Run(eth.Verify) }
