//go:build wasip1

// Command wasm is the sandboxed build of the tron signing module.
package main

import (
	"github.com/blockberries/dasguard/modules/tron"
	"github.com/blockberries/dasguard/modules/internal/wasmentry"
)

func main() { wasmentry.Run(tron.Verify) }
