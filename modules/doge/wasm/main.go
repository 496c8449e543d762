//go:build wasip1

// Command wasm is the sandboxed build of the doge signing module.
package main

import (
	"github.com/blockberries/dasguard/modules/doge"
	"github.com/blockberries/dasguard/modules/internal/wasmentry"
)

func main() { wasmentry.Run(doge.Verify) }
