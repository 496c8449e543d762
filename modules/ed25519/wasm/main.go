//go:build wasip1

// Command wasm is the sandboxed build of the ed25519 signing module.
package main

import (
	"github.com/blockberries/dasguard/modules/ed25519"
	"github.com/blockberries/dasguard/modules/internal/wasmentry"
)

func main() { wasmentry.Run(ed25519.Verify) }
