// Package wasmentry is the shared main of every signing module
// compiled for the sandbox. The invocation arrives cramberry-encoded
// on stdin and the verdict leaves as the exit code.
package wasmentry

import (
	"io"
	"os"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/dasguard/types"
)

// Exit codes. Anything but ExitAccept rejects.
const (
	ExitAccept    = 0
	ExitReject    = 1
	ExitBadInput  = 2
	maxInputBytes = 64 * 1024
)

// VerifyFunc is a module's pure verification function.
type VerifyFunc func(message, signature, pubkeyMaterial []byte) bool

// Main reads one invocation from r and returns the exit code.
func Main(r io.Reader, verify VerifyFunc) int {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil || len(data) > maxInputBytes {
		return ExitBadInput
	}
	var inv types.Invocation
	if err := cramberry.Unmarshal(data, &inv); err != nil {
		return ExitBadInput
	}
	if !verify(inv.Message, inv.Signature, inv.PubkeyMaterial) {
		return ExitReject
	}
	return ExitAccept
}

// Run is Main over stdin followed by os.Exit.
func Run(verify VerifyFunc) {
	os.Exit(Main(os.Stdin, verify))
}
