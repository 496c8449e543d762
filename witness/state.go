package witness

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// parseState is a state of the parser's one-shot initialization.
type parseState uint32

const (
	// stateUninitialized: no caller has asked for an entity yet.
	stateUninitialized parseState = iota
	// stateInitializing: the single parse pass is running.
	stateInitializing
	// stateReady: the parse succeeded; lookups are served from cache.
	stateReady
	// stateFailed: the parse failed. The error is memoized and the
	// witnesses are never parsed again.
	stateFailed
)

func (s parseState) String() string {
	switch s {
	case stateUninitialized:
		return "Uninitialized"
	case stateInitializing:
		return "Initializing"
	case stateReady:
		return "Ready"
	case stateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// initGuard enforces that parsing happens exactly once. Queries read
// the atomic state without locking; the mutex serializes the parse.
type initGuard struct {
	state atomic.Uint32
	mu    sync.Mutex
}

func (g *initGuard) load() parseState { return parseState(g.state.Load()) }

// settled reports whether the parse has finished, either way.
func (g *initGuard) settled() bool {
	s := g.load()
	return s == stateReady || s == stateFailed
}

// begin transitions Uninitialized → Initializing. The caller must
// hold mu. Panics on any other state.
func (g *initGuard) begin() {
	if !g.state.CompareAndSwap(uint32(stateUninitialized), uint32(stateInitializing)) {
		panic(fmt.Sprintf("witness: parse started in state %s (expected Uninitialized)", g.load()))
	}
}

// complete transitions Initializing → Ready.
func (g *initGuard) complete() { g.state.Store(uint32(stateReady)) }

// fail transitions Initializing → Failed.
func (g *initGuard) fail() { g.state.Store(uint32(stateFailed)) }
