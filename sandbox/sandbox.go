// Package sandbox runs embedded signing modules under wazero.
//
// Every invocation gets a fresh module instance with deny-by-default
// WASI. There is no filesystem or environment, and the clock and random
// source are wazero's deterministic fakes.
// The invocation is written cramberry-encoded to stdin and the
// module's exit code is the verdict.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/blockberries/dasguard/registry"
	"github.com/blockberries/dasguard/types"
)

const (
	// DefaultMemoryLimitPages caps linear memory at 64 MiB.
	DefaultMemoryLimitPages = 1024

	stderrLimit = 4 * 1024
)

// Engine executes manifest entries in a shared wazero runtime.
// Compiled modules are cached by digest. It is safe for concurrent use.
type Engine struct {
	runtime wazero.Runtime
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.RWMutex
	compiled map[registry.Digest]wazero.CompiledModule
	group    singleflight.Group
}

type config struct {
	memoryPages uint32
	timeout     time.Duration
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*config)

// WithMemoryLimitPages caps each instance's linear memory in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option { return func(c *config) { c.memoryPages = pages } }

// WithTimeout bounds each invocation by wall-clock time. By default
// there is no bound; the caller's context alone ends a run. A run cut
// short surfaces as a context error, never as a verdict.
func WithTimeout(d time.Duration) Option { return func(c *config) { c.timeout = d } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *config) { c.logger = l } }

// New creates an engine. Close releases it.
func New(ctx context.Context, opts ...Option) *Engine {
	cfg := config{memoryPages: DefaultMemoryLimitPages, logger: zap.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}
	rc := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(cfg.memoryPages).
		WithCloseOnContextDone(true)
	r := wazero.NewRuntimeWithConfig(ctx, rc)
	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	return &Engine{
		runtime:  r,
		timeout:  cfg.timeout,
		logger:   cfg.logger,
		compiled: make(map[registry.Digest]wazero.CompiledModule),
	}
}

// Invoke runs the entry's binary on inv. It reports true when the
// module exits 0 and false on any other exit code. Traps, timeouts and
// compilation failures are errors.
//
// The caller must have verified the entry's digest; the compile cache
// trusts it.
func (e *Engine) Invoke(ctx context.Context, entry registry.Entry, inv types.Invocation) (bool, error) {
	input, err := cramberry.Marshal(inv)
	if err != nil {
		return false, fmt.Errorf("sandbox: encode invocation: %w", err)
	}
	compiled, err := e.compile(ctx, entry)
	if err != nil {
		return false, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs(entry.Name).
		WithStdin(bytes.NewReader(input)).
		WithStderr(&limitedWriter{buf: &stderr, n: stderrLimit})

	start := time.Now()
	mod, err := e.runtime.InstantiateModule(ctx, compiled, modCfg)
	if mod != nil {
		defer mod.Close(ctx)
	}
	code, err := exitCode(err)
	e.logger.Debug("module invoked",
		zap.String("module", entry.Name),
		zap.Uint32("exit_code", code),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("stderr", stderr.String()),
		zap.Error(err))
	if err != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("sandbox: %s: %w", entry.Name, ctx.Err())
		}
		return false, fmt.Errorf("sandbox: %s: %w", entry.Name, err)
	}
	return code == 0, nil
}

// exitCode separates a module's exit status from execution failures.
func exitCode(err error) (uint32, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case sys.ExitCodeContextCanceled, sys.ExitCodeDeadlineExceeded:
			return exitErr.ExitCode(), err
		}
		return exitErr.ExitCode(), nil
	}
	return 0, err
}

func (e *Engine) compile(ctx context.Context, entry registry.Entry) (wazero.CompiledModule, error) {
	e.mu.RLock()
	c, ok := e.compiled[entry.Digest]
	e.mu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := e.group.Do(entry.Digest.String(), func() (any, error) {
		e.mu.RLock()
		c, ok := e.compiled[entry.Digest]
		e.mu.RUnlock()
		if ok {
			return c, nil
		}
		c, err := e.runtime.CompileModule(ctx, entry.Binary)
		if err != nil {
			return nil, fmt.Errorf("sandbox: compile %s: %w", entry.Name, err)
		}
		e.mu.Lock()
		e.compiled[entry.Digest] = c
		e.mu.Unlock()
		e.logger.Debug("module compiled", zap.String("module", entry.Name), zap.Stringer("digest", entry.Digest))
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(wazero.CompiledModule), nil
}

// Compiled returns the number of cached compiled modules.
func (e *Engine) Compiled() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// Close releases the runtime and every compiled module.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// limitedWriter keeps at most n bytes and discards the rest.
type limitedWriter struct {
	buf *bytes.Buffer
	n   int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if room := w.n - w.buf.Len(); room > 0 {
		if len(p) > room {
			w.buf.Write(p[:room])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}
