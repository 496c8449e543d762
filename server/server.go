// Package server wraps a validator with run logging, metrics and the
// halt-on-integrity rule. Hosts talk to a validator exclusively
// through this server.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/registry"
	"github.com/blockberries/dasguard/types"
)

// ErrHalted is returned by every call after an integrity violation.
var ErrHalted = errors.New("dasguard: server halted after integrity violation")

// manifester is implemented by validators that route over a manifest.
type manifester interface {
	Manifest() *registry.Manifest
}

// Server wraps a validator. It is safe for concurrent use.
//
// The first IntegrityError returned by the validator halts the server
// permanently: every later call is rejected without reaching the
// validator.
type Server struct {
	validator dasguard.Validator
	manifest  *registry.Manifest
	logger    *zap.Logger
	metrics   *Metrics

	halt atomic.Pointer[dasguard.IntegrityError]
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.logger = l } }

// WithMetrics records verdicts and latencies.
func WithMetrics(m *Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithManifest sets the manifest reported by Manifest. Validators that
// expose their own manifest need not set it.
func WithManifest(m *registry.Manifest) Option { return func(s *Server) { s.manifest = m } }

// New creates a Server wrapping v.
func New(v dasguard.Validator, opts ...Option) *Server {
	s := &Server{validator: v, logger: zap.NewNop()}
	if m, ok := v.(manifester); ok {
		s.manifest = m.Manifest()
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Validate runs one validation. After a halt it returns the integrity
// verdict together with an error wrapping ErrHalted and the original
// violation. An aborted run is passed through with its error and never
// halts the server.
func (s *Server) Validate(ctx context.Context, tx types.Tx) (types.Verdict, error) {
	if ie := s.halt.Load(); ie != nil {
		return types.Reject(types.CategoryIntegrity, ErrHalted.Error()), fmt.Errorf("%w: %w", ErrHalted, ie)
	}

	runID := uuid.New()
	logger := s.logger.With(zap.Stringer("run_id", runID))
	start := time.Now()

	v, err := s.validator.Validate(ctx, tx)
	if err != nil && dasguard.IsAborted(err) {
		if v.Accepted() {
			v = dasguard.VerdictOf(err)
		}
		s.metrics.observe(v, start)
		logger.Warn("validation aborted", zap.Error(err))
		return v, err
	}
	if err != nil {
		ie, ok := dasguard.IsIntegrity(err)
		if !ok {
			// Anything else a validator surfaces is folded into a rejection.
			logger.Warn("validator returned a non-integrity error", zap.Error(err))
			v = dasguard.VerdictOf(err)
			s.metrics.observe(v, start)
			return v, nil
		}
		if s.halt.CompareAndSwap(nil, ie) {
			s.metrics.halt()
		}
		s.metrics.observe(v, start)
		logger.Error("integrity violation, halting",
			zap.String("module", ie.Module),
			zap.Error(ie))
		return v, err
	}

	s.metrics.observe(v, start)
	if v.Accepted() {
		logger.Info("transaction accepted",
			zap.String("module", v.Module),
			zap.String("sender", v.Sender),
			zap.Duration("elapsed", time.Since(start)))
	} else {
		logger.Info("transaction rejected",
			zap.Stringer("category", v.Category),
			zap.Uint32("code", v.Code),
			zap.String("info", v.Info),
			zap.Duration("elapsed", time.Since(start)))
	}
	return v, nil
}

// Manifest lists the modules the validator can dispatch to.
func (s *Server) Manifest(_ context.Context) ([]types.ModuleInfo, error) {
	if ie := s.halt.Load(); ie != nil {
		return nil, fmt.Errorf("%w: %w", ErrHalted, ie)
	}
	if s.manifest == nil {
		return nil, nil
	}
	return s.manifest.Info(), nil
}

// Halted returns the violation that halted the server, if any.
func (s *Server) Halted() (*dasguard.IntegrityError, bool) {
	ie := s.halt.Load()
	return ie, ie != nil
}

// Close is a no-op for the server wrapper.
func (s *Server) Close() error { return nil }
