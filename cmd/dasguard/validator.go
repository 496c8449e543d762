package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/blockberries/dasguard/contracts"
	"github.com/blockberries/dasguard/dispatch"
	"github.com/blockberries/dasguard/modules"
	"github.com/blockberries/dasguard/registry"
	"github.com/blockberries/dasguard/sandbox"
)

type engineKind string

const (
	engineNative  engineKind = "native"
	engineSandbox engineKind = "sandbox"
)

func parseEngine(s string) (engineKind, error) {
	switch engineKind(s) {
	case engineNative, engineSandbox:
		return engineKind(s), nil
	default:
		return "", fmt.Errorf("unknown engine %q (want native or sandbox)", s)
	}
}

// newDispatcher builds a dispatcher over m with the selected engine.
// The returned close func releases the sandbox runtime.
func newDispatcher(ctx context.Context, kind engineKind, m *registry.Manifest, logger *zap.Logger, sbOpts ...sandbox.Option) (*dispatch.Dispatcher, func(), error) {
	var (
		engine dispatch.Engine
		closer = func() {}
	)
	switch kind {
	case engineNative:
		engine = dispatch.NewNativeEngine(nil)
	case engineSandbox:
		sb := sandbox.New(ctx, append([]sandbox.Option{sandbox.WithLogger(logger.Named("sandbox"))}, sbOpts...)...)
		engine = sb
		closer = func() {
			if err := sb.Close(context.Background()); err != nil {
				logger.Warn("closing sandbox", zap.Error(err))
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown engine %q", kind)
	}

	if m.Len() == 0 {
		logger.Warn("no signing modules embedded; build with -tags contracts")
	}
	d := dispatch.New(m,
		dispatch.WithEngine(engine),
		dispatch.WithAddressFormatter(modules.Address),
		dispatch.WithLogger(logger.Named("dispatch")))
	return d, closer, nil
}

func (a *app) dispatcher(ctx context.Context, sbOpts ...sandbox.Option) (*dispatch.Dispatcher, func(), error) {
	kind, err := parseEngine(a.flags.engine)
	if err != nil {
		return nil, nil, err
	}
	return newDispatcher(ctx, kind, contracts.Manifest(), a.logger, sbOpts...)
}
