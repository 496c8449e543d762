// Package local provides a zero-copy, in-process validator connection.
//
// For hosts compiled into the same binary as the validator, this
// adapter wraps it with run logging, metrics and the
// halt-on-integrity rule with no serialization overhead.
package local

import (
	"context"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/server"
	"github.com/blockberries/dasguard/types"
)

var _ dasguard.Connection = (*Connection)(nil)

// Connection wraps a local validator.
type Connection struct {
	srv *server.Server
}

// NewConnection creates an in-process connection wrapping v.
func NewConnection(v dasguard.Validator, opts ...server.Option) *Connection {
	return &Connection{srv: server.New(v, opts...)}
}

func (c *Connection) Validate(ctx context.Context, tx types.Tx) (types.Verdict, error) {
	return c.srv.Validate(ctx, tx)
}

func (c *Connection) Manifest(ctx context.Context) ([]types.ModuleInfo, error) {
	return c.srv.Manifest(ctx)
}

func (c *Connection) Close() error {
	return c.srv.Close()
}

// Server returns the underlying server for advanced use.
func (c *Connection) Server() *server.Server {
	return c.srv
}
