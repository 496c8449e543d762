// Package dispatch is the validation entry point: it routes a
// transaction's signature to the integrity-checked module its lock
// args select, then checks the account cell it unlocks.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/locator"
	"github.com/blockberries/dasguard/registry"
	"github.com/blockberries/dasguard/typeid"
	"github.com/blockberries/dasguard/types"
	"github.com/blockberries/dasguard/witness"
)

// AddressFormatter renders the signer's lock args for Verdict.Sender.
type AddressFormatter func(sel types.Selector, args []byte) (string, error)

// Dispatcher implements dasguard.Validator over a manifest. It holds
// no per-transaction state; every Validate call builds its own witness
// parser.
type Dispatcher struct {
	manifest *registry.Manifest
	engine   Engine
	policy   dasguard.ApprovalPolicy
	decoder  witness.Decoder
	address  AddressFormatter
	logger   *zap.Logger
}

var _ dasguard.Validator = (*Dispatcher)(nil)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEngine sets the module engine. The default is a NativeEngine.
func WithEngine(e Engine) Option { return func(d *Dispatcher) { d.engine = e } }

// WithPolicy sets the approval policy. The default is
// DefaultApprovalPolicy.
func WithPolicy(p dasguard.ApprovalPolicy) Option { return func(d *Dispatcher) { d.policy = p } }

// WithDecoder sets the witness decoder.
func WithDecoder(dec witness.Decoder) Option { return func(d *Dispatcher) { d.decoder = dec } }

// WithAddressFormatter fills Verdict.Sender on acceptance.
func WithAddressFormatter(f AddressFormatter) Option { return func(d *Dispatcher) { d.address = f } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// New creates a dispatcher over m.
func New(m *registry.Manifest, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		manifest: m,
		policy:   DefaultApprovalPolicy{},
		decoder:  witness.FrameDecoder{},
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(d)
	}
	if d.engine == nil {
		d.engine = NewNativeEngine(nil)
	}
	return d
}

// Manifest returns the manifest the dispatcher routes over.
func (d *Dispatcher) Manifest() *registry.Manifest { return d.manifest }

// Validate evaluates tx. A non-nil error is either a
// *dasguard.IntegrityError, returned with the integrity verdict, or a
// context error from the engine, returned with an aborted verdict.
func (d *Dispatcher) Validate(ctx context.Context, tx types.Tx) (types.Verdict, error) {
	la, err := types.ParseLockArgs(tx.LockArgs)
	if err != nil {
		return d.reject(dasguard.Reject(types.CategoryDecode, dasguard.ErrMalformedLockArgs, "%v", err))
	}
	sel, args, err := la.Part(tx.SignRole)
	if err != nil {
		return d.reject(dasguard.Reject(types.CategoryDecode, dasguard.ErrMalformedLockArgs, "%v", err))
	}

	entry, ok := d.manifest.Lookup(sel)
	if !ok {
		return d.reject(dasguard.Reject(types.CategoryUnsupportedAlgorithm, dasguard.ErrUnsupportedAlgorithm,
			"selector %s (%d) for %s", sel, uint8(sel), tx.SignRole))
	}
	if err := entry.Verify(); err != nil {
		d.logger.Error("module integrity violation", zap.String("module", entry.Name), zap.Error(err))
		return types.Reject(types.CategoryIntegrity, err.Error()), err
	}

	inv := types.Invocation{Message: tx.Message[:], Signature: tx.Signature, PubkeyMaterial: args}
	valid, err := d.engine.Invoke(ctx, entry, inv)
	if err != nil && dasguard.IsAborted(err) {
		d.logger.Warn("module run aborted", zap.String("module", entry.Name), zap.Error(err))
		return types.Reject(types.CategoryAborted, err.Error()), fmt.Errorf("dispatch: %s: %w", entry.Name, err)
	}
	if err != nil {
		return d.reject(dasguard.Reject(types.CategorySignature, errors.Join(dasguard.ErrInvalidSignature, err),
			"module %s failed", entry.Name))
	}
	if !valid {
		return d.reject(dasguard.Reject(types.CategorySignature, dasguard.ErrInvalidSignature, "module %s", entry.Name))
	}
	d.logger.Debug("signature verified", zap.String("module", entry.Name), zap.Stringer("role", tx.SignRole))

	if err := d.checkAccount(ctx, &tx); err != nil {
		return d.reject(err)
	}

	var sender string
	if d.address != nil {
		if sender, err = d.address(sel, args); err != nil {
			d.logger.Debug("sender not formatted", zap.Error(err))
		}
	}
	return types.Accept(entry.Name, sender), nil
}

// checkAccount locates the account cell being unlocked and applies the
// approval policy when a transfer approval is pending on it.
func (d *Dispatcher) checkAccount(ctx context.Context, tx *types.Tx) error {
	p := witness.NewParser(tx.Witnesses, witness.WithDecoder(d.decoder), witness.WithLogger(d.logger))

	accountType, err := typeid.New(p, d.logger).AccountCell()
	if err != nil {
		return err
	}
	idx, err := locator.FindUniqueCell(tx, accountType, types.RoleInput)
	if err != nil {
		return err
	}
	meta := witness.CellMeta{Role: types.RoleInput, Index: uint32(idx)}
	account, err := witness.Entity[types.AccountCellData](p, meta, types.DataAccountCellData)
	if err != nil {
		return err
	}
	d.logger.Debug("account cell located", zap.Stringer("cell", meta), zap.String("account", account.Account))

	if !account.HasApproval() {
		return nil
	}
	if account.Approval.Action != types.ApprovalActionTransfer {
		return dasguard.Reject(types.CategoryPolicy, dasguard.ErrApprovalRejected,
			"unknown approval action %q on %s", account.Approval.Action, account.Account)
	}
	var transfer types.AccountApprovalTransfer
	if err := d.decoder.DecodeBody(account.Approval.Params, &transfer); err != nil {
		return dasguard.Reject(types.CategoryDecode, errors.Join(dasguard.ErrMalformedWitness, err),
			"transfer approval on %s", account.Account)
	}

	var action string
	if a, err := p.Action(); err == nil {
		action = a.Action
	}
	err = d.policy.CheckApproval(ctx, dasguard.ApprovalContext{
		Action:    action,
		Role:      tx.SignRole,
		Timestamp: tx.Timestamp,
		Approval:  transfer,
	})
	if err == nil {
		return nil
	}
	var re *dasguard.RejectError
	if errors.As(err, &re) {
		return err
	}
	return dasguard.Reject(types.CategoryPolicy, errors.Join(dasguard.ErrApprovalRejected, err), "%s", account.Account)
}

func (d *Dispatcher) reject(err error) (types.Verdict, error) {
	v := dasguard.VerdictOf(err)
	d.logger.Debug("transaction rejected", zap.Stringer("category", v.Category), zap.Error(err))
	return v, nil
}
