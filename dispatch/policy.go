package dispatch

import (
	"context"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/types"
)

// Actions permitted on an account with a pending transfer approval.
const (
	ActionRevokeApproval  = "revoke_approval"
	ActionFulfillApproval = "fulfill_approval"
	ActionDelayApproval   = "delay_approval"
)

// PolicyFunc adapts a function to dasguard.ApprovalPolicy.
type PolicyFunc func(ctx context.Context, actx dasguard.ApprovalContext) error

func (f PolicyFunc) CheckApproval(ctx context.Context, actx dasguard.ApprovalContext) error {
	return f(ctx, actx)
}

// DefaultApprovalPolicy locks an account while a transfer approval is
// pending. Only the approval's own lifecycle actions pass, each inside
// its window.
type DefaultApprovalPolicy struct{}

var _ dasguard.ApprovalPolicy = DefaultApprovalPolicy{}

func (DefaultApprovalPolicy) CheckApproval(_ context.Context, actx dasguard.ApprovalContext) error {
	a := actx.Approval
	switch actx.Action {
	case ActionRevokeApproval:
		if actx.Timestamp < a.ProtectedUntil {
			return dasguard.Reject(types.CategoryPolicy, dasguard.ErrApprovalRejected,
				"revoke before protected_until %d (now %d)", a.ProtectedUntil, actx.Timestamp)
		}
	case ActionFulfillApproval:
		if actx.Timestamp < a.SealedUntil {
			return dasguard.Reject(types.CategoryPolicy, dasguard.ErrApprovalRejected,
				"fulfill before sealed_until %d (now %d)", a.SealedUntil, actx.Timestamp)
		}
	case ActionDelayApproval:
		if a.DelayCountRemain == 0 {
			return dasguard.Reject(types.CategoryPolicy, dasguard.ErrApprovalRejected, "no delays remaining")
		}
	default:
		return dasguard.Reject(types.CategoryPolicy, dasguard.ErrApprovalRejected,
			"account is locked by a transfer approval, action %q not allowed", actx.Action)
	}
	return nil
}
