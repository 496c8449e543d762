package dasguardtest

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/dasguard/types"
	"github.com/blockberries/dasguard/witness"
)

// AccountType is the account cell type hash fixtures use.
var AccountType = types.TypeHash{0xAC, 0xC0, 0x07}

// DefaultMessage is the signing digest fixtures use.
var DefaultMessage = types.Hash{0x5e, 0x11, 0xd0, 0x0d}

// TxBuilder assembles signed transactions around one account cell.
type TxBuilder struct {
	owner, manager Signer
	role           types.SignRole
	message        types.Hash
	timestamp      uint64
	action         string
	account        *types.AccountCellData
	accountCells   int
	extraInputs    []types.Cell
	extraWitnesses [][]byte
	noConfig       bool
}

// NewTxBuilder starts a transaction owned and managed by owner.
func NewTxBuilder(owner Signer) *TxBuilder {
	return &TxBuilder{
		owner:        owner,
		manager:      owner,
		message:      DefaultMessage,
		accountCells: 1,
		account:      &types.AccountCellData{Account: "alice.bit"},
	}
}

// Manager sets the manager signer.
func (b *TxBuilder) Manager(s Signer) *TxBuilder { b.manager = s; return b }

// Role sets which part of the lock args signs.
func (b *TxBuilder) Role(r types.SignRole) *TxBuilder { b.role = r; return b }

// Message sets the signing digest.
func (b *TxBuilder) Message(h types.Hash) *TxBuilder { b.message = h; return b }

// Timestamp sets the block time.
func (b *TxBuilder) Timestamp(ts uint64) *TxBuilder { b.timestamp = ts; return b }

// Action adds an ActionData witness.
func (b *TxBuilder) Action(name string) *TxBuilder { b.action = name; return b }

// Account replaces the account cell's entity.
func (b *TxBuilder) Account(a types.AccountCellData) *TxBuilder { b.account = &a; return b }

// AccountCells sets how many inputs carry the account type. Only the
// first gets an entity witness.
func (b *TxBuilder) AccountCells(n int) *TxBuilder { b.accountCells = n; return b }

// Input adds an unrelated input before the account cells.
func (b *TxBuilder) Input(c types.Cell) *TxBuilder { b.extraInputs = append(b.extraInputs, c); return b }

// Witness appends a raw witness.
func (b *TxBuilder) Witness(raw []byte) *TxBuilder {
	b.extraWitnesses = append(b.extraWitnesses, raw)
	return b
}

// WithoutConfig omits the ConfigCellMain witness.
func (b *TxBuilder) WithoutConfig() *TxBuilder { b.noConfig = true; return b }

// Approve attaches a transfer approval to the account.
func (b *TxBuilder) Approve(t types.AccountApprovalTransfer) *TxBuilder {
	a := *b.account
	a.Approval = types.AccountApproval{
		Action: types.ApprovalActionTransfer,
		Params: MustMarshal(t),
	}
	b.account = &a
	return b
}

// LockArgs returns the encoded owner and manager lock args.
func (b *TxBuilder) LockArgs() []byte {
	var la types.LockArgs
	la.Owner.Selector = b.owner.Selector()
	copy(la.Owner.Args[:], b.owner.Args())
	la.Manager.Selector = b.manager.Selector()
	copy(la.Manager.Args[:], b.manager.Args())
	return la.Bytes()
}

// Build signs and returns the transaction.
func (b *TxBuilder) Build() types.Tx {
	signer := b.owner
	if b.role == types.RoleManager {
		signer = b.manager
	}
	tx := types.Tx{
		Message:   b.message,
		LockArgs:  b.LockArgs(),
		Signature: signer.Sign(b.message[:]),
		SignRole:  b.role,
		Timestamp: b.timestamp,
	}

	tx.Inputs = append(tx.Inputs, b.extraInputs...)
	accountIndex := len(tx.Inputs)
	for i := 0; i < b.accountCells; i++ {
		h := AccountType
		tx.Inputs = append(tx.Inputs, types.Cell{TypeHash: &h, Capacity: 200_0000_0000})
	}

	if b.action != "" {
		tx.Witnesses = append(tx.Witnesses, MustEntity(types.DataActionData, types.ActionData{Action: b.action}))
	}
	if !b.noConfig {
		tx.Witnesses = append(tx.Witnesses, MustEntity(types.DataConfigCellMain, types.ConfigCellMain{
			TypeIDTable: types.TypeIDTable{AccountCell: AccountType},
		}))
	}
	if b.accountCells > 0 && b.account != nil {
		raw, err := witness.EncodeCellEntity(types.DataAccountCellData, types.RoleInput, uint32(accountIndex), *b.account)
		if err != nil {
			panic(fmt.Sprintf("dasguardtest: %v", err))
		}
		tx.Witnesses = append(tx.Witnesses, raw)
	}
	tx.Witnesses = append(tx.Witnesses, b.extraWitnesses...)
	return tx
}

// MustEntity frames v as a witness of type dt.
func MustEntity(dt types.DataType, v any) []byte {
	raw, err := witness.EncodeEntity(dt, v)
	if err != nil {
		panic(fmt.Sprintf("dasguardtest: %v", err))
	}
	return raw
}

// MustMarshal cramberry-encodes v.
func MustMarshal(v any) []byte {
	data, err := cramberry.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("dasguardtest: %v", err))
	}
	return data
}
