package types

import "fmt"

// ScriptIdentifier names a well-known on-chain script role. Each one
// resolves to exactly one TypeHash per transaction.
type ScriptIdentifier uint8

const (
	ScriptAccountCell ScriptIdentifier = iota + 1
	ScriptApplyRegisterCell
	ScriptBalanceCell
	ScriptIncomeCell
	ScriptPreAccountCell
	ScriptProposalCell
	ScriptAccountSaleCell
	ScriptOfferCell
	ScriptReverseRecordCell
	ScriptSubAccountCell
	ScriptEIP712Lib
	ScriptReverseRecordRootCell
	ScriptDPointCell
)

func (s ScriptIdentifier) String() string {
	switch s {
	case ScriptAccountCell:
		return "AccountCellType"
	case ScriptApplyRegisterCell:
		return "ApplyRegisterCellType"
	case ScriptBalanceCell:
		return "BalanceCellType"
	case ScriptIncomeCell:
		return "IncomeCellType"
	case ScriptPreAccountCell:
		return "PreAccountCellType"
	case ScriptProposalCell:
		return "ProposalCellType"
	case ScriptAccountSaleCell:
		return "AccountSaleCellType"
	case ScriptOfferCell:
		return "OfferCellType"
	case ScriptReverseRecordCell:
		return "ReverseRecordCellType"
	case ScriptSubAccountCell:
		return "SubAccountCellType"
	case ScriptEIP712Lib:
		return "EIP712Lib"
	case ScriptReverseRecordRootCell:
		return "ReverseRecordRootCellType"
	case ScriptDPointCell:
		return "DPointCellType"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// DataType tags every structured witness.
type DataType uint32

const (
	DataActionData        DataType = 0
	DataAccountCellData   DataType = 1
	DataAccountSaleCell   DataType = 2
	DataAccountAuction    DataType = 3
	DataProposalCellData  DataType = 4
	DataPreAccountCell    DataType = 5
	DataIncomeCellData    DataType = 6
	DataOfferCellData     DataType = 7
	DataSubAccount        DataType = 8
	DataReverseRecordRoot DataType = 10
	DataDPointCellData    DataType = 11
	DataConfigCellMain    DataType = 104
)

func (d DataType) String() string {
	switch d {
	case DataActionData:
		return "ActionData"
	case DataAccountCellData:
		return "AccountCellData"
	case DataAccountSaleCell:
		return "AccountSaleCellData"
	case DataAccountAuction:
		return "AccountAuctionCellData"
	case DataProposalCellData:
		return "ProposalCellData"
	case DataPreAccountCell:
		return "PreAccountCellData"
	case DataIncomeCellData:
		return "IncomeCellData"
	case DataOfferCellData:
		return "OfferCellData"
	case DataSubAccount:
		return "SubAccount"
	case DataReverseRecordRoot:
		return "ReverseRecordRootCellData"
	case DataDPointCellData:
		return "DPointCellData"
	case DataConfigCellMain:
		return "ConfigCellMain"
	default:
		return fmt.Sprintf("DataType(%d)", uint32(d))
	}
}

// IsCellData reports whether witnesses of this type carry a
// DataEntityGroup bound to cell positions.
func (d DataType) IsCellData() bool {
	switch d {
	case DataAccountCellData, DataAccountSaleCell, DataAccountAuction,
		DataProposalCellData, DataPreAccountCell, DataIncomeCellData,
		DataOfferCellData, DataSubAccount, DataReverseRecordRoot, DataDPointCellData:
		return true
	}
	return false
}

// ActionData names the action a transaction performs.
type ActionData struct {
	Action string `cramberry:"1"`
	Params []byte `cramberry:"2"`
}

// DataEntity binds an encoded entity to the cell at Index.
type DataEntity struct {
	Index   uint32 `cramberry:"1"`
	Version uint32 `cramberry:"2"`
	Entity  []byte `cramberry:"3"`
}

// DataEntityGroup is the body of a cell-data witness. Old refers to an
// input, New to an output and Dep to a cell dep.
type DataEntityGroup struct {
	Old *DataEntity `cramberry:"1"`
	New *DataEntity `cramberry:"2"`
	Dep *DataEntity `cramberry:"3"`
}

// LockScript is a script reference embedded in entity data.
type LockScript struct {
	CodeHash Hash   `cramberry:"1"`
	HashType uint8  `cramberry:"2"`
	Args     []byte `cramberry:"3"`
}

// Record is one account record.
type Record struct {
	Type  string `cramberry:"1"`
	Key   string `cramberry:"2"`
	Label string `cramberry:"3"`
	Value string `cramberry:"4"`
	TTL   uint32 `cramberry:"5"`
}

// ApprovalActionTransfer is the only approval action defined so far.
const ApprovalActionTransfer = "transfer"

// AccountApproval is a pending approval attached to an account. An
// empty Action means no approval is present.
type AccountApproval struct {
	Action string `cramberry:"1"`
	Params []byte `cramberry:"2"`
}

// AccountApprovalTransfer are the params of a "transfer" approval.
type AccountApprovalTransfer struct {
	PlatformLock     LockScript `cramberry:"1"`
	ProtectedUntil   uint64     `cramberry:"2"`
	SealedUntil      uint64     `cramberry:"3"`
	DelayCountRemain uint8      `cramberry:"4"`
	ToLock           LockScript `cramberry:"5"`
}

// AccountCellData is the witness entity of an account registry cell.
type AccountCellData struct {
	ID                   [20]byte        `cramberry:"1"`
	Account              string          `cramberry:"2"`
	RegisteredAt         uint64          `cramberry:"3"`
	LastTransferAt       uint64          `cramberry:"4"`
	Status               uint8           `cramberry:"5"`
	Records              []Record        `cramberry:"6"`
	EnableSubAccount     uint8           `cramberry:"7"`
	RenewSubAccountPrice uint64          `cramberry:"8"`
	Approval             AccountApproval `cramberry:"9"`
}

// HasApproval reports whether a pending approval is attached.
func (a *AccountCellData) HasApproval() bool { return a.Approval.Action != "" }

// TypeIDTable maps every script role to its type hash for the
// current deployment.
type TypeIDTable struct {
	AccountCell           TypeHash `cramberry:"1"`
	ApplyRegisterCell     TypeHash `cramberry:"2"`
	BalanceCell           TypeHash `cramberry:"3"`
	IncomeCell            TypeHash `cramberry:"4"`
	PreAccountCell        TypeHash `cramberry:"5"`
	ProposalCell          TypeHash `cramberry:"6"`
	AccountSaleCell       TypeHash `cramberry:"7"`
	OfferCell             TypeHash `cramberry:"8"`
	ReverseRecordCell     TypeHash `cramberry:"9"`
	SubAccountCell        TypeHash `cramberry:"10"`
	EIP712Lib             TypeHash `cramberry:"11"`
	ReverseRecordRootCell TypeHash `cramberry:"12"`
	DPointCell            TypeHash `cramberry:"13"`
}

// Lookup returns the hash registered for id. The second result is
// false for unknown identifiers and unset (zero) entries.
func (t *TypeIDTable) Lookup(id ScriptIdentifier) (TypeHash, bool) {
	var h TypeHash
	switch id {
	case ScriptAccountCell:
		h = t.AccountCell
	case ScriptApplyRegisterCell:
		h = t.ApplyRegisterCell
	case ScriptBalanceCell:
		h = t.BalanceCell
	case ScriptIncomeCell:
		h = t.IncomeCell
	case ScriptPreAccountCell:
		h = t.PreAccountCell
	case ScriptProposalCell:
		h = t.ProposalCell
	case ScriptAccountSaleCell:
		h = t.AccountSaleCell
	case ScriptOfferCell:
		h = t.OfferCell
	case ScriptReverseRecordCell:
		h = t.ReverseRecordCell
	case ScriptSubAccountCell:
		h = t.SubAccountCell
	case ScriptEIP712Lib:
		h = t.EIP712Lib
	case ScriptReverseRecordRootCell:
		h = t.ReverseRecordRootCell
	case ScriptDPointCell:
		h = t.DPointCell
	default:
		return TypeHash{}, false
	}
	return h, !h.IsZero()
}

// ConfigCellMain carries the deployment's type-id table.
type ConfigCellMain struct {
	Status      uint8       `cramberry:"1"`
	TypeIDTable TypeIDTable `cramberry:"2"`
}
