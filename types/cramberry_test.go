package types_test

import (
	"bytes"
	"testing"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/blockberries/dasguard/types"
)

// roundTrip marshals v, unmarshals into a new T, and returns it.
func roundTrip[T any](t *testing.T, v T) T {
	t.Helper()
	data, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var out T
	if err := cramberry.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return out
}

func sampleTx() types.Tx {
	acct := types.TypeHash{0xAC}
	return types.Tx{
		Message:   types.Hash{0x01, 0x02},
		LockArgs:  bytes.Repeat([]byte{0x03}, types.LockArgsSize),
		Signature: bytes.Repeat([]byte{0x04}, 65),
		SignRole:  types.RoleManager,
		Inputs: []types.Cell{
			{TypeHash: &acct, Capacity: 20_000_000_000, Data: []byte("account")},
			{Capacity: 1},
		},
		Outputs:   []types.Cell{{TypeHash: &acct}},
		CellDeps:  []types.Cell{{Data: []byte{0xFF}}},
		Witnesses: [][]byte{[]byte("lock"), []byte("das....")},
		Timestamp: 1_700_000_000,
	}
}

func TestTx_RoundTrip(t *testing.T) {
	tx := sampleTx()
	got := roundTrip(t, tx)
	if diff := cmp.Diff(tx, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("Tx round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestVerdict_RoundTrip(t *testing.T) {
	for _, v := range []types.Verdict{
		types.Accept("eth_sign", "0xabc"),
		types.Reject(types.CategoryPolicy, "sealed"),
	} {
		if got := roundTrip(t, v); got != v {
			t.Fatalf("Verdict round-trip failed: got %+v, want %+v", got, v)
		}
	}
}

func TestAccountCellData_RoundTrip(t *testing.T) {
	a := types.AccountCellData{
		ID:           [20]byte{0x09},
		Account:      "alice.bit",
		RegisteredAt: 1,
		Records:      []types.Record{{Type: "address", Key: "60", Value: "0x01", TTL: 300}},
		Approval: types.AccountApproval{
			Action: types.ApprovalActionTransfer,
			Params: cramberryBytes(t, types.AccountApprovalTransfer{ProtectedUntil: 10, SealedUntil: 20, DelayCountRemain: 1}),
		},
	}
	got := roundTrip(t, a)
	if diff := cmp.Diff(a, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("AccountCellData round-trip mismatch (-want +got):\n%s", diff)
	}
	if !got.HasApproval() {
		t.Fatal("expected approval")
	}
}

func cramberryBytes(t *testing.T, v any) []byte {
	t.Helper()
	data, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestDeterminism(t *testing.T) {
	tx := sampleTx()
	data1, err := cramberry.Marshal(tx)
	if err != nil {
		t.Fatal(err)
	}
	data2, err := cramberry.Marshal(tx)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data1, data2) {
		t.Fatal("non-deterministic encoding")
	}
}
