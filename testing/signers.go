package dasguardtest

import (
	"crypto/ecdsa"
	"crypto/ed25519"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"

	"github.com/blockberries/dasguard/internal/ckbhash"
	"github.com/blockberries/dasguard/internal/recovery"
	"github.com/blockberries/dasguard/modules/ckbmulti"
	"github.com/blockberries/dasguard/modules/doge"
	"github.com/blockberries/dasguard/modules/eth"
	"github.com/blockberries/dasguard/modules/tron"
	"github.com/blockberries/dasguard/types"
)

// Signer produces signatures a signing module accepts. Keys are
// derived deterministically from a seed so fixtures are stable.
type Signer interface {
	Selector() types.Selector
	// Args is the 20-byte pubkey material placed in the lock args.
	Args() []byte
	// Sign signs a 32-byte message in the module's wire format.
	Sign(message []byte) []byte
}

func seedKey(label string, seed byte) []byte {
	k := ckbhash.Sum([]byte("dasguardtest/"+label), []byte{seed})
	return k[:]
}

// CKBSigner signs for the native secp256k1 lock.
type CKBSigner struct{ priv *btcec.PrivateKey }

// NewCKBSigner derives a key from seed.
func NewCKBSigner(seed byte) *CKBSigner {
	priv, _ := btcec.PrivKeyFromBytes(seedKey("ckb", seed))
	return &CKBSigner{priv: priv}
}

func (s *CKBSigner) Selector() types.Selector { return types.AlgCKB }

func (s *CKBSigner) Args() []byte {
	h := ckbhash.Blake160(s.priv.PubKey().SerializeCompressed())
	return h[:]
}

func (s *CKBSigner) Sign(message []byte) []byte {
	sig, _ := recovery.FromCompact(btcecdsa.SignCompact(s.priv, message, true))
	return sig
}

// MultiSigner signs for the m-of-n multisig lock.
type MultiSigner struct {
	Members       []*CKBSigner
	RequireFirstN uint8
	Threshold     uint8
	// SignWith lists the member indices that sign, in order. Empty
	// means the first Threshold members.
	SignWith []int
}

// NewMultiSigner creates an n-member multisig with member seeds
// seed, seed+1, ...
func NewMultiSigner(seed byte, n int, requireFirstN, threshold uint8) *MultiSigner {
	m := &MultiSigner{RequireFirstN: requireFirstN, Threshold: threshold}
	for i := 0; i < n; i++ {
		m.Members = append(m.Members, NewCKBSigner(seed+byte(i)))
	}
	return m
}

func (m *MultiSigner) Selector() types.Selector { return types.AlgCKBMulti }

// Script returns the multisig script.
func (m *MultiSigner) Script() ckbmulti.Script {
	s := ckbmulti.Script{RequireFirstN: m.RequireFirstN, Threshold: m.Threshold}
	for _, mem := range m.Members {
		var h [20]byte
		copy(h[:], mem.Args())
		s.Members = append(s.Members, h)
	}
	return s
}

func (m *MultiSigner) Args() []byte {
	h := ckbhash.Blake160(m.Script().Bytes())
	return h[:]
}

func (m *MultiSigner) Sign(message []byte) []byte {
	out := m.Script().Bytes()
	signers := m.SignWith
	if len(signers) == 0 {
		for i := 0; i < int(m.Threshold); i++ {
			signers = append(signers, i)
		}
	}
	for _, i := range signers {
		out = append(out, m.Members[i].Sign(message)...)
	}
	return out
}

// ETHSigner signs Ethereum personal messages.
type ETHSigner struct{ key *ecdsa.PrivateKey }

// NewETHSigner derives a key from seed.
func NewETHSigner(seed byte) *ETHSigner {
	key, err := crypto.ToECDSA(seedKey("eth", seed))
	if err != nil {
		panic(err)
	}
	return &ETHSigner{key: key}
}

func (s *ETHSigner) Selector() types.Selector { return types.AlgETH }

func (s *ETHSigner) Args() []byte { return crypto.PubkeyToAddress(s.key.PublicKey).Bytes() }

func (s *ETHSigner) Sign(message []byte) []byte {
	sig, err := crypto.Sign(eth.Hash(message), s.key)
	if err != nil {
		panic(err)
	}
	return sig
}

// TRONSigner signs TRON messages.
type TRONSigner struct{ priv *secp256k1.PrivateKey }

// NewTRONSigner derives a key from seed.
func NewTRONSigner(seed byte) *TRONSigner {
	return &TRONSigner{priv: secp256k1.PrivKeyFromBytes(seedKey("tron", seed))}
}

func (s *TRONSigner) Selector() types.Selector { return types.AlgTRON }

func (s *TRONSigner) Args() []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(s.priv.PubKey().SerializeUncompressed()[1:])
	return h.Sum(nil)[12:]
}

func (s *TRONSigner) Sign(message []byte) []byte {
	sig, _ := recovery.FromCompact(dcrecdsa.SignCompact(s.priv, tron.Hash(message), false))
	return sig
}

// Ed25519Signer signs with Ed25519.
type Ed25519Signer struct{ priv ed25519.PrivateKey }

// NewEd25519Signer derives a key from seed.
func NewEd25519Signer(seed byte) *Ed25519Signer {
	return &Ed25519Signer{priv: ed25519.NewKeyFromSeed(seedKey("ed25519", seed))}
}

func (s *Ed25519Signer) Selector() types.Selector { return types.AlgEd25519 }

func (s *Ed25519Signer) pub() []byte { return s.priv.Public().(ed25519.PublicKey) }

func (s *Ed25519Signer) Args() []byte {
	h := ckbhash.Blake160(s.pub())
	return h[:]
}

func (s *Ed25519Signer) Sign(message []byte) []byte {
	return append(ed25519.Sign(s.priv, message), s.pub()...)
}

// DOGESigner signs Dogecoin messages with a compressed key.
type DOGESigner struct{ priv *btcec.PrivateKey }

// NewDOGESigner derives a key from seed.
func NewDOGESigner(seed byte) *DOGESigner {
	priv, _ := btcec.PrivKeyFromBytes(seedKey("doge", seed))
	return &DOGESigner{priv: priv}
}

func (s *DOGESigner) Selector() types.Selector { return types.AlgDOGE }

func (s *DOGESigner) Args() []byte { return doge.Hash160(s.priv.PubKey().SerializeCompressed()) }

func (s *DOGESigner) Sign(message []byte) []byte {
	return btcecdsa.SignCompact(s.priv, doge.Hash(message), true)
}

// AllSigners returns one signer per supported selector.
func AllSigners(seed byte) []Signer {
	return []Signer{
		NewETHSigner(seed),
		NewCKBSigner(seed),
		NewTRONSigner(seed),
		NewEd25519Signer(seed),
		NewMultiSigner(seed, 3, 1, 2),
		NewDOGESigner(seed),
	}
}
