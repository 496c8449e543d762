package registry

import (
	"fmt"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/types"
)

// Entry is one module of the manifest: its name, the selector that
// routes to it, the digest pinned at build time and the embedded
// binary. Entries are read-only once the manifest is built.
type Entry struct {
	Name     string
	Selector types.Selector
	Digest   Digest
	Binary   []byte
}

// Verify recomputes the digest over the embedded binary and compares
// it to the pinned value.
func (e Entry) Verify() error {
	got := Sum(e.Binary)
	if got != e.Digest {
		return dasguard.NewIntegrityError(e.Name, e.Digest, got)
	}
	return nil
}

// Info returns the public view of the entry.
func (e Entry) Info() types.ModuleInfo {
	return types.ModuleInfo{Name: e.Name, Selector: e.Selector, Digest: types.Hash(e.Digest)}
}

// NewEntry pins binary with its digest. Build output and tests use it;
// the runtime never computes a pinned digest itself.
func NewEntry(name string, sel types.Selector, binary []byte) Entry {
	return Entry{Name: name, Selector: sel, Digest: Sum(binary), Binary: binary}
}

// Manifest is the closed set of modules a validator may dispatch to.
// It is immutable after construction and safe for concurrent use.
type Manifest struct {
	entries    []Entry
	bySelector map[types.Selector]int
	byName     map[string]int
}

// NewManifest builds a manifest. Names and selectors must be unique.
func NewManifest(entries ...Entry) (*Manifest, error) {
	m := &Manifest{
		entries:    make([]Entry, 0, len(entries)),
		bySelector: make(map[types.Selector]int, len(entries)),
		byName:     make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("registry: entry with selector %s has no name", e.Selector)
		}
		if _, dup := m.byName[e.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate module name %q", e.Name)
		}
		if prev, dup := m.bySelector[e.Selector]; dup {
			return nil, fmt.Errorf("registry: selector %s claimed by both %q and %q",
				e.Selector, m.entries[prev].Name, e.Name)
		}
		m.bySelector[e.Selector] = len(m.entries)
		m.byName[e.Name] = len(m.entries)
		m.entries = append(m.entries, e)
	}
	return m, nil
}

// MustManifest is like NewManifest but panics on error. Generated code
// uses it for its package-level manifest.
func MustManifest(entries ...Entry) *Manifest {
	m, err := NewManifest(entries...)
	if err != nil {
		panic(err)
	}
	return m
}

// Lookup returns the entry registered for sel.
func (m *Manifest) Lookup(sel types.Selector) (Entry, bool) {
	i, ok := m.bySelector[sel]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// ByName returns the entry with the given module name.
func (m *Manifest) ByName(name string) (Entry, bool) {
	i, ok := m.byName[name]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Len returns the number of modules.
func (m *Manifest) Len() int { return len(m.entries) }

// Entries returns the entries in build order. The slice is a copy;
// binaries are shared and must not be modified.
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Info returns the public view of every entry in build order.
func (m *Manifest) Info() []types.ModuleInfo {
	out := make([]types.ModuleInfo, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Info()
	}
	return out
}

// VerifyAll checks every entry's digest. It stops at the first
// violation.
func (m *Manifest) VerifyAll() error {
	for _, e := range m.entries {
		if err := e.Verify(); err != nil {
			return err
		}
	}
	return nil
}
