package witness

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/blockberries/dasguard"
	"github.com/blockberries/dasguard/types"
)

// CellMeta addresses one cell of the transaction.
type CellMeta struct {
	Role  types.CellRole
	Index uint32
}

func (m CellMeta) String() string { return fmt.Sprintf("%s[%d]", m.Role, m.Index) }

type slot struct {
	dataType types.DataType
	entity   *types.DataEntity
}

// entityKey includes the Go type so decoding one slot as two types
// keeps both pointers stable.
type entityKey struct {
	meta     CellMeta
	dataType types.DataType
	goType   reflect.Type
}

// Parser caches the entities carried by one transaction's witnesses.
// It is created per validation run and must not be shared between
// runs. All methods are safe for concurrent use.
//
// The witnesses are parsed at most once, on the first call to Init
// (directly or through any lookup). The outcome of that parse, success
// or failure, is returned by every later call.
type Parser struct {
	witnesses [][]byte
	dec       Decoder
	logger    *zap.Logger

	guard   initGuard
	initErr error
	slots   map[CellMeta]slot
	config  *types.ConfigCellMain
	action  *types.ActionData

	cacheMu sync.Mutex
	cache   map[entityKey]any
}

// Option configures a Parser.
type Option func(*Parser)

// WithDecoder replaces the frame decoder.
func WithDecoder(d Decoder) Option { return func(p *Parser) { p.dec = d } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(p *Parser) { p.logger = l } }

// NewParser creates a parser over witnesses. Nothing is decoded until
// the first lookup.
func NewParser(witnesses [][]byte, opts ...Option) *Parser {
	p := &Parser{
		witnesses: witnesses,
		dec:       FrameDecoder{},
		logger:    zap.NewNop(),
		cache:     make(map[entityKey]any),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Init parses the witness list if it has not been parsed yet.
func (p *Parser) Init() error {
	if p.guard.settled() {
		return p.initErr
	}
	p.guard.mu.Lock()
	defer p.guard.mu.Unlock()
	if p.guard.settled() {
		return p.initErr
	}

	p.guard.begin()
	if err := p.parse(); err != nil {
		p.initErr = err
		p.slots, p.config, p.action = nil, nil, nil
		p.guard.fail()
		p.logger.Debug("witness parse failed", zap.Error(err))
		return err
	}
	p.guard.complete()
	p.logger.Debug("witnesses parsed",
		zap.Int("witnesses", len(p.witnesses)),
		zap.Int("cell_entities", len(p.slots)),
		zap.Bool("config", p.config != nil),
		zap.Bool("action", p.action != nil))
	return nil
}

// IsInited reports whether the witnesses have been parsed
// successfully. It never triggers a parse.
func (p *Parser) IsInited() bool { return p.guard.load() == stateReady }

func (p *Parser) parse() error {
	p.slots = make(map[CellMeta]slot)
	for i, raw := range p.witnesses {
		f, ok, err := p.dec.DecodeFrame(raw)
		if err != nil {
			return malformed(err, "witness %d", i)
		}
		if !ok {
			continue
		}
		switch {
		case f.DataType == types.DataActionData:
			if p.action != nil {
				return dasguard.Reject(types.CategoryDecode, dasguard.ErrMalformedWitness, "witness %d: duplicate %s", i, f.DataType)
			}
			var a types.ActionData
			if err := p.dec.DecodeBody(f.Body, &a); err != nil {
				return malformed(err, "witness %d: %s", i, f.DataType)
			}
			p.action = &a
		case f.DataType == types.DataConfigCellMain:
			if p.config != nil {
				return dasguard.Reject(types.CategoryDecode, dasguard.ErrMalformedWitness, "witness %d: duplicate %s", i, f.DataType)
			}
			var c types.ConfigCellMain
			if err := p.dec.DecodeBody(f.Body, &c); err != nil {
				return malformed(err, "witness %d: %s", i, f.DataType)
			}
			p.config = &c
		case f.DataType.IsCellData():
			var g types.DataEntityGroup
			if err := p.dec.DecodeBody(f.Body, &g); err != nil {
				return malformed(err, "witness %d: %s", i, f.DataType)
			}
			for _, b := range []struct {
				role types.CellRole
				de   *types.DataEntity
			}{{types.RoleInput, g.Old}, {types.RoleOutput, g.New}, {types.RoleCellDep, g.Dep}} {
				if b.de == nil {
					continue
				}
				meta := CellMeta{Role: b.role, Index: b.de.Index}
				if prev, dup := p.slots[meta]; dup {
					return dasguard.Reject(types.CategoryDecode, dasguard.ErrMalformedWitness,
						"witness %d: %s already bound to %s", i, meta, prev.dataType)
				}
				p.slots[meta] = slot{dataType: f.DataType, entity: b.de}
			}
		default:
			p.logger.Debug("skipping witness", zap.Int("index", i), zap.Stringer("data_type", f.DataType))
		}
	}
	return nil
}

func malformed(cause error, format string, args ...any) error {
	return dasguard.Reject(types.CategoryDecode, fmt.Errorf("%w: %v", dasguard.ErrMalformedWitness, cause), format, args...)
}

// EntityByCellMeta returns the raw entity bound to the cell at meta.
// It fails if nothing is bound there or if the bound entity is of
// another data type.
func (p *Parser) EntityByCellMeta(meta CellMeta, dt types.DataType) (*types.DataEntity, error) {
	if err := p.Init(); err != nil {
		return nil, err
	}
	s, ok := p.slots[meta]
	if !ok {
		return nil, dasguard.Reject(types.CategoryDecode, dasguard.ErrEntityAbsent, "%s at %s", dt, meta)
	}
	if s.dataType != dt {
		return nil, dasguard.Reject(types.CategoryDecode, dasguard.ErrEntityMismatch,
			"%s holds %s, want %s", meta, s.dataType, dt)
	}
	return s.entity, nil
}

// Entity decodes the entity bound to meta into a *T. The decoded
// value is cached per T; repeated calls with the same T return the
// same pointer.
func Entity[T any](p *Parser, meta CellMeta, dt types.DataType) (*T, error) {
	de, err := p.EntityByCellMeta(meta, dt)
	if err != nil {
		return nil, err
	}
	key := entityKey{meta: meta, dataType: dt, goType: reflect.TypeFor[T]()}

	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	if v, ok := p.cache[key].(*T); ok {
		return v, nil
	}
	v := new(T)
	if err := p.dec.DecodeBody(de.Entity, v); err != nil {
		return nil, malformed(err, "%s entity at %s", dt, meta)
	}
	p.cache[key] = v
	return v, nil
}

// TypeID returns the type hash the transaction's config witness
// assigns to id.
func (p *Parser) TypeID(id types.ScriptIdentifier) (types.TypeHash, error) {
	if err := p.Init(); err != nil {
		return types.TypeHash{}, err
	}
	if p.config == nil {
		return types.TypeHash{}, dasguard.Reject(types.CategoryResolution, dasguard.ErrTypeIDNotFound,
			"%s: no %s witness", id, types.DataConfigCellMain)
	}
	h, ok := p.config.TypeIDTable.Lookup(id)
	if !ok {
		return types.TypeHash{}, dasguard.Reject(types.CategoryResolution, dasguard.ErrTypeIDNotFound, "%s", id)
	}
	return h, nil
}

// Action returns the transaction's ActionData.
func (p *Parser) Action() (*types.ActionData, error) {
	if err := p.Init(); err != nil {
		return nil, err
	}
	if p.action == nil {
		return nil, dasguard.Reject(types.CategoryDecode, dasguard.ErrEntityAbsent, "%s", types.DataActionData)
	}
	return p.action, nil
}
