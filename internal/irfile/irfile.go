// Package irfile stores fragments on disk as msgpack payloads.
package irfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"ace/internal/ir"
)

// Current schema version - increment when payload format changes
const schemaVersion uint16 = 1

const magic = "ace-fragment"

// Ext is the conventional file extension for fragment files.
const Ext = ".irf"

// ErrSchema reports a payload written by an incompatible version.
var ErrSchema = errors.New("unsupported fragment file schema")

type payload struct {
	Magic  string
	Schema uint16
	Name   string
	Count  uint32
	Defs   []wireDef
}

type wireDef struct {
	Kind       uint8
	Name       string
	Visibility uint8
	Type       ir.Type
	Mutable    bool
	Initial    *ir.Attr
	Signature  ir.FuncType
	Body       ir.Region
}

// Encode writes f to w.
func Encode(w io.Writer, f *ir.Fragment) error {
	if f == nil {
		return fmt.Errorf("encode: nil fragment")
	}
	defs := f.Defs()
	count, err := safecast.Conv[uint32](len(defs))
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.Name, err)
	}
	p := payload{Magic: magic, Schema: schemaVersion, Name: f.Name, Count: count, Defs: make([]wireDef, len(defs))}
	for i, d := range defs {
		p.Defs[i] = wireDef{
			Kind:       uint8(d.Kind),
			Name:       d.Name(),
			Visibility: uint8(d.Visibility),
			Type:       d.Type,
			Mutable:    d.Mutable,
			Initial:    d.Initial,
			Signature:  d.Signature,
			Body:       d.Body,
		}
	}
	return msgpack.NewEncoder(w).Encode(&p)
}

// Decode reads a fragment from r and rebuilds its symbol table.
func Decode(r io.Reader) (*ir.Fragment, error) {
	var p payload
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode fragment: %w", err)
	}
	if p.Magic != magic {
		return nil, fmt.Errorf("decode fragment: not a fragment file")
	}
	if p.Schema != schemaVersion {
		return nil, fmt.Errorf("decode fragment %s: %w: version %d, want %d", p.Name, ErrSchema, p.Schema, schemaVersion)
	}
	n, err := safecast.Conv[int](p.Count)
	if err != nil || n != len(p.Defs) {
		return nil, fmt.Errorf("decode fragment %s: header lists %d definitions, payload has %d", p.Name, p.Count, len(p.Defs))
	}
	f := ir.NewFragment(p.Name)
	for i := range p.Defs {
		d, err := buildDef(&p.Defs[i])
		if err != nil {
			return nil, fmt.Errorf("decode fragment %s: definition %d: %w", p.Name, i, err)
		}
		if err := f.Append(d); err != nil {
			return nil, fmt.Errorf("decode fragment %s: %w", p.Name, err)
		}
	}
	return f, nil
}

func buildDef(w *wireDef) (*ir.Def, error) {
	var d *ir.Def
	switch kind := ir.DefKind(w.Kind); kind {
	case ir.DefGlobal:
		d = ir.NewGlobal(w.Name, w.Type, w.Mutable, w.Initial)
	case ir.DefInitializer:
		d = ir.NewInitializer()
	case ir.DefFunction:
		d = ir.NewFunction(w.Name, w.Signature, ir.Visibility(w.Visibility))
	default:
		return nil, fmt.Errorf("unknown definition kind %d", w.Kind)
	}
	d.Visibility = ir.Visibility(w.Visibility)
	if d.Kind != ir.DefGlobal {
		if err := checkRegion(&w.Body, "body"); err != nil {
			return nil, fmt.Errorf("%v: %w", d, err)
		}
		d.Body = w.Body
		d.SyncValues()
	}
	return d, nil
}

// checkRegion rejects op lists holding nil entries, which msgpack yields for
// encoded nils and which nothing downstream expects.
func checkRegion(r *ir.Region, at string) error {
	for bi := range r.Blocks {
		for oi, op := range r.Blocks[bi].Ops {
			where := fmt.Sprintf("%s block %d op %d", at, bi, oi)
			if op == nil {
				return &ir.MalformedError{Reason: where + " is missing"}
			}
			for ri := range op.Regions {
				if err := checkRegion(&op.Regions[ri], fmt.Sprintf("%s region %d", where, ri)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Write stores f at path, replacing any existing file atomically.
func Write(path string, f *ir.Fragment) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*"+Ext)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = Encode(tmp, f); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp.Name(), path)
}

// Read loads the fragment stored at path.
func Read(path string) (*ir.Fragment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	f, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
