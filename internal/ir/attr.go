package ir

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AttrKind enumerates attribute kinds.
type AttrKind uint8

const (
	// AttrNone marks an absent attribute.
	AttrNone AttrKind = iota
	// AttrUnit is a presence-only marker.
	AttrUnit
	// AttrBool holds a boolean.
	AttrBool
	// AttrInt holds a typed integer.
	AttrInt
	// AttrFloat holds a typed float.
	AttrFloat
	// AttrString holds a string.
	AttrString
	// AttrDense holds raw little-endian tensor contents.
	AttrDense
	// AttrSymbol is a flat reference to a top-level definition.
	AttrSymbol
	// AttrType holds a type.
	AttrType
	// AttrArray holds nested attributes.
	AttrArray
)

func (k AttrKind) String() string {
	switch k {
	case AttrUnit:
		return "unit"
	case AttrBool:
		return "bool"
	case AttrInt:
		return "int"
	case AttrFloat:
		return "float"
	case AttrString:
		return "string"
	case AttrDense:
		return "dense"
	case AttrSymbol:
		return "symbol"
	case AttrType:
		return "type"
	case AttrArray:
		return "array"
	default:
		return "none"
	}
}

// Attr is an immutable compile-time value attached to ops and globals.
type Attr struct {
	Kind AttrKind
	// Type is the value type for int, float, dense and type attributes.
	Type Type

	Bool  bool
	Int   int64
	Float float64
	// Str holds string contents and symbol names.
	Str   string
	Bytes []byte
	Elems []Attr
}

// UnitAttr returns a unit attribute.
func UnitAttr() Attr { return Attr{Kind: AttrUnit} }

// BoolAttr returns a boolean attribute.
func BoolAttr(v bool) Attr { return Attr{Kind: AttrBool, Bool: v} }

// IntAttr returns an integer attribute of type t.
func IntAttr(t Type, v int64) Attr { return Attr{Kind: AttrInt, Type: t, Int: v} }

// FloatAttr returns a float attribute of type t.
func FloatAttr(t Type, v float64) Attr { return Attr{Kind: AttrFloat, Type: t, Float: v} }

// StringAttr returns a string attribute.
func StringAttr(s string) Attr { return Attr{Kind: AttrString, Str: s} }

// DenseAttr returns a dense tensor attribute holding raw contents.
func DenseAttr(t Type, raw []byte) Attr {
	return Attr{Kind: AttrDense, Type: t, Bytes: append([]byte(nil), raw...)}
}

// SymbolRef returns a flat symbol reference to name.
func SymbolRef(name string) Attr { return Attr{Kind: AttrSymbol, Str: name} }

// TypeAttr returns an attribute wrapping a type.
func TypeAttr(t Type) Attr { return Attr{Kind: AttrType, Type: t} }

// ArrayAttr returns an array of attributes.
func ArrayAttr(elems ...Attr) Attr {
	return Attr{Kind: AttrArray, Elems: append([]Attr(nil), elems...)}
}

// Equal reports exact structural equality. Floats compare by bit pattern, so
// NaN payloads and signed zeros are distinguished.
func (a Attr) Equal(b Attr) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case AttrNone, AttrUnit:
		return true
	case AttrBool:
		return a.Bool == b.Bool
	case AttrInt:
		return a.Type.Equal(b.Type) && a.Int == b.Int
	case AttrFloat:
		return a.Type.Equal(b.Type) && math.Float64bits(a.Float) == math.Float64bits(b.Float)
	case AttrString, AttrSymbol:
		return a.Str == b.Str
	case AttrDense:
		return a.Type.Equal(b.Type) && bytes.Equal(a.Bytes, b.Bytes)
	case AttrType:
		return a.Type.Equal(b.Type)
	case AttrArray:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !a.Elems[i].Equal(b.Elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// AppendCanonical appends an unambiguous byte encoding of a to buf. Two
// attributes have the same encoding exactly when Equal reports true.
func (a Attr) AppendCanonical(buf []byte) []byte {
	buf = append(buf, byte(a.Kind))
	switch a.Kind {
	case AttrBool:
		if a.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case AttrInt:
		buf = appendCanonicalType(buf, a.Type)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(a.Int))
	case AttrFloat:
		buf = appendCanonicalType(buf, a.Type)
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(a.Float))
	case AttrString, AttrSymbol:
		buf = appendCanonicalBytes(buf, []byte(a.Str))
	case AttrDense:
		buf = appendCanonicalType(buf, a.Type)
		buf = appendCanonicalBytes(buf, a.Bytes)
	case AttrType:
		buf = appendCanonicalType(buf, a.Type)
	case AttrArray:
		buf = binary.AppendUvarint(buf, uint64(len(a.Elems)))
		for i := range a.Elems {
			buf = a.Elems[i].AppendCanonical(buf)
		}
	}
	return buf
}

func appendCanonicalBytes(buf, data []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(data)))
	return append(buf, data...)
}

func appendCanonicalType(buf []byte, t Type) []byte {
	buf = append(buf, byte(t.Kind))
	buf = binary.LittleEndian.AppendUint16(buf, t.Width)
	buf = binary.AppendUvarint(buf, uint64(len(t.Shape)))
	for _, d := range t.Shape {
		buf = binary.AppendVarint(buf, d)
	}
	if t.Elem != nil {
		buf = append(buf, 1)
		return appendCanonicalType(buf, *t.Elem)
	}
	return append(buf, 0)
}

func (a Attr) String() string {
	switch a.Kind {
	case AttrUnit:
		return "unit"
	case AttrBool:
		return strconv.FormatBool(a.Bool)
	case AttrInt:
		return fmt.Sprintf("%d : %s", a.Int, a.Type)
	case AttrFloat:
		return fmt.Sprintf("%s : %s", strconv.FormatFloat(a.Float, 'g', -1, 64), a.Type)
	case AttrString:
		return strconv.Quote(a.Str)
	case AttrDense:
		return fmt.Sprintf("dense<0x%X> : %s", a.Bytes, a.Type)
	case AttrSymbol:
		return "@" + a.Str
	case AttrType:
		return a.Type.String()
	case AttrArray:
		parts := make([]string, len(a.Elems))
		for i := range a.Elems {
			parts[i] = a.Elems[i].String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<none>"
	}
}
