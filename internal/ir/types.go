package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeKind enumerates the value types a fragment can carry.
type TypeKind uint8

const (
	// TypeNone marks a missing type.
	TypeNone TypeKind = iota
	// TypeIndex is the target-sized index type.
	TypeIndex
	// TypeInt is a signless integer of Width bits.
	TypeInt
	// TypeFloat is an IEEE float of Width bits.
	TypeFloat
	// TypeTensor is a shaped tensor of Elem.
	TypeTensor
)

// DynamicDim marks a tensor dimension unknown until run time.
const DynamicDim int64 = -1

// Type describes the type of a value, global slot or attribute.
type Type struct {
	Kind  TypeKind
	Width uint16

	// Elem and Shape are set for tensors only.
	Elem  *Type
	Shape []int64
}

// Index returns the index type.
func Index() Type { return Type{Kind: TypeIndex} }

// Int returns a signless integer type.
func Int(width uint16) Type { return Type{Kind: TypeInt, Width: width} }

// Float returns a float type.
func Float(width uint16) Type { return Type{Kind: TypeFloat, Width: width} }

// Tensor returns a tensor type over elem with the given shape.
func Tensor(elem Type, shape ...int64) Type {
	e := elem
	return Type{Kind: TypeTensor, Elem: &e, Shape: append([]int64(nil), shape...)}
}

// IsValid reports whether t names a real type.
func (t Type) IsValid() bool {
	switch t.Kind {
	case TypeIndex:
		return true
	case TypeInt, TypeFloat:
		return t.Width > 0
	case TypeTensor:
		return t.Elem != nil && t.Elem.Kind != TypeTensor && t.Elem.IsValid()
	default:
		return false
	}
}

// Equal reports structural type equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Width != o.Width || len(t.Shape) != len(o.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != o.Shape[i] {
			return false
		}
	}
	if (t.Elem == nil) != (o.Elem == nil) {
		return false
	}
	return t.Elem == nil || t.Elem.Equal(*o.Elem)
}

func (t Type) String() string {
	switch t.Kind {
	case TypeIndex:
		return "index"
	case TypeInt:
		return "i" + strconv.Itoa(int(t.Width))
	case TypeFloat:
		return "f" + strconv.Itoa(int(t.Width))
	case TypeTensor:
		var sb strings.Builder
		sb.WriteString("tensor<")
		for _, d := range t.Shape {
			if d == DynamicDim {
				sb.WriteString("?")
			} else {
				sb.WriteString(strconv.FormatInt(d, 10))
			}
			sb.WriteString("x")
		}
		if t.Elem != nil {
			sb.WriteString(t.Elem.String())
		} else {
			sb.WriteString("?")
		}
		sb.WriteString(">")
		return sb.String()
	default:
		return "<none>"
	}
}

// DynamicDims counts the dynamic dimensions of a tensor type.
func (t Type) DynamicDims() int {
	n := 0
	for _, d := range t.Shape {
		if d == DynamicDim {
			n++
		}
	}
	return n
}

// FuncType is the signature of a function definition.
type FuncType struct {
	Inputs  []Type
	Results []Type
}

func (ft FuncType) String() string {
	return fmt.Sprintf("(%s) -> (%s)", joinTypes(ft.Inputs), joinTypes(ft.Results))
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
