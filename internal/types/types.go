// Resolved type graph for the Vesper lifecycle middle-end.
// The front end and generic instantiator hand this core a fully
// resolved graph; nothing here performs inference. Nominal types carry
// identity (their declaration site), compound type expressions are
// interned structurally so memoized queries key on a canonical TypeID.

package types

import (
	"fmt"
	"strings"

	"github.com/vesper-lang/vesper/internal/position"
)

// ====== Core Type Kinds ======

// Kind represents the kind of a type in the Vesper type system.
type Kind int

const (
	// Primitive types
	KindVoid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindChar
	KindString

	// Nominal types (identity = declaration site)
	KindObject
	KindDistinct
	KindGeneric

	// Compound type expressions (no identity of their own)
	KindArray
	KindSequence
	KindTuple

	// Indirection types
	KindRef
	KindPtr
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindDistinct:
		return "distinct"
	case KindGeneric:
		return "generic"
	case KindArray:
		return "array"
	case KindSequence:
		return "seq"
	case KindTuple:
		return "tuple"
	case KindRef:
		return "ref"
	case KindPtr:
		return "ptr"
	default:
		return "invalid"
	}
}

// TypeID is a dense index into a Universe's arena. The zero value is
// never a valid type.
type TypeID int

// NoType marks the absence of a type reference.
const NoType TypeID = 0

// Type represents a single node in the resolved type graph.
type Type struct {
	ID   TypeID
	Kind Kind
	Name string      // Nominal name; empty for compound expressions
	Data interface{} // Kind-specific payload
	Decl position.Span
}

// ====== Kind-Specific Payloads ======

// Field is a named slot of an object type. Declaration order is
// significant: destruction and assignment visit fields in this order
// (destruction in reverse).
type Field struct {
	Name string
	Type *Type
}

// ObjectType is the payload of a KindObject type.
type ObjectType struct {
	Fields []Field
	Base   *Type // Optional base object for structural inheritance
}

// DistinctType is the payload of a KindDistinct type. The wrapper has
// its own identity and its own operation slots; its structure is the
// base type's structure.
type DistinctType struct {
	Base *Type
}

// GenericType is the payload of a KindGeneric type: a declared generic
// head. Instantiation happens outside this core; the head itself can
// carry lifecycle bindings.
type GenericType struct {
	TypeParams []string
}

// ArrayType is the payload of a KindArray type.
type ArrayType struct {
	Length  int
	Element *Type
}

// SequenceType is the payload of a KindSequence type.
type SequenceType struct {
	Element *Type
}

// TupleType is the payload of a KindTuple type.
type TupleType struct {
	Elements []*Type
}

// IndirectionType is the payload of KindRef and KindPtr types.
type IndirectionType struct {
	Pointee *Type
}

// ====== Predicates and Accessors ======

// IsNominal reports whether the type has declaration identity and may
// own lifecycle operation slots.
func (t *Type) IsNominal() bool {
	switch t.Kind {
	case KindObject, KindDistinct, KindGeneric:
		return true
	default:
		return false
	}
}

// IsCompound reports whether the type is a compound expression whose
// lifecycle behavior is lifted from its constituents.
func (t *Type) IsCompound() bool {
	switch t.Kind {
	case KindArray, KindSequence, KindTuple:
		return true
	default:
		return false
	}
}

// IsIndirection reports whether the type is a ref or ptr type.
func (t *Type) IsIndirection() bool {
	return t.Kind == KindRef || t.Kind == KindPtr
}

// IsPrimitive reports whether the type is a built-in scalar.
func (t *Type) IsPrimitive() bool {
	return t.Kind >= KindVoid && t.Kind <= KindString
}

// Object returns the object payload, or nil.
func (t *Type) Object() *ObjectType {
	if o, ok := t.Data.(*ObjectType); ok {
		return o
	}
	return nil
}

// Distinct returns the distinct payload, or nil.
func (t *Type) Distinct() *DistinctType {
	if d, ok := t.Data.(*DistinctType); ok {
		return d
	}
	return nil
}

// Array returns the array payload, or nil.
func (t *Type) Array() *ArrayType {
	if a, ok := t.Data.(*ArrayType); ok {
		return a
	}
	return nil
}

// Sequence returns the sequence payload, or nil.
func (t *Type) Sequence() *SequenceType {
	if s, ok := t.Data.(*SequenceType); ok {
		return s
	}
	return nil
}

// Tuple returns the tuple payload, or nil.
func (t *Type) Tuple() *TupleType {
	if tp, ok := t.Data.(*TupleType); ok {
		return tp
	}
	return nil
}

// Pointee returns the pointee of a ref/ptr type, or nil.
func (t *Type) Pointee() *Type {
	if i, ok := t.Data.(*IndirectionType); ok {
		return i.Pointee
	}
	return nil
}

// String renders the type the way diagnostics spell it.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindObject, KindDistinct, KindGeneric:
		return t.Name
	case KindArray:
		a := t.Array()
		return fmt.Sprintf("array[%d, %s]", a.Length, a.Element.String())
	case KindSequence:
		return fmt.Sprintf("seq[%s]", t.Sequence().Element.String())
	case KindTuple:
		parts := make([]string, len(t.Tuple().Elements))
		for i, e := range t.Tuple().Elements {
			parts[i] = e.String()
		}
		return fmt.Sprintf("tuple[%s]", strings.Join(parts, ", "))
	case KindRef:
		return fmt.Sprintf("ref %s", t.Pointee().String())
	case KindPtr:
		return fmt.Sprintf("ptr %s", t.Pointee().String())
	default:
		return t.Kind.String()
	}
}
