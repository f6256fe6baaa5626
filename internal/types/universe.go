package types

import (
	"fmt"

	"github.com/vesper-lang/vesper/internal/position"
)

// Universe owns every type node of a compilation unit. Nominal types
// are registered once at their declaration; compound expressions are
// interned by structure so repeated spellings share one node.
type Universe struct {
	arena  []*Type
	named  map[string]*Type
	intern map[string]*Type
}

// NewUniverse creates a universe with all primitive types registered.
func NewUniverse() *Universe {
	u := &Universe{
		arena:  []*Type{nil}, // TypeID 0 is reserved as NoType
		named:  make(map[string]*Type),
		intern: make(map[string]*Type),
	}
	for k := KindVoid; k <= KindString; k++ {
		t := u.add(&Type{Kind: k, Name: k.String()})
		u.named[t.Name] = t
	}
	return u
}

func (u *Universe) add(t *Type) *Type {
	t.ID = TypeID(len(u.arena))
	u.arena = append(u.arena, t)
	return t
}

// Lookup returns the type with the given TypeID.
func (u *Universe) Lookup(id TypeID) *Type {
	if id <= 0 || int(id) >= len(u.arena) {
		return nil
	}
	return u.arena[id]
}

// Named returns the nominal or primitive type declared under name.
func (u *Universe) Named(name string) (*Type, bool) {
	t, ok := u.named[name]
	return t, ok
}

// Len returns the number of registered types, NoType included.
func (u *Universe) Len() int { return len(u.arena) }

// ====== Nominal Declarations ======

// DeclareObject registers an object type. Fields may be attached later
// with SetObjectFields to allow mutually recursive declarations.
func (u *Universe) DeclareObject(name string, decl position.Span, fields ...Field) (*Type, error) {
	if _, exists := u.named[name]; exists {
		return nil, fmt.Errorf("type %s already declared", name)
	}
	t := u.add(&Type{Kind: KindObject, Name: name, Data: &ObjectType{Fields: fields}, Decl: decl})
	u.named[name] = t
	return t, nil
}

// SetObjectFields attaches fields and an optional base to an object
// declared earlier. The resolver, not this setter, rejects structural
// cycles that lack an intervening indirection.
func (u *Universe) SetObjectFields(obj *Type, base *Type, fields ...Field) error {
	o := obj.Object()
	if o == nil {
		return fmt.Errorf("%s is not an object type", obj)
	}
	if base != nil && base.Kind != KindObject {
		return fmt.Errorf("base of %s must be an object type, got %s", obj.Name, base)
	}
	o.Fields = fields
	o.Base = base
	return nil
}

// DeclareDistinct registers a distinct wrapper around base.
func (u *Universe) DeclareDistinct(name string, base *Type, decl position.Span) (*Type, error) {
	if _, exists := u.named[name]; exists {
		return nil, fmt.Errorf("type %s already declared", name)
	}
	if base == nil {
		return nil, fmt.Errorf("distinct type %s requires a base type", name)
	}
	t := u.add(&Type{Kind: KindDistinct, Name: name, Data: &DistinctType{Base: base}, Decl: decl})
	u.named[name] = t
	return t, nil
}

// DeclareGeneric registers a generic head usable as a lifecycle
// operator receiver.
func (u *Universe) DeclareGeneric(name string, params []string, decl position.Span) (*Type, error) {
	if _, exists := u.named[name]; exists {
		return nil, fmt.Errorf("type %s already declared", name)
	}
	t := u.add(&Type{Kind: KindGeneric, Name: name, Data: &GenericType{TypeParams: params}, Decl: decl})
	u.named[name] = t
	return t, nil
}

// ====== Interned Compound Expressions ======

// ArrayOf returns the interned array type of length n over elem.
func (u *Universe) ArrayOf(n int, elem *Type) *Type {
	key := fmt.Sprintf("array[%d,#%d]", n, elem.ID)
	if t, ok := u.intern[key]; ok {
		return t
	}
	t := u.add(&Type{Kind: KindArray, Data: &ArrayType{Length: n, Element: elem}})
	u.intern[key] = t
	return t
}

// SequenceOf returns the interned sequence type over elem.
func (u *Universe) SequenceOf(elem *Type) *Type {
	key := fmt.Sprintf("seq[#%d]", elem.ID)
	if t, ok := u.intern[key]; ok {
		return t
	}
	t := u.add(&Type{Kind: KindSequence, Data: &SequenceType{Element: elem}})
	u.intern[key] = t
	return t
}

// TupleOf returns the interned tuple type over elems.
func (u *Universe) TupleOf(elems ...*Type) *Type {
	key := "tuple["
	for _, e := range elems {
		key += fmt.Sprintf("#%d,", e.ID)
	}
	key += "]"
	if t, ok := u.intern[key]; ok {
		return t
	}
	els := make([]*Type, len(elems))
	copy(els, elems)
	t := u.add(&Type{Kind: KindTuple, Data: &TupleType{Elements: els}})
	u.intern[key] = t
	return t
}

// RefTo returns the interned ref type over pointee.
func (u *Universe) RefTo(pointee *Type) *Type {
	key := fmt.Sprintf("ref[#%d]", pointee.ID)
	if t, ok := u.intern[key]; ok {
		return t
	}
	t := u.add(&Type{Kind: KindRef, Data: &IndirectionType{Pointee: pointee}})
	u.intern[key] = t
	return t
}

// PtrTo returns the interned ptr type over pointee.
func (u *Universe) PtrTo(pointee *Type) *Type {
	key := fmt.Sprintf("ptr[#%d]", pointee.ID)
	if t, ok := u.intern[key]; ok {
		return t
	}
	t := u.add(&Type{Kind: KindPtr, Data: &IndirectionType{Pointee: pointee}})
	u.intern[key] = t
	return t
}

// Constituents returns the ordered constituent types the lifting
// machinery recurses over: element types for arrays and sequences,
// slot types for tuples, field types then base for objects, and the
// base type for distinct wrappers. Indirections and primitives have
// no constituents.
func Constituents(t *Type) []*Type {
	switch t.Kind {
	case KindArray:
		return []*Type{t.Array().Element}
	case KindSequence:
		return []*Type{t.Sequence().Element}
	case KindTuple:
		return t.Tuple().Elements
	case KindObject:
		o := t.Object()
		out := make([]*Type, 0, len(o.Fields)+1)
		for _, f := range o.Fields {
			out = append(out, f.Type)
		}
		if o.Base != nil {
			out = append(out, o.Base)
		}
		return out
	case KindDistinct:
		return []*Type{t.Distinct().Base}
	default:
		return nil
	}
}
