// Lifecycle operation binding and lifting for the Vesper compiler.
// This package implements the middle-end that ties the three lifecycle
// operators to nominal types and extends user implementations to every
// compound type built from them. It provides:
// 1. Operator declaration validation and binding (registry + binder)
// 2. Type-directed lifting with per-type memoization (resolver)
// 3. Destructible-context validation against a policy table
// 4. Scope-exit destructor scheduling over explicit exit edges
// 5. Cross-thread deep-copy planning at task-submission boundaries

package lifecycle

import (
	"github.com/vesper-lang/vesper/internal/position"
	"github.com/vesper-lang/vesper/internal/types"
)

// ====== Operation Kinds ======

// OpKind identifies one of the three lifecycle operations.
type OpKind int

const (
	OpAssign OpKind = iota
	OpDestroy
	OpDeepCopy
)

func (k OpKind) String() string {
	switch k {
	case OpAssign:
		return "="
	case OpDestroy:
		return "=destroy"
	case OpDeepCopy:
		return "=deepCopy"
	default:
		return "unknown"
	}
}

// OpKinds lists all operation kinds in resolution order.
var OpKinds = []OpKind{OpAssign, OpDestroy, OpDeepCopy}

// ====== Operator Declarations ======

// ParamMode describes how an operator parameter is passed.
type ParamMode int

const (
	ByValue ParamMode = iota
	ByMutRef
	ByConstRef
)

func (m ParamMode) String() string {
	switch m {
	case ByValue:
		return "value"
	case ByMutRef:
		return "var"
	case ByConstRef:
		return "const"
	default:
		return "unknown"
	}
}

// OperatorParam is one parameter of a candidate operator declaration.
type OperatorParam struct {
	Type *types.Type
	Mode ParamMode
}

// OperatorDecl is a user-supplied lifecycle operator as delivered by
// the front end, before binding validation.
type OperatorDecl struct {
	Op     OpKind
	Params []OperatorParam
	Result *types.Type // nil for operators without a result
	Impl   string      // Symbol of the user implementation
	At     position.Span
}

// ====== Bound Entries ======

// BoundOperationEntry records one validated user override in the
// registry. Entries are immutable once bound.
type BoundOperationEntry struct {
	Op       OpKind
	Receiver *types.Type // The nominal type the entry is keyed under
	// Indirection is the spelling a =deepCopy binding was declared
	// through (KindRef or KindPtr); binding the same pointee through
	// both spellings is rejected.
	Indirection types.Kind
	Impl        string
	Decl        OperatorDecl
}

// ====== Effective Operations ======

// Origin classifies how an effective operation came to be.
type Origin int

const (
	// OriginDefault means bitwise copy, no-op destroy, or structural
	// deep clone; no synthesized code is emitted.
	OriginDefault Origin = iota
	// OriginOverride means a user-supplied implementation bound
	// directly to the nominal type.
	OriginOverride
	// OriginLifted means an operation synthesized by applying
	// constituent operations to every slot or element.
	OriginLifted
)

func (o Origin) String() string {
	switch o {
	case OriginDefault:
		return "default"
	case OriginOverride:
		return "override"
	case OriginLifted:
		return "lifted"
	default:
		return "unknown"
	}
}

// LiftStep applies a constituent's effective operation to one slot or
// element of a compound type. Steps are ordered: declaration order for
// object fields and tuple slots, index order for arrays and sequences,
// the base chain last.
type LiftStep struct {
	// Slot names the object field, or is "[]" for array/sequence
	// elements, "0".."n" for tuple slots, "base" for the base chain,
	// and "" for a distinct wrapper's underlying type.
	Slot string
	Type *types.Type
	Op   *EffectiveOperation
}

// EffectiveOperation is the resolved outcome the compiler uses for a
// given (type, kind) pair.
type EffectiveOperation struct {
	Type   *types.Type
	Op     OpKind
	Origin Origin
	Entry  *BoundOperationEntry // Set for OriginOverride
	Steps  []LiftStep           // Set for OriginLifted
}

// IsDefault reports whether no synthesized or user code is needed.
func (e *EffectiveOperation) IsDefault() bool {
	return e.Origin == OriginDefault
}
