package lifecycle

import (
	"fmt"

	"github.com/vesper-lang/vesper/internal/diagnostic"
	"github.com/vesper-lang/vesper/internal/types"
)

type memoKey struct {
	typ types.TypeID
	op  OpKind
}

// Resolver computes the effective lifecycle operation of any type by
// structural recursion over the registry. Results are memoized per
// (type identity, kind) for the compilation unit's lifetime, which is
// sound because registry bindings are immutable after the binder
// phase. Memoization also gives the exactly-one-diagnostic guarantee:
// a type is only ever resolved once per kind.
type Resolver struct {
	reg        *Registry
	diags      *diagnostic.Collector
	memo       map[memoKey]*EffectiveOperation
	inProgress map[memoKey]bool
}

// NewResolver creates a resolver over a frozen registry.
func NewResolver(reg *Registry, diags *diagnostic.Collector) *Resolver {
	return &Resolver{
		reg:        reg,
		diags:      diags,
		memo:       make(map[memoKey]*EffectiveOperation),
		inProgress: make(map[memoKey]bool),
	}
}

// Resolve returns the effective operation for (t, op). Resolution is
// total: every well-formed type yields an operation, defaulting to
// bitwise/no-op behavior when nothing is overridden in the type's
// transitive constituents. A self-referential compound type without an
// intervening indirection is reported once and recovered as default.
func (r *Resolver) Resolve(t *types.Type, op OpKind) *EffectiveOperation {
	key := memoKey{typ: t.ID, op: op}
	if e, ok := r.memo[key]; ok {
		return e
	}
	if r.inProgress[key] {
		r.diags.Errorf(diagnostic.CodeUnresolvableRecursiveType, t.Decl, t.String(),
			"type %s contains itself without an intervening indirection", t)
		return &EffectiveOperation{Type: t, Op: op, Origin: OriginDefault}
	}

	r.inProgress[key] = true
	e := r.resolve(t, op)
	delete(r.inProgress, key)
	r.memo[key] = e
	return e
}

// Destructible reports whether t has a non-default effective Destroy
// operation.
func (r *Resolver) Destructible(t *types.Type) bool {
	return !r.Resolve(t, OpDestroy).IsDefault()
}

func (r *Resolver) resolve(t *types.Type, op OpKind) *EffectiveOperation {
	// User overrides bind by nominal identity and win outright.
	if t.IsNominal() {
		if entry, ok := r.reg.Lookup(t, op); ok {
			return &EffectiveOperation{Type: t, Op: op, Origin: OriginOverride, Entry: entry}
		}
	}

	switch t.Kind {
	case types.KindRef, types.KindPtr:
		// =deepCopy binds to the pointee's nominal type but is invoked
		// through the indirection; the conflict check in the binder
		// guarantees at most one spelling exists, so either spelling
		// of the indirection resolves to it here.
		if op == OpDeepCopy {
			pointee := t.Pointee()
			if pointee != nil && pointee.IsNominal() {
				if entry, ok := r.reg.Lookup(pointee, OpDeepCopy); ok {
					return &EffectiveOperation{Type: t, Op: op, Origin: OriginOverride, Entry: entry}
				}
			}
		}
		// Assign and Destroy never follow indirections: pointers copy
		// bitwise and scoped destruction stops at the heap boundary.
		return &EffectiveOperation{Type: t, Op: op, Origin: OriginDefault}

	case types.KindArray:
		return r.liftSlots(t, op, []LiftStep{{Slot: "[]", Type: t.Array().Element}})

	case types.KindSequence:
		return r.liftSlots(t, op, []LiftStep{{Slot: "[]", Type: t.Sequence().Element}})

	case types.KindTuple:
		elems := t.Tuple().Elements
		steps := make([]LiftStep, len(elems))
		for i, e := range elems {
			steps[i] = LiftStep{Slot: fmt.Sprintf("%d", i), Type: e}
		}
		if op == OpDestroy {
			reverseSteps(steps)
		}
		return r.liftSlots(t, op, steps)

	case types.KindObject:
		o := t.Object()
		steps := make([]LiftStep, 0, len(o.Fields)+1)
		for _, f := range o.Fields {
			steps = append(steps, LiftStep{Slot: f.Name, Type: f.Type})
		}
		// Destruction visits fields most-recently-declared first; the
		// base chain always runs after the locally-generated per-field
		// logic so every reachable sub-object is destroyed exactly
		// once per exit edge.
		if op == OpDestroy {
			reverseSteps(steps)
		}
		if o.Base != nil {
			steps = append(steps, LiftStep{Slot: "base", Type: o.Base})
		}
		return r.liftSlots(t, op, steps)

	case types.KindDistinct:
		// A distinct wrapper without its own override behaves like its
		// base structure.
		return r.liftSlots(t, op, []LiftStep{{Slot: "", Type: t.Distinct().Base}})

	default:
		// Primitives and generic heads without bindings.
		return &EffectiveOperation{Type: t, Op: op, Origin: OriginDefault}
	}
}

// liftSlots resolves every constituent and synthesizes a lifted
// operation when at least one of them is non-default. When every
// constituent resolves to default, the compound is default as well and
// no code is synthesized for it.
func (r *Resolver) liftSlots(t *types.Type, op OpKind, steps []LiftStep) *EffectiveOperation {
	allDefault := true
	for i := range steps {
		steps[i].Op = r.Resolve(steps[i].Type, op)
		if !steps[i].Op.IsDefault() {
			allDefault = false
		}
	}
	if allDefault {
		return &EffectiveOperation{Type: t, Op: op, Origin: OriginDefault}
	}
	return &EffectiveOperation{Type: t, Op: op, Origin: OriginLifted, Steps: steps}
}

func reverseSteps(steps []LiftStep) {
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
}
