package lifecycle

import (
	"testing"

	"github.com/vesper-lang/vesper/internal/diagnostic"
	"github.com/vesper-lang/vesper/internal/types"
)

func TestResolveOverride(t *testing.T) {
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	env.binder.BindOperator(destroyDecl(res, "resource_destroy", 2))
	r := env.resolver()

	op := r.Resolve(res, OpDestroy)
	if op.Origin != OriginOverride {
		t.Fatalf("expected override, got %v", op.Origin)
	}
	if op.Entry.Impl != "resource_destroy" {
		t.Errorf("entry impl = %s", op.Entry.Impl)
	}
}

func TestLiftAssignOverArrayAndSequence(t *testing.T) {
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	env.binder.BindOperator(assignDecl(res, "resource_assign", 2))
	r := env.resolver()

	for _, typ := range []*types.Type{
		env.universe.ArrayOf(4, res),
		env.universe.SequenceOf(res),
	} {
		op := r.Resolve(typ, OpAssign)
		if op.Origin != OriginLifted {
			t.Fatalf("%s: expected lifted assign, got %v", typ, op.Origin)
		}
		if len(op.Steps) != 1 || op.Steps[0].Slot != "[]" {
			t.Fatalf("%s: expected single element-wise step, got %+v", typ, op.Steps)
		}
		if op.Steps[0].Op.Origin != OriginOverride {
			t.Errorf("%s: element step should invoke the override", typ)
		}
	}
}

func TestAllDefaultConstituentsResolveDefault(t *testing.T) {
	env := newTestEnv()
	intT, _ := env.universe.Named("int64")
	strT, _ := env.universe.Named("string")

	plain, _ := env.universe.DeclareObject("Plain", testSpan(1),
		types.Field{Name: "n", Type: intT},
		types.Field{Name: "s", Type: strT},
	)
	nested := env.universe.TupleOf(env.universe.ArrayOf(3, plain), env.universe.SequenceOf(intT))

	r := env.resolver()
	for _, kind := range OpKinds {
		if !r.Resolve(nested, kind).IsDefault() {
			t.Errorf("type with no overridden constituents must resolve default for %s", kind)
		}
	}
	if env.diags.Count() != 0 {
		t.Errorf("unexpected diagnostics: %v", env.diags.Diagnostics())
	}
}

func TestObjectDestroyStepsReverseFieldOrder(t *testing.T) {
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	env.binder.BindOperator(destroyDecl(res, "resource_destroy", 2))

	pair, _ := env.universe.DeclareObject("Pair", testSpan(3),
		types.Field{Name: "a", Type: res},
		types.Field{Name: "b", Type: res},
	)
	r := env.resolver()

	op := r.Resolve(pair, OpDestroy)
	if op.Origin != OriginLifted {
		t.Fatalf("expected lifted destroy, got %v", op.Origin)
	}
	if len(op.Steps) != 2 || op.Steps[0].Slot != "b" || op.Steps[1].Slot != "a" {
		t.Errorf("destroy steps must run in reverse field-declaration order, got %+v", op.Steps)
	}

	// Assignment keeps declaration order.
	env2 := newTestEnv()
	res2 := env2.declareResource("Resource", 1)
	env2.binder.BindOperator(assignDecl(res2, "resource_assign", 2))
	pair2, _ := env2.universe.DeclareObject("Pair", testSpan(3),
		types.Field{Name: "a", Type: res2},
		types.Field{Name: "b", Type: res2},
	)
	op2 := env2.resolver().Resolve(pair2, OpAssign)
	if len(op2.Steps) != 2 || op2.Steps[0].Slot != "a" || op2.Steps[1].Slot != "b" {
		t.Errorf("assign steps must keep declaration order, got %+v", op2.Steps)
	}
}

func TestBaseDestructorChainsAfterFields(t *testing.T) {
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	env.binder.BindOperator(destroyDecl(res, "resource_destroy", 2))

	base, _ := env.universe.DeclareObject("Base", testSpan(3),
		types.Field{Name: "r", Type: res},
	)
	derived, _ := env.universe.DeclareObject("Derived", testSpan(4))
	env.universe.SetObjectFields(derived, base,
		types.Field{Name: "x", Type: res},
		types.Field{Name: "y", Type: res},
	)
	r := env.resolver()

	op := r.Resolve(derived, OpDestroy)
	if op.Origin != OriginLifted {
		t.Fatalf("expected lifted destroy, got %v", op.Origin)
	}
	want := []string{"y", "x", "base"}
	if len(op.Steps) != len(want) {
		t.Fatalf("expected %d steps, got %+v", len(want), op.Steps)
	}
	for i, slot := range want {
		if op.Steps[i].Slot != slot {
			t.Errorf("step %d slot = %s, want %s", i, op.Steps[i].Slot, slot)
		}
	}
	if op.Steps[2].Op.Origin != OriginLifted {
		t.Error("base step should carry the base's lifted destroy")
	}
}

func TestDistinctLiftsThroughBase(t *testing.T) {
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	env.binder.BindOperator(destroyDecl(res, "resource_destroy", 2))
	wrapped, _ := env.universe.DeclareDistinct("Wrapped", res, testSpan(3))
	r := env.resolver()

	op := r.Resolve(wrapped, OpDestroy)
	if op.Origin != OriginLifted {
		t.Fatalf("distinct without override should lift through base, got %v", op.Origin)
	}
}

func TestDistinctOverrideWins(t *testing.T) {
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	env.binder.BindOperator(destroyDecl(res, "resource_destroy", 2))
	wrapped, _ := env.universe.DeclareDistinct("Wrapped", res, testSpan(3))
	env.binder.BindOperator(destroyDecl(wrapped, "wrapped_destroy", 4))
	r := env.resolver()

	op := r.Resolve(wrapped, OpDestroy)
	if op.Origin != OriginOverride || op.Entry.Impl != "wrapped_destroy" {
		t.Error("distinct wrapper's own override must win over the base lift")
	}
}

func TestDeepCopyResolvesThroughEitherIndirection(t *testing.T) {
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	refT := env.universe.RefTo(res)
	ptrT := env.universe.PtrTo(res)
	env.binder.BindOperator(deepCopyDecl(refT, "resource_deepcopy", 2))
	r := env.resolver()

	for _, typ := range []*types.Type{refT, ptrT, res} {
		op := r.Resolve(typ, OpDeepCopy)
		if op.Origin != OriginOverride {
			t.Errorf("%s: expected deepCopy override, got %v", typ, op.Origin)
		}
	}
}

func TestDeepCopyIndependentOfAssignAndDestroy(t *testing.T) {
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	refT := env.universe.RefTo(res)
	env.binder.BindOperator(deepCopyDecl(refT, "resource_deepcopy", 2))
	r := env.resolver()

	if !r.Resolve(res, OpDestroy).IsDefault() {
		t.Error("deepCopy binding must not affect destroy resolution")
	}
	if !r.Resolve(res, OpAssign).IsDefault() {
		t.Error("deepCopy binding must not affect assign resolution")
	}
	if r.Resolve(refT, OpDeepCopy).IsDefault() {
		t.Error("deepCopy should resolve to the override")
	}
}

func TestIndirectionsStopDestroyLifting(t *testing.T) {
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	env.binder.BindOperator(destroyDecl(res, "resource_destroy", 2))
	r := env.resolver()

	// Scoped destruction stops at the heap boundary.
	if !r.Resolve(env.universe.RefTo(res), OpDestroy).IsDefault() {
		t.Error("ref types must not lift destroy from their pointee")
	}
	if !r.Resolve(env.universe.PtrTo(res), OpDestroy).IsDefault() {
		t.Error("ptr types must not lift destroy from their pointee")
	}
}

func TestResolveMemoizes(t *testing.T) {
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	env.binder.BindOperator(destroyDecl(res, "resource_destroy", 2))
	seq := env.universe.SequenceOf(res)
	r := env.resolver()

	first := r.Resolve(seq, OpDestroy)
	second := r.Resolve(seq, OpDestroy)
	if first != second {
		t.Error("repeated resolution must return the memoized operation")
	}
}

func TestUnresolvableRecursiveType(t *testing.T) {
	env := newTestEnv()
	node, _ := env.universe.DeclareObject("Node", testSpan(1))
	env.universe.SetObjectFields(node, nil, types.Field{Name: "next", Type: node})
	r := env.resolver()

	op := r.Resolve(node, OpDestroy)
	if !op.IsDefault() {
		t.Error("recursive type should recover as default")
	}
	if env.countCode(diagnostic.CodeUnresolvableRecursiveType) != 1 {
		t.Fatalf("expected exactly one UnresolvableRecursiveType diagnostic, got %d",
			env.countCode(diagnostic.CodeUnresolvableRecursiveType))
	}

	// Repeated queries must not duplicate the diagnostic.
	r.Resolve(node, OpDestroy)
	if env.countCode(diagnostic.CodeUnresolvableRecursiveType) != 1 {
		t.Error("memoization must keep the diagnostic unique per type")
	}
}

func TestRecursionThroughIndirectionIsFine(t *testing.T) {
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	env.binder.BindOperator(destroyDecl(res, "resource_destroy", 2))

	node, _ := env.universe.DeclareObject("Node", testSpan(3))
	env.universe.SetObjectFields(node, nil,
		types.Field{Name: "payload", Type: res},
		types.Field{Name: "next", Type: env.universe.RefTo(node)},
	)
	r := env.resolver()

	op := r.Resolve(node, OpDestroy)
	if op.Origin != OriginLifted {
		t.Fatalf("self-reference behind a ref must resolve, got %v", op.Origin)
	}
	if env.diags.Count() != 0 {
		t.Errorf("unexpected diagnostics: %v", env.diags.Diagnostics())
	}
}
