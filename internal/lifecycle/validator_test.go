package lifecycle

import (
	"testing"

	semver "github.com/Masterminds/semver/v3"

	"github.com/vesper-lang/vesper/internal/diagnostic"
	"github.com/vesper-lang/vesper/internal/flow"
	"github.com/vesper-lang/vesper/internal/types"
)

// destructibleEnv prepares a universe with a destructible Resource
// type and returns a resolver over the frozen registry.
func destructibleEnv(t *testing.T) (*testEnv, *types.Type, *Resolver) {
	t.Helper()
	env := newTestEnv()
	res := env.declareResource("Resource", 1)
	env.binder.BindOperator(destroyDecl(res, "resource_destroy", 2))
	return env, res, env.resolver()
}

func makeCall(t *types.Type, line int) *flow.CallExpr {
	return &flow.CallExpr{Callee: "make", Typ: t, At: testSpan(line)}
}

func validate(env *testEnv, r *Resolver, body *flow.Scope) {
	v := NewValidator(r, nil, nil, env.diags)
	v.ValidateProcedure(&flow.Procedure{Name: "p", Body: body})
}

func TestDestructibleValueAsBareStatementFails(t *testing.T) {
	env, res, r := destructibleEnv(t)

	body := &flow.Scope{Stmts: []flow.Stmt{
		&flow.ExprStmt{X: makeCall(res, 10), At: testSpan(10)},
	}}
	validate(env, r, body)

	if env.countCode(diagnostic.CodeIllegalDestructibleUsage) != 1 {
		t.Fatalf("expected IllegalDestructibleUsage, got %v", env.diags.Diagnostics())
	}
}

func TestDestructibleValueInBlessedContexts(t *testing.T) {
	env, res, r := destructibleEnv(t)

	body := &flow.Scope{Stmts: []flow.Stmt{
		&flow.VarDecl{Name: "a", Type: res, Init: makeCall(res, 10), At: testSpan(10)},
		&flow.LetDecl{Name: "b", Type: res, Init: makeCall(res, 11), At: testSpan(11)},
		&flow.ResultAssign{Value: makeCall(res, 12), At: testSpan(12)},
		&flow.ReturnStmt{Value: makeCall(res, 13), At: testSpan(13)},
	}}
	validate(env, r, body)

	if env.diags.Count() != 0 {
		t.Errorf("blessed contexts must accept destructible values: %v", env.diags.Diagnostics())
	}
}

func TestDestructibleValueAsCallArgumentFails(t *testing.T) {
	env, res, r := destructibleEnv(t)

	outer := &flow.CallExpr{
		Callee: "use",
		Args:   []flow.Expr{makeCall(res, 10)},
		At:     testSpan(10),
	}
	body := &flow.Scope{Stmts: []flow.Stmt{
		&flow.VarDecl{Name: "v", Init: outer, At: testSpan(10)},
	}}
	validate(env, r, body)

	// The outer call produces no destructible value; the nested one
	// sits in an argument position and is rejected.
	if env.countCode(diagnostic.CodeIllegalDestructibleUsage) != 1 {
		t.Fatalf("expected one diagnostic for the argument, got %v", env.diags.Diagnostics())
	}
}

func TestDestructibleValueInPlainAssignmentFails(t *testing.T) {
	env, res, r := destructibleEnv(t)

	body := &flow.Scope{Stmts: []flow.Stmt{
		&flow.VarDecl{Name: "x", Type: res, Init: makeCall(res, 10), At: testSpan(10)},
		&flow.AssignStmt{
			Target: &flow.NameExpr{Name: "x", Typ: res, At: testSpan(11)},
			Value:  makeCall(res, 11),
			At:     testSpan(11),
		},
	}}
	validate(env, r, body)

	if env.countCode(diagnostic.CodeIllegalDestructibleUsage) != 1 {
		t.Fatalf("plain assignment is not a destructible context: %v", env.diags.Diagnostics())
	}
}

func TestNameReadsAreExempt(t *testing.T) {
	env, res, r := destructibleEnv(t)

	// Passing an existing local by name is not a fresh value.
	body := &flow.Scope{Stmts: []flow.Stmt{
		&flow.VarDecl{Name: "x", Type: res, Init: makeCall(res, 10), At: testSpan(10)},
		&flow.ExprStmt{
			X: &flow.CallExpr{
				Callee: "use",
				Args:   []flow.Expr{&flow.NameExpr{Name: "x", Typ: res, At: testSpan(11)}},
				At:     testSpan(11),
			},
			At: testSpan(11),
		},
	}}
	validate(env, r, body)

	if env.diags.Count() != 0 {
		t.Errorf("reads of existing locals must be exempt: %v", env.diags.Diagnostics())
	}
}

func TestNonDestructibleTypesUnrestricted(t *testing.T) {
	env := newTestEnv()
	intT, _ := env.universe.Named("int64")
	r := env.resolver()

	body := &flow.Scope{Stmts: []flow.Stmt{
		&flow.ExprStmt{X: makeCall(intT, 10), At: testSpan(10)},
	}}
	validate(env, r, body)

	if env.diags.Count() != 0 {
		t.Errorf("non-destructible types are unrestricted: %v", env.diags.Diagnostics())
	}
}

func TestValidatorWalksNestedScopes(t *testing.T) {
	env, res, r := destructibleEnv(t)

	inner := &flow.Scope{Stmts: []flow.Stmt{
		&flow.ExprStmt{X: makeCall(res, 20), At: testSpan(20)},
	}}
	body := &flow.Scope{Stmts: []flow.Stmt{
		&flow.IfStmt{Cond: &flow.LiteralExpr{Value: true}, Then: inner, At: testSpan(19)},
	}}
	validate(env, r, body)

	if env.countCode(diagnostic.CodeIllegalDestructibleUsage) != 1 {
		t.Error("validator must descend into nested scopes")
	}
}

func TestWidenedPolicyAcceptsGatedContext(t *testing.T) {
	env, res, r := destructibleEnv(t)

	policy, err := ParsePolicy([]byte(`
contexts:
  - context: var-init
    allowed: true
  - context: other
    allowed: true
    since: ">=1.2.0"
`))
	if err != nil {
		t.Fatalf("ParsePolicy failed: %v", err)
	}

	body := &flow.Scope{Stmts: []flow.Stmt{
		&flow.ExprStmt{X: makeCall(res, 10), At: testSpan(10)},
	}}
	v := NewValidator(r, policy, semver.MustParse("1.3.0"), env.diags)
	v.ValidateProcedure(&flow.Procedure{Name: "p", Body: body})

	if env.diags.Count() != 0 {
		t.Errorf("widened policy should accept the gated context: %v", env.diags.Diagnostics())
	}
}
