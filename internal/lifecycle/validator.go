package lifecycle

import (
	semver "github.com/Masterminds/semver/v3"

	"github.com/vesper-lang/vesper/internal/diagnostic"
	"github.com/vesper-lang/vesper/internal/flow"
)

// Validator checks that every value-producing expression of a
// destructible type occupies a destructible context. The check is
// purely structural over syntactic positions and independent of
// control flow. Reads of existing locations (names, field accesses)
// are exempt: the restriction exists for fresh values that would
// otherwise need a destructor call at an arbitrary program point.
type Validator struct {
	res     *Resolver
	policy  *Policy
	version *semver.Version
	diags   *diagnostic.Collector
}

// NewValidator creates a context validator. A nil policy uses the
// built-in whitelist; a nil version disables version-gated rules.
func NewValidator(res *Resolver, policy *Policy, version *semver.Version, diags *diagnostic.Collector) *Validator {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Validator{res: res, policy: policy, version: version, diags: diags}
}

// ValidateProcedure walks one procedure body.
func (v *Validator) ValidateProcedure(p *flow.Procedure) {
	if p.Body != nil {
		v.scope(p.Body)
	}
}

func (v *Validator) scope(s *flow.Scope) {
	for _, st := range s.Stmts {
		v.stmt(st)
	}
}

func (v *Validator) stmt(st flow.Stmt) {
	switch st := st.(type) {
	case *flow.VarDecl:
		v.expr(st.Init, ContextVarInit)
	case *flow.LetDecl:
		v.expr(st.Init, ContextLetInit)
	case *flow.ReturnStmt:
		v.expr(st.Value, ContextReturnValue)
	case *flow.ResultAssign:
		v.expr(st.Value, ContextResultAssign)
	case *flow.AssignStmt:
		// Assignment to an arbitrary location is not a destructible
		// context; only the implicit result location is.
		v.expr(st.Target, ContextOther)
		v.expr(st.Value, ContextOther)
	case *flow.ExprStmt:
		v.expr(st.X, ContextOther)
	case *flow.SpawnStmt:
		v.expr(st.Call, ContextOther)
	case *flow.IfStmt:
		v.expr(st.Cond, ContextOther)
		v.scope(st.Then)
		if st.Else != nil {
			v.scope(st.Else)
		}
	case *flow.LoopStmt:
		v.scope(st.Body)
	case *flow.BlockStmt:
		v.scope(st.Body)
	}
}

// expr checks one expression against the context it occupies, then
// descends into subexpressions, which all sit in non-destructible
// positions.
func (v *Validator) expr(e flow.Expr, ctx ContextKind) {
	if e == nil {
		return
	}

	switch e := e.(type) {
	case *flow.CallExpr:
		v.checkProduced(e, ctx)
		for _, arg := range e.Args {
			v.expr(arg, ContextOther)
		}
	case *flow.ConstructExpr:
		v.checkProduced(e, ctx)
		for _, arg := range e.Args {
			v.expr(arg, ContextOther)
		}
	case *flow.FieldAccessExpr:
		v.expr(e.X, ContextOther)
	case *flow.NameExpr, *flow.LiteralExpr:
		// Reads and constants never produce fresh destructible values.
	}
}

// checkProduced reports a fresh destructible value in a forbidden
// context. Spawn calls are not special here: their deep copies are the
// gate's concern, but their destructible results obey the same rules.
func (v *Validator) checkProduced(e flow.Expr, ctx ContextKind) {
	t := e.Type()
	if t == nil {
		return
	}
	if !v.res.Destructible(t) {
		return
	}
	if v.policy.Allows(ctx, v.version) {
		return
	}
	v.diags.Errorf(diagnostic.CodeIllegalDestructibleUsage, e.Span(), t.String(),
		"value of destructible type %s cannot be used here (context %s); allowed contexts are variable initialization, return value, and result assignment",
		t, ctx)
}
