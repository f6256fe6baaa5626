package lifecycle

import (
	"github.com/vesper-lang/vesper/internal/flow"
	"github.com/vesper-lang/vesper/internal/position"
	"github.com/vesper-lang/vesper/internal/types"
)

// CopyDecision classifies how one argument crosses an execution-unit
// boundary.
type CopyDecision int

const (
	// CopyClone performs a structural deep clone, recursively cloning
	// reachable indirections, so no two execution units observe the
	// same mutable heap location after handoff.
	CopyClone CopyDecision = iota
	// CopyOverride invokes the user's =deepCopy implementation.
	CopyOverride
	// CopyLifted invokes a synthesized element-wise deep copy.
	CopyLifted
)

func (d CopyDecision) String() string {
	switch d {
	case CopyClone:
		return "structural-clone"
	case CopyOverride:
		return "override"
	case CopyLifted:
		return "lifted"
	default:
		return "unknown"
	}
}

// ArgCopy is the deep-copy decision for one spawn argument.
type ArgCopy struct {
	Index    int
	Type     *types.Type
	Decision CopyDecision
	Op       *EffectiveOperation
}

// DeepCopyPlan annotates one task-submission boundary. The emitted
// copies execute on the submitting thread before the task starts; a
// task that is never scheduled has still copied eagerly, so
// cancellation leaks nothing.
type DeepCopyPlan struct {
	Callee string
	At     position.Span
	Args   []ArgCopy
}

// Gate resolves deep-copy operations at task-submission boundaries.
// DeepCopy resolution is independent of Assign and Destroy: a type may
// define =deepCopy without defining either of the other two.
type Gate struct {
	res *Resolver
}

// NewGate creates a cross-thread gate over a resolver.
func NewGate(res *Resolver) *Gate {
	return &Gate{res: res}
}

// PlanSpawn decides, per argument, how the value is handed to the
// receiving execution unit.
func (g *Gate) PlanSpawn(s *flow.SpawnStmt) DeepCopyPlan {
	plan := DeepCopyPlan{Callee: s.Call.Callee, At: s.At}
	for i, arg := range s.Call.Args {
		t := arg.Type()
		if t == nil {
			continue
		}
		op := g.res.Resolve(t, OpDeepCopy)
		ac := ArgCopy{Index: i, Type: t, Op: op}
		switch op.Origin {
		case OriginOverride:
			ac.Decision = CopyOverride
		case OriginLifted:
			ac.Decision = CopyLifted
		default:
			ac.Decision = CopyClone
		}
		plan.Args = append(plan.Args, ac)
	}
	return plan
}

// PlanProcedure collects the deep-copy plans of every spawn in the
// procedure, in source order.
func (g *Gate) PlanProcedure(p *flow.Procedure) []DeepCopyPlan {
	var plans []DeepCopyPlan
	if p.Body != nil {
		g.collect(p.Body, &plans)
	}
	return plans
}

func (g *Gate) collect(s *flow.Scope, out *[]DeepCopyPlan) {
	for _, st := range s.Stmts {
		switch st := st.(type) {
		case *flow.SpawnStmt:
			*out = append(*out, g.PlanSpawn(st))
		case *flow.IfStmt:
			g.collect(st.Then, out)
			if st.Else != nil {
				g.collect(st.Else, out)
			}
		case *flow.LoopStmt:
			g.collect(st.Body, out)
		case *flow.BlockStmt:
			g.collect(st.Body, out)
		}
	}
}
