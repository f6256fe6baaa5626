package lifecycle

import (
	"fmt"

	"github.com/vesper-lang/vesper/internal/flow"
	"github.com/vesper-lang/vesper/internal/position"
	"github.com/vesper-lang/vesper/internal/types"
)

// DestructorCall is one scheduled destructor invocation for a local
// still live on an exit edge.
type DestructorCall struct {
	Local string
	Type  *types.Type
	Op    *EffectiveOperation
}

// EdgeSchedule is the complete destructor schedule of one exit edge:
// the locals of every unwound scope, innermost scope first, each
// scope's locals most-recently-declared first.
type EdgeSchedule struct {
	Kind  flow.EdgeKind
	Span  position.Span // Origin statement span; zero for fallthrough
	Calls []DestructorCall
}

// MissingScopeExitEdgeError reports a control-flow edge leaving a
// scope that was never enumerated. This is an internal invariant
// violation from upstream CFG construction and aborts the unit: the
// inserter cannot produce a correct schedule from an incomplete edge
// set.
type MissingScopeExitEdgeError struct {
	Procedure string
	Kind      flow.EdgeKind
	At        position.Span
}

func (e *MissingScopeExitEdgeError) Error() string {
	return fmt.Sprintf("internal: %s edge at %s in procedure %s has no enumerated scope exit",
		e.Kind, e.At, e.Procedure)
}

// Inserter computes per-exit-edge destructor schedules. Only locals
// introduced by a declaration inside a scope are destroyed; parameters
// never are.
type Inserter struct {
	res *Resolver
}

// NewInserter creates a scope-exit inserter over a resolver.
func NewInserter(res *Resolver) *Inserter {
	return &Inserter{res: res}
}

// ComputeSchedules walks every scope of the procedure and returns one
// schedule per exit edge, in source order. Early-exit edges receive
// the same treatment as fallthrough: the set of live destructible
// locals at the edge, destroyed in reverse declaration order, unwound
// scope by scope.
func (ins *Inserter) ComputeSchedules(p *flow.Procedure) ([]EdgeSchedule, error) {
	if p.Body == nil {
		return nil, nil
	}
	var out []EdgeSchedule
	if err := ins.scope(p, p.Body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (ins *Inserter) scope(p *flow.Procedure, s *flow.Scope, out *[]EdgeSchedule) error {
	for _, st := range s.Stmts {
		switch st := st.(type) {
		case *flow.ReturnStmt:
			if err := ins.earlyExit(p, s, flow.EdgeReturn, st, out); err != nil {
				return err
			}
		case *flow.BreakStmt:
			if err := ins.earlyExit(p, s, flow.EdgeBreak, st, out); err != nil {
				return err
			}
		case *flow.ContinueStmt:
			if err := ins.earlyExit(p, s, flow.EdgeContinue, st, out); err != nil {
				return err
			}
		case *flow.IfStmt:
			if err := ins.scope(p, st.Then, out); err != nil {
				return err
			}
			if st.Else != nil {
				if err := ins.scope(p, st.Else, out); err != nil {
					return err
				}
			}
		case *flow.LoopStmt:
			if err := ins.scope(p, st.Body, out); err != nil {
				return err
			}
		case *flow.BlockStmt:
			if err := ins.scope(p, st.Body, out); err != nil {
				return err
			}
		}
	}
	return ins.fallthroughExit(p, s, out)
}

// earlyExit assembles the schedule of a return/break/continue
// statement from the edges recorded on every scope it unwinds.
func (ins *Inserter) earlyExit(p *flow.Procedure, s *flow.Scope, kind flow.EdgeKind, origin flow.Stmt, out *[]EdgeSchedule) error {
	sched := EdgeSchedule{Kind: kind, Span: origin.Span()}

	for _, sc := range s.UnwindChain(kind) {
		edge := findEdge(sc, origin)
		if edge == nil {
			return &MissingScopeExitEdgeError{Procedure: p.Name, Kind: kind, At: origin.Span()}
		}
		sched.Calls = append(sched.Calls, ins.scopeCalls(sc, edge)...)
	}

	*out = append(*out, sched)
	return nil
}

// fallthroughExit emits the schedule for normal completion of a scope.
func (ins *Inserter) fallthroughExit(p *flow.Procedure, s *flow.Scope, out *[]EdgeSchedule) error {
	var edge *flow.ExitEdge
	for _, e := range s.Exits {
		if e.Kind == flow.EdgeFallthrough {
			edge = e
			break
		}
	}
	if edge == nil {
		if flow.CanFallThrough(s.Stmts) {
			return &MissingScopeExitEdgeError{Procedure: p.Name, Kind: flow.EdgeFallthrough}
		}
		return nil
	}

	*out = append(*out, EdgeSchedule{
		Kind:  flow.EdgeFallthrough,
		Calls: ins.scopeCalls(s, edge),
	})
	return nil
}

// scopeCalls returns the destructor calls for one scope on one edge:
// live destructible locals, most-recently-declared first.
func (ins *Inserter) scopeCalls(s *flow.Scope, edge *flow.ExitEdge) []DestructorCall {
	live := s.LiveLocals(edge)
	var calls []DestructorCall
	for i := len(live) - 1; i >= 0; i-- {
		l := live[i]
		op := ins.res.Resolve(l.Type, OpDestroy)
		if op.IsDefault() {
			continue
		}
		calls = append(calls, DestructorCall{Local: l.Name, Type: l.Type, Op: op})
	}
	return calls
}

func findEdge(s *flow.Scope, origin flow.Stmt) *flow.ExitEdge {
	for _, e := range s.Exits {
		if e.Origin == origin {
			return e
		}
	}
	return nil
}
