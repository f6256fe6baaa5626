// Lexical scope and control-flow representation for the Vesper
// lifecycle middle-end. The front end lowers each procedure body into
// this form; the scope-exit inserter consumes it to schedule destructor
// calls on every edge that leaves a scope. Exit edges are enumerated
// explicitly rather than inferred from nesting, so early returns,
// breaks, and continues receive the same treatment as fallthrough.

package flow

import (
	"github.com/vesper-lang/vesper/internal/position"
	"github.com/vesper-lang/vesper/internal/types"
)

// Procedure is one lowered procedure body.
type Procedure struct {
	Name   string
	Params []Param
	Body   *Scope
	Span   position.Span
}

// Param is a procedure parameter. Parameters are never destroyed by
// scope-exit insertion; only locals declared inside a scope are.
type Param struct {
	Name string
	Type *types.Type
}

// Local is a variable declared inside a scope. Declaration order is
// significant: destructors run most-recently-declared first.
type Local struct {
	Name      string
	Type      *types.Type
	DeclIndex int // Statement index of the declaration within its scope
	// ConsumedAt is the statement index of a consuming use (an explicit
	// move recorded by the front end), or -1 while the local remains
	// live until scope exit.
	ConsumedAt int
	Span       position.Span
}

// Scope is a nested lexical region.
type Scope struct {
	Parent *Scope
	Locals []*Local
	Stmts  []Stmt
	Exits  []*ExitEdge
	// LoopBody marks the body scope of a loop; break and continue
	// unwind up to and including the innermost such scope.
	LoopBody bool
}

// EdgeKind classifies how control leaves a scope.
type EdgeKind int

const (
	EdgeFallthrough EdgeKind = iota
	EdgeReturn
	EdgeBreak
	EdgeContinue
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeFallthrough:
		return "fallthrough"
	case EdgeReturn:
		return "return"
	case EdgeBreak:
		return "break"
	case EdgeContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// ExitEdge records one way control leaves a scope. StmtIndex is the
// index of the top-level statement in this scope at which the edge
// departs; locals declared at an earlier index are live on the edge.
// For fallthrough edges StmtIndex equals len(Stmts).
type ExitEdge struct {
	Kind      EdgeKind
	StmtIndex int
	// Origin is the return/break/continue statement that produced the
	// edge; nil for fallthrough.
	Origin Stmt
	Span   position.Span
}

// LiveLocals returns the locals of s still live on the given edge, in
// declaration order.
func (s *Scope) LiveLocals(edge *ExitEdge) []*Local {
	var out []*Local
	for _, l := range s.Locals {
		if l.DeclIndex >= edge.StmtIndex {
			continue
		}
		if l.ConsumedAt >= 0 && l.ConsumedAt < edge.StmtIndex {
			continue
		}
		out = append(out, l)
	}
	return out
}

// InnermostLoop returns the nearest enclosing loop-body scope,
// including s itself, or nil.
func (s *Scope) InnermostLoop() *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.LoopBody {
			return cur
		}
	}
	return nil
}

// UnwindChain returns the scopes unwound when an edge of the given
// kind departs from s, innermost first. Fallthrough unwinds only s;
// return unwinds every scope up to the procedure root; break and
// continue unwind up to and including the innermost loop body (locals
// of the body die on every iteration).
func (s *Scope) UnwindChain(kind EdgeKind) []*Scope {
	switch kind {
	case EdgeFallthrough:
		return []*Scope{s}
	case EdgeReturn:
		var chain []*Scope
		for cur := s; cur != nil; cur = cur.Parent {
			chain = append(chain, cur)
		}
		return chain
	case EdgeBreak, EdgeContinue:
		var chain []*Scope
		for cur := s; cur != nil; cur = cur.Parent {
			chain = append(chain, cur)
			if cur.LoopBody {
				break
			}
		}
		return chain
	default:
		return nil
	}
}
