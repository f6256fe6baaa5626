package flow

import (
	"fmt"
)

// Finalize derives the locals and exit-edge sets of every scope in the
// procedure from its statement tree. It must run after lowering and
// before scope-exit insertion; the inserter treats a return, break, or
// continue statement without a recorded edge as a fatal invariant
// violation.
func Finalize(p *Procedure) error {
	if p.Body == nil {
		return fmt.Errorf("procedure %s has no body", p.Name)
	}
	w := &edgeWalker{}
	return w.scope(p.Body)
}

type frame struct {
	scope *Scope
	idx   int
}

type edgeWalker struct {
	stack []frame
}

func (w *edgeWalker) scope(s *Scope) error {
	s.Locals = nil
	s.Exits = nil
	w.stack = append(w.stack, frame{scope: s})
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()

	for i, st := range s.Stmts {
		w.stack[len(w.stack)-1].idx = i

		switch st := st.(type) {
		case *VarDecl:
			s.Locals = append(s.Locals, &Local{
				Name: st.Name, Type: st.Type, DeclIndex: i, ConsumedAt: -1, Span: st.At,
			})
		case *LetDecl:
			s.Locals = append(s.Locals, &Local{
				Name: st.Name, Type: st.Type, DeclIndex: i, ConsumedAt: -1, Span: st.At,
			})
		case *ReturnStmt:
			w.emit(EdgeReturn, st)
		case *BreakStmt:
			if s.InnermostLoop() == nil {
				return fmt.Errorf("break outside loop at %s", st.At)
			}
			w.emit(EdgeBreak, st)
		case *ContinueStmt:
			if s.InnermostLoop() == nil {
				return fmt.Errorf("continue outside loop at %s", st.At)
			}
			w.emit(EdgeContinue, st)
		case *IfStmt:
			st.Then.Parent = s
			if err := w.scope(st.Then); err != nil {
				return err
			}
			if st.Else != nil {
				st.Else.Parent = s
				if err := w.scope(st.Else); err != nil {
					return err
				}
			}
		case *LoopStmt:
			st.Body.Parent = s
			st.Body.LoopBody = true
			if err := w.scope(st.Body); err != nil {
				return err
			}
		case *BlockStmt:
			st.Body.Parent = s
			if err := w.scope(st.Body); err != nil {
				return err
			}
		}
	}

	if CanFallThrough(s.Stmts) {
		s.Exits = append(s.Exits, &ExitEdge{
			Kind:      EdgeFallthrough,
			StmtIndex: len(s.Stmts),
		})
	}
	return nil
}

// emit records the edge produced by a return/break/continue statement
// on every scope it unwinds. The edge's StmtIndex in an enclosing
// scope is the index of the top-level statement there that contains
// the origin, so liveness checks see exactly the locals declared
// before control entered that statement.
func (w *edgeWalker) emit(kind EdgeKind, origin Stmt) {
	current := w.stack[len(w.stack)-1].scope
	chain := current.UnwindChain(kind)

	for _, sc := range chain {
		idx := -1
		for _, f := range w.stack {
			if f.scope == sc {
				idx = f.idx
				break
			}
		}
		if idx < 0 {
			continue
		}
		sc.Exits = append(sc.Exits, &ExitEdge{
			Kind:      kind,
			StmtIndex: idx,
			Origin:    origin,
			Span:      origin.Span(),
		})
	}
}

// CanFallThrough reports whether control can reach the end of a
// statement list. A trailing return/break/continue seals the scope;
// anything else, including an if whose arms both terminate, keeps the
// fallthrough edge. The extra edge on a provably sealed if is harmless:
// its schedule is computed but never reached.
func CanFallThrough(stmts []Stmt) bool {
	if len(stmts) == 0 {
		return true
	}
	switch stmts[len(stmts)-1].(type) {
	case *ReturnStmt, *BreakStmt, *ContinueStmt:
		return false
	default:
		return true
	}
}
