package flow

import (
	"github.com/vesper-lang/vesper/internal/position"
	"github.com/vesper-lang/vesper/internal/types"
)

// ====== Statements ======

// Stmt is implemented by all lowered statements.
type Stmt interface {
	isStmt()
	Span() position.Span
}

// VarDecl declares a mutable local with an initializer.
type VarDecl struct {
	Name string
	Type *types.Type
	Init Expr
	At   position.Span
}

// LetDecl declares an immutable local with an initializer.
type LetDecl struct {
	Name string
	Type *types.Type
	Init Expr
	At   position.Span
}

// AssignStmt assigns to an existing location.
type AssignStmt struct {
	Target Expr
	Value  Expr
	At     position.Span
}

// ResultAssign assigns to the implicit result location of the
// enclosing procedure.
type ResultAssign struct {
	Value Expr
	At    position.Span
}

// ReturnStmt returns from the enclosing procedure, optionally with a
// value.
type ReturnStmt struct {
	Value Expr // may be nil
	At    position.Span
}

// BreakStmt leaves the innermost loop.
type BreakStmt struct {
	At position.Span
}

// ContinueStmt restarts the innermost loop.
type ContinueStmt struct {
	At position.Span
}

// ExprStmt evaluates an expression for effect and discards the value.
type ExprStmt struct {
	X  Expr
	At position.Span
}

// SpawnStmt submits a call to another execution unit. The cross-thread
// gate deep-copies every argument at this boundary.
type SpawnStmt struct {
	Call *CallExpr
	At   position.Span
}

// IfStmt branches on a condition. Both arms are child scopes.
type IfStmt struct {
	Cond Expr
	Then *Scope
	Else *Scope // may be nil
	At   position.Span
}

// LoopStmt loops over its body scope until a break edge leaves it.
type LoopStmt struct {
	Body *Scope
	At   position.Span
}

// BlockStmt introduces a plain nested scope.
type BlockStmt struct {
	Body *Scope
	At   position.Span
}

func (s *VarDecl) isStmt()      {}
func (s *LetDecl) isStmt()      {}
func (s *AssignStmt) isStmt()   {}
func (s *ResultAssign) isStmt() {}
func (s *ReturnStmt) isStmt()   {}
func (s *BreakStmt) isStmt()    {}
func (s *ContinueStmt) isStmt() {}
func (s *ExprStmt) isStmt()     {}
func (s *SpawnStmt) isStmt()    {}
func (s *IfStmt) isStmt()       {}
func (s *LoopStmt) isStmt()     {}
func (s *BlockStmt) isStmt()    {}

func (s *VarDecl) Span() position.Span      { return s.At }
func (s *LetDecl) Span() position.Span      { return s.At }
func (s *AssignStmt) Span() position.Span   { return s.At }
func (s *ResultAssign) Span() position.Span { return s.At }
func (s *ReturnStmt) Span() position.Span   { return s.At }
func (s *BreakStmt) Span() position.Span    { return s.At }
func (s *ContinueStmt) Span() position.Span { return s.At }
func (s *ExprStmt) Span() position.Span     { return s.At }
func (s *SpawnStmt) Span() position.Span    { return s.At }
func (s *IfStmt) Span() position.Span       { return s.At }
func (s *LoopStmt) Span() position.Span     { return s.At }
func (s *BlockStmt) Span() position.Span    { return s.At }

// ====== Expressions ======

// Expr is implemented by all lowered expressions. Every expression
// carries the static type the front end resolved for it.
type Expr interface {
	isExpr()
	Type() *types.Type
	Span() position.Span
}

// NameExpr reads a local, parameter, or global.
type NameExpr struct {
	Name string
	Typ  *types.Type
	At   position.Span
}

// CallExpr calls a named procedure.
type CallExpr struct {
	Callee string
	Args   []Expr
	Typ    *types.Type // result type; void for pure statements
	At     position.Span
}

// ConstructExpr builds a value of an object, tuple, array, or sequence
// type in place.
type ConstructExpr struct {
	Typ  *types.Type
	Args []Expr
	At   position.Span
}

// LiteralExpr is a primitive constant.
type LiteralExpr struct {
	Value interface{}
	Typ   *types.Type
	At    position.Span
}

// FieldAccessExpr reads a field of an object value.
type FieldAccessExpr struct {
	X     Expr
	Field string
	Typ   *types.Type
	At    position.Span
}

func (e *NameExpr) isExpr()        {}
func (e *CallExpr) isExpr()        {}
func (e *ConstructExpr) isExpr()   {}
func (e *LiteralExpr) isExpr()     {}
func (e *FieldAccessExpr) isExpr() {}

func (e *NameExpr) Type() *types.Type        { return e.Typ }
func (e *CallExpr) Type() *types.Type        { return e.Typ }
func (e *ConstructExpr) Type() *types.Type   { return e.Typ }
func (e *LiteralExpr) Type() *types.Type     { return e.Typ }
func (e *FieldAccessExpr) Type() *types.Type { return e.Typ }

func (e *NameExpr) Span() position.Span        { return e.At }
func (e *CallExpr) Span() position.Span        { return e.At }
func (e *ConstructExpr) Span() position.Span   { return e.At }
func (e *LiteralExpr) Span() position.Span     { return e.At }
func (e *FieldAccessExpr) Span() position.Span { return e.At }
