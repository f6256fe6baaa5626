// Package unitfile loads compilation units from a YAML description.
// The format exists for the CLI and for test corpora: front-end
// collaborators hand the analyzer in-memory units directly, while
// tooling describes the same shape declaratively and lets this package
// lower it into flow statements and operator declarations.
package unitfile

import (
	"fmt"
	"os"
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/vesper-lang/vesper/internal/analysis"
	"github.com/vesper-lang/vesper/internal/flow"
	"github.com/vesper-lang/vesper/internal/lifecycle"
	"github.com/vesper-lang/vesper/internal/position"
	"github.com/vesper-lang/vesper/internal/types"
)

// File is the top-level YAML document.
type File struct {
	Unit        string         `yaml:"unit"`
	LangVersion string         `yaml:"lang_version,omitempty"`
	Types       []typeDecl     `yaml:"types,omitempty"`
	Operators   []operatorDecl `yaml:"operators,omitempty"`
	Procedures  []procDecl     `yaml:"procedures,omitempty"`
}

// typeDecl declares one nominal type. Exactly one of Object, Distinct,
// or Generic names it.
type typeDecl struct {
	Object   string      `yaml:"object,omitempty"`
	Distinct string      `yaml:"distinct,omitempty"`
	Generic  string      `yaml:"generic,omitempty"`
	Base     string      `yaml:"base,omitempty"`
	Params   []string    `yaml:"params,omitempty"`
	Fields   []fieldDecl `yaml:"fields,omitempty"`

	line, col int
}

type fieldDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// operatorDecl spells a lifecycle operator. Parameter strings carry an
// optional passing mode prefix: "var T" passes by mutable reference,
// "const T" by immutable reference, a bare "T" by value.
type operatorDecl struct {
	Op     string   `yaml:"op"`
	Params []string `yaml:"params"`
	Result string   `yaml:"result,omitempty"`
	Impl   string   `yaml:"impl"`

	line, col int
}

type procDecl struct {
	Name   string      `yaml:"name"`
	Params []fieldDecl `yaml:"params,omitempty"`
	Body   []stmtNode  `yaml:"body"`

	line, col int
}

// stmtNode is the union of all statement forms, discriminated by Stmt:
// var, let, assign, result, return, break, continue, expr, spawn, if,
// loop, block.
type stmtNode struct {
	Stmt   string     `yaml:"stmt"`
	Name   string     `yaml:"name,omitempty"`
	Type   string     `yaml:"type,omitempty"`
	Init   *exprNode  `yaml:"init,omitempty"`
	Target *exprNode  `yaml:"target,omitempty"`
	Value  *exprNode  `yaml:"value,omitempty"`
	Expr   *exprNode  `yaml:"expr,omitempty"`
	Call   *exprNode  `yaml:"call,omitempty"`
	Cond   *exprNode  `yaml:"cond,omitempty"`
	Then   []stmtNode `yaml:"then,omitempty"`
	Else   []stmtNode `yaml:"else,omitempty"`
	Body   []stmtNode `yaml:"body,omitempty"`

	line, col int
}

// exprNode is the union of all expression forms, discriminated by Kind:
// call, name, lit, construct, field.
type exprNode struct {
	Kind   string      `yaml:"kind"`
	Callee string      `yaml:"callee,omitempty"`
	Name   string      `yaml:"name,omitempty"`
	Value  interface{} `yaml:"value,omitempty"`
	Of     *exprNode   `yaml:"of,omitempty"`
	Field  string      `yaml:"field,omitempty"`
	Args   []exprNode  `yaml:"args,omitempty"`
	Type   string      `yaml:"type,omitempty"`

	line, col int
}

func (d *typeDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain typeDecl
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*d = typeDecl(p)
	d.line, d.col = n.Line, n.Column
	return nil
}

func (d *operatorDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain operatorDecl
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*d = operatorDecl(p)
	d.line, d.col = n.Line, n.Column
	return nil
}

func (d *procDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain procDecl
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*d = procDecl(p)
	d.line, d.col = n.Line, n.Column
	return nil
}

func (d *stmtNode) UnmarshalYAML(n *yaml.Node) error {
	type plain stmtNode
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*d = stmtNode(p)
	d.line, d.col = n.Line, n.Column
	return nil
}

func (d *exprNode) UnmarshalYAML(n *yaml.Node) error {
	type plain exprNode
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*d = exprNode(p)
	d.line, d.col = n.Line, n.Column
	return nil
}

// Load reads and lowers a unit file from disk.
func Load(path string) (*analysis.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit file: %w", err)
	}
	return Parse(data, path)
}

// Parse lowers a YAML unit document into an analyzable unit. The
// filename only labels diagnostic positions.
func Parse(data []byte, filename string) (*analysis.Unit, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse unit file: %w", err)
	}
	if f.Unit == "" {
		return nil, fmt.Errorf("unit file is missing a unit name")
	}
	l := &loader{file: filename, universe: types.NewUniverse()}
	return l.build(&f)
}

type loader struct {
	file     string
	universe *types.Universe
}

// span synthesizes a source span from a YAML node position. Offsets are
// derived from line and column; diagnostics only need a total order.
func (l *loader) span(line, col int) position.Span {
	start := position.Position{Filename: l.file, Line: line, Column: col, Offset: line*1000 + col}
	end := start
	end.Column++
	end.Offset++
	return position.Span{Start: start, End: end}
}

func (l *loader) build(f *File) (*analysis.Unit, error) {
	unit := &analysis.Unit{Name: f.Unit, Universe: l.universe}

	if f.LangVersion != "" {
		v, err := semver.NewVersion(f.LangVersion)
		if err != nil {
			return nil, fmt.Errorf("lang_version %q: %w", f.LangVersion, err)
		}
		unit.LangVersion = v
	}

	if err := l.declareTypes(f.Types); err != nil {
		return nil, err
	}

	for i := range f.Operators {
		decl, err := l.operator(&f.Operators[i])
		if err != nil {
			return nil, err
		}
		unit.Operators = append(unit.Operators, decl)
	}

	for i := range f.Procedures {
		proc, err := l.procedure(&f.Procedures[i])
		if err != nil {
			return nil, err
		}
		unit.Procedures = append(unit.Procedures, proc)
	}
	return unit, nil
}

// declareTypes runs three passes so declaration order in the file never
// matters for objects: object and generic heads first, then distinct
// wrappers in file order, then object field lists, which may mention
// any nominal.
func (l *loader) declareTypes(decls []typeDecl) error {
	for i := range decls {
		d := &decls[i]
		at := l.span(d.line, d.col)
		switch {
		case d.Object != "":
			if _, err := l.universe.DeclareObject(d.Object, at); err != nil {
				return err
			}
		case d.Generic != "":
			if _, err := l.universe.DeclareGeneric(d.Generic, d.Params, at); err != nil {
				return err
			}
		case d.Distinct == "":
			return fmt.Errorf("type declaration at %s names no object, distinct, or generic", at)
		}
	}

	for i := range decls {
		d := &decls[i]
		if d.Distinct == "" {
			continue
		}
		base, err := ParseType(l.universe, d.Base)
		if err != nil {
			return fmt.Errorf("distinct %s: %w", d.Distinct, err)
		}
		if _, err := l.universe.DeclareDistinct(d.Distinct, base, l.span(d.line, d.col)); err != nil {
			return err
		}
	}

	for i := range decls {
		d := &decls[i]
		if d.Object == "" {
			continue
		}
		obj, _ := l.universe.Named(d.Object)
		var base *types.Type
		if d.Base != "" {
			var err error
			base, err = ParseType(l.universe, d.Base)
			if err != nil {
				return fmt.Errorf("object %s base: %w", d.Object, err)
			}
		}
		fields := make([]types.Field, len(d.Fields))
		for j, f := range d.Fields {
			ft, err := ParseType(l.universe, f.Type)
			if err != nil {
				return fmt.Errorf("object %s field %s: %w", d.Object, f.Name, err)
			}
			fields[j] = types.Field{Name: f.Name, Type: ft}
		}
		if err := l.universe.SetObjectFields(obj, base, fields...); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) operator(d *operatorDecl) (lifecycle.OperatorDecl, error) {
	var out lifecycle.OperatorDecl

	op, err := parseOpKind(d.Op)
	if err != nil {
		return out, err
	}
	out.Op = op
	out.Impl = d.Impl
	out.At = l.span(d.line, d.col)

	for _, p := range d.Params {
		mode, rest := parseMode(p)
		t, err := ParseType(l.universe, rest)
		if err != nil {
			return out, fmt.Errorf("operator %s: %w", d.Op, err)
		}
		out.Params = append(out.Params, lifecycle.OperatorParam{Type: t, Mode: mode})
	}
	if d.Result != "" {
		t, err := ParseType(l.universe, d.Result)
		if err != nil {
			return out, fmt.Errorf("operator %s result: %w", d.Op, err)
		}
		out.Result = t
	}
	return out, nil
}

func parseOpKind(s string) (lifecycle.OpKind, error) {
	for _, k := range lifecycle.OpKinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

func parseMode(s string) (lifecycle.ParamMode, string) {
	switch {
	case strings.HasPrefix(s, "var "):
		return lifecycle.ByMutRef, strings.TrimPrefix(s, "var ")
	case strings.HasPrefix(s, "const "):
		return lifecycle.ByConstRef, strings.TrimPrefix(s, "const ")
	}
	return lifecycle.ByValue, s
}

func (l *loader) procedure(d *procDecl) (*flow.Procedure, error) {
	p := &flow.Procedure{Name: d.Name, Span: l.span(d.line, d.col)}
	for _, pd := range d.Params {
		t, err := ParseType(l.universe, pd.Type)
		if err != nil {
			return nil, fmt.Errorf("procedure %s param %s: %w", d.Name, pd.Name, err)
		}
		p.Params = append(p.Params, flow.Param{Name: pd.Name, Type: t})
	}
	body, err := l.scope(d.Body)
	if err != nil {
		return nil, fmt.Errorf("procedure %s: %w", d.Name, err)
	}
	p.Body = body
	return p, nil
}

func (l *loader) scope(nodes []stmtNode) (*flow.Scope, error) {
	s := &flow.Scope{}
	for i := range nodes {
		st, err := l.stmt(&nodes[i])
		if err != nil {
			return nil, err
		}
		s.Stmts = append(s.Stmts, st)
	}
	return s, nil
}

func (l *loader) stmt(n *stmtNode) (flow.Stmt, error) {
	at := l.span(n.line, n.col)

	switch n.Stmt {
	case "var", "let":
		var declared *types.Type
		if n.Type != "" {
			var err error
			declared, err = ParseType(l.universe, n.Type)
			if err != nil {
				return nil, fmt.Errorf("declaration of %s: %w", n.Name, err)
			}
		}
		init, err := l.optExpr(n.Init)
		if err != nil {
			return nil, err
		}
		if declared == nil && init != nil {
			declared = init.Type()
		}
		if declared == nil {
			return nil, fmt.Errorf("declaration of %s at %s has no type", n.Name, at)
		}
		if n.Stmt == "var" {
			return &flow.VarDecl{Name: n.Name, Type: declared, Init: init, At: at}, nil
		}
		return &flow.LetDecl{Name: n.Name, Type: declared, Init: init, At: at}, nil

	case "assign":
		target, err := l.optExpr(n.Target)
		if err != nil {
			return nil, err
		}
		value, err := l.optExpr(n.Value)
		if err != nil {
			return nil, err
		}
		if target == nil || value == nil {
			return nil, fmt.Errorf("assign at %s needs target and value", at)
		}
		return &flow.AssignStmt{Target: target, Value: value, At: at}, nil

	case "result":
		value, err := l.optExpr(n.Value)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, fmt.Errorf("result at %s needs a value", at)
		}
		return &flow.ResultAssign{Value: value, At: at}, nil

	case "return":
		value, err := l.optExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &flow.ReturnStmt{Value: value, At: at}, nil

	case "break":
		return &flow.BreakStmt{At: at}, nil

	case "continue":
		return &flow.ContinueStmt{At: at}, nil

	case "expr":
		x, err := l.optExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		if x == nil {
			return nil, fmt.Errorf("expr statement at %s needs an expression", at)
		}
		return &flow.ExprStmt{X: x, At: at}, nil

	case "spawn":
		if n.Call == nil {
			return nil, fmt.Errorf("spawn at %s needs a call", at)
		}
		x, err := l.expr(n.Call)
		if err != nil {
			return nil, err
		}
		call, ok := x.(*flow.CallExpr)
		if !ok {
			return nil, fmt.Errorf("spawn at %s needs a call expression, got %q", at, n.Call.Kind)
		}
		return &flow.SpawnStmt{Call: call, At: at}, nil

	case "if":
		cond, err := l.optExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := l.scope(n.Then)
		if err != nil {
			return nil, err
		}
		st := &flow.IfStmt{Cond: cond, Then: then, At: at}
		if len(n.Else) > 0 {
			st.Else, err = l.scope(n.Else)
			if err != nil {
				return nil, err
			}
		}
		return st, nil

	case "loop":
		body, err := l.scope(n.Body)
		if err != nil {
			return nil, err
		}
		return &flow.LoopStmt{Body: body, At: at}, nil

	case "block":
		body, err := l.scope(n.Body)
		if err != nil {
			return nil, err
		}
		return &flow.BlockStmt{Body: body, At: at}, nil
	}

	return nil, fmt.Errorf("unknown statement kind %q at %s", n.Stmt, at)
}

func (l *loader) optExpr(e *exprNode) (flow.Expr, error) {
	if e == nil {
		return nil, nil
	}
	return l.expr(e)
}

func (l *loader) expr(e *exprNode) (flow.Expr, error) {
	at := l.span(e.line, e.col)

	var typ *types.Type
	if e.Type != "" {
		var err error
		typ, err = ParseType(l.universe, e.Type)
		if err != nil {
			return nil, fmt.Errorf("expression at %s: %w", at, err)
		}
	}

	args := make([]flow.Expr, 0, len(e.Args))
	for i := range e.Args {
		a, err := l.expr(&e.Args[i])
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}

	switch e.Kind {
	case "call":
		if e.Callee == "" {
			return nil, fmt.Errorf("call at %s has no callee", at)
		}
		return &flow.CallExpr{Callee: e.Callee, Args: args, Typ: typ, At: at}, nil
	case "name":
		return &flow.NameExpr{Name: e.Name, Typ: typ, At: at}, nil
	case "lit":
		return &flow.LiteralExpr{Value: e.Value, Typ: typ, At: at}, nil
	case "construct":
		if typ == nil {
			return nil, fmt.Errorf("construct at %s needs a type", at)
		}
		return &flow.ConstructExpr{Typ: typ, Args: args, At: at}, nil
	case "field":
		of, err := l.optExpr(e.Of)
		if err != nil {
			return nil, err
		}
		if of == nil {
			return nil, fmt.Errorf("field access at %s needs a receiver", at)
		}
		return &flow.FieldAccessExpr{X: of, Field: e.Field, Typ: typ, At: at}, nil
	}
	return nil, fmt.Errorf("unknown expression kind %q at %s", e.Kind, at)
}
