// Shared fixtures for the lifecycle package tests.

package lifecycle

import (
	"github.com/vesper-lang/vesper/internal/diagnostic"
	"github.com/vesper-lang/vesper/internal/position"
	"github.com/vesper-lang/vesper/internal/types"
)

func testSpan(line int) position.Span {
	return position.Span{
		Start: position.Position{Filename: "test.vsp", Line: line, Column: 1, Offset: line * 100},
		End:   position.Position{Filename: "test.vsp", Line: line, Column: 30, Offset: line*100 + 29},
	}
}

type testEnv struct {
	universe *types.Universe
	reg      *Registry
	diags    *diagnostic.Collector
	binder   *Binder
}

func newTestEnv() *testEnv {
	reg := NewRegistry()
	diags := diagnostic.NewCollector()
	return &testEnv{
		universe: types.NewUniverse(),
		reg:      reg,
		diags:    diags,
		binder:   NewBinder(reg, diags),
	}
}

func (e *testEnv) resolver() *Resolver {
	e.reg.Freeze()
	return NewResolver(e.reg, e.diags)
}

// declareResource registers an object type with one int64 field.
func (e *testEnv) declareResource(name string, line int) *types.Type {
	intT, _ := e.universe.Named("int64")
	t, err := e.universe.DeclareObject(name, testSpan(line), types.Field{Name: "handle", Type: intT})
	if err != nil {
		panic(err)
	}
	return t
}

func destroyDecl(recv *types.Type, impl string, line int) OperatorDecl {
	return OperatorDecl{
		Op:     OpDestroy,
		Params: []OperatorParam{{Type: recv, Mode: ByValue}},
		Impl:   impl,
		At:     testSpan(line),
	}
}

func assignDecl(recv *types.Type, impl string, line int) OperatorDecl {
	return OperatorDecl{
		Op: OpAssign,
		Params: []OperatorParam{
			{Type: recv, Mode: ByMutRef},
			{Type: recv, Mode: ByConstRef},
		},
		Impl: impl,
		At:   testSpan(line),
	}
}

func deepCopyDecl(param *types.Type, impl string, line int) OperatorDecl {
	return OperatorDecl{
		Op:     OpDeepCopy,
		Params: []OperatorParam{{Type: param, Mode: ByValue}},
		Result: param,
		Impl:   impl,
		At:     testSpan(line),
	}
}

func (e *testEnv) countCode(code diagnostic.Code) int {
	n := 0
	for _, d := range e.diags.Diagnostics() {
		if d.Code == code {
			n++
		}
	}
	return n
}
