package lifecycle

import (
	"github.com/vesper-lang/vesper/internal/diagnostic"
	"github.com/vesper-lang/vesper/internal/types"
)

// Binder validates lifecycle operator declarations and records them in
// the registry. An offending declaration produces a diagnostic and is
// treated as absent, so analysis continues to find further errors.
type Binder struct {
	reg   *Registry
	diags *diagnostic.Collector
}

// NewBinder creates a binder feeding the given registry and collector.
func NewBinder(reg *Registry, diags *diagnostic.Collector) *Binder {
	return &Binder{reg: reg, diags: diags}
}

// BindOperator validates one operator declaration and, if well formed,
// inserts its entry. The returned entry is nil when the declaration
// was rejected.
func (b *Binder) BindOperator(decl OperatorDecl) *BoundOperationEntry {
	switch decl.Op {
	case OpAssign:
		return b.bindAssign(decl)
	case OpDestroy:
		return b.bindDestroy(decl)
	case OpDeepCopy:
		return b.bindDeepCopy(decl)
	default:
		b.diags.Errorf(diagnostic.CodeInvalidSignature, decl.At, "",
			"unknown lifecycle operator")
		return nil
	}
}

// bindAssign checks the `=` contract: (var T, T) with a nominal
// receiver.
func (b *Binder) bindAssign(decl OperatorDecl) *BoundOperationEntry {
	if len(decl.Params) != 2 {
		b.diags.Errorf(diagnostic.CodeInvalidSignature, decl.At, "",
			"`=` requires exactly two parameters, got %d", len(decl.Params))
		return nil
	}
	dst, src := decl.Params[0], decl.Params[1]
	if dst.Mode != ByMutRef {
		b.diags.Errorf(diagnostic.CodeInvalidSignature, decl.At, dst.Type.String(),
			"first parameter of `=` must be a mutable reference")
		return nil
	}
	if src.Mode == ByMutRef {
		b.diags.Errorf(diagnostic.CodeInvalidSignature, decl.At, src.Type.String(),
			"second parameter of `=` must be passed by value or const reference")
		return nil
	}
	if dst.Type != src.Type {
		b.diags.Errorf(diagnostic.CodeInvalidSignature, decl.At, dst.Type.String(),
			"`=` parameters must name the same type, got %s and %s", dst.Type, src.Type)
		return nil
	}
	if !b.checkNominalReceiver(dst.Type, decl) {
		return nil
	}
	return b.record(decl, dst.Type, 0)
}

// bindDestroy checks the `=destroy` contract: a single concrete
// parameter of a nominal type.
func (b *Binder) bindDestroy(decl OperatorDecl) *BoundOperationEntry {
	if len(decl.Params) != 1 {
		b.diags.Errorf(diagnostic.CodeInvalidSignature, decl.At, "",
			"`=destroy` requires exactly one parameter, got %d", len(decl.Params))
		return nil
	}
	recv := decl.Params[0].Type
	if !b.checkNominalReceiver(recv, decl) {
		return nil
	}
	return b.record(decl, recv, 0)
}

// bindDeepCopy checks the `=deepCopy` contract: one ref- or
// ptr-indirection parameter, result type identical to it. The binding
// target is the pointee's nominal type, never the indirection itself.
func (b *Binder) bindDeepCopy(decl OperatorDecl) *BoundOperationEntry {
	if len(decl.Params) != 1 {
		b.diags.Errorf(diagnostic.CodeInvalidSignature, decl.At, "",
			"`=deepCopy` requires exactly one parameter, got %d", len(decl.Params))
		return nil
	}
	param := decl.Params[0].Type
	if !param.IsIndirection() {
		b.diags.Errorf(diagnostic.CodeInvalidSignature, decl.At, param.String(),
			"`=deepCopy` parameter must be a ref or ptr type, got %s", param)
		return nil
	}
	if decl.Result == nil || decl.Result != param {
		b.diags.Errorf(diagnostic.CodeInvalidSignature, decl.At, param.String(),
			"`=deepCopy` must return its parameter type %s", param)
		return nil
	}
	pointee := param.Pointee()
	if !b.checkNominalReceiver(pointee, decl) {
		return nil
	}

	if existing, ok := b.reg.Lookup(pointee, OpDeepCopy); ok {
		if existing.Indirection != param.Kind {
			// Bound through both ref and ptr spellings; the user must
			// introduce a distinct wrapper for one of the two.
			b.diags.Errorf(diagnostic.CodeConflictingIndirectionBinding, decl.At, pointee.String(),
				"`=deepCopy` already bound to %s through %s; cannot bind again through %s",
				pointee, existing.Indirection, param.Kind)
		} else {
			b.diags.Errorf(diagnostic.CodeDuplicateBinding, decl.At, pointee.String(),
				"`=deepCopy` already bound for %s", pointee)
		}
		return nil
	}
	return b.record(decl, pointee, param.Kind)
}

// checkNominalReceiver rejects compound built-in types, indirections,
// and primitives as binding targets.
func (b *Binder) checkNominalReceiver(recv *types.Type, decl OperatorDecl) bool {
	if recv == nil || !recv.IsNominal() {
		name := ""
		if recv != nil {
			name = recv.String()
		}
		b.diags.Errorf(diagnostic.CodeNonNominalReceiver, decl.At, name,
			"%s receiver must be a nominal object, distinct, or generic type", decl.Op)
		return false
	}
	return true
}

// record performs the duplicate check and registry insertion shared by
// all three operators.
func (b *Binder) record(decl OperatorDecl, receiver *types.Type, indirection types.Kind) *BoundOperationEntry {
	if _, ok := b.reg.Lookup(receiver, decl.Op); ok {
		b.diags.Errorf(diagnostic.CodeDuplicateBinding, decl.At, receiver.String(),
			"%s already bound for %s", decl.Op, receiver)
		return nil
	}
	entry := &BoundOperationEntry{
		Op:          decl.Op,
		Receiver:    receiver,
		Indirection: indirection,
		Impl:        decl.Impl,
		Decl:        decl,
	}
	if err := b.reg.Bind(entry); err != nil {
		// Unreachable after the lookup above unless the registry was
		// frozen early; surface it as a duplicate either way.
		b.diags.Errorf(diagnostic.CodeDuplicateBinding, decl.At, receiver.String(), "%v", err)
		return nil
	}
	return entry
}
