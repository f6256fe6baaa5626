// Package analysis orchestrates the lifecycle passes over one
// compilation unit: operator binding, destructible-context validation,
// scope-exit destructor scheduling, and cross-thread deep-copy
// planning. The pass is single-threaded and deterministic per unit;
// distinct units may run in parallel because registry bindings are
// read-only once the binder phase completes.
package analysis

import (
	"fmt"

	semver "github.com/Masterminds/semver/v3"

	"github.com/vesper-lang/vesper/internal/diagnostic"
	"github.com/vesper-lang/vesper/internal/flow"
	"github.com/vesper-lang/vesper/internal/lifecycle"
	"github.com/vesper-lang/vesper/internal/types"
)

// Unit is one resolved compilation unit as delivered by the front-end
// collaborators.
type Unit struct {
	Name        string
	LangVersion *semver.Version
	Universe    *types.Universe
	Operators   []lifecycle.OperatorDecl
	Procedures  []*flow.Procedure
	// Policy overrides the built-in destructible-context whitelist
	// when non-nil.
	Policy *lifecycle.Policy
}

// Result is the analysis output consumed by code generation and the
// diagnostics collaborator.
type Result struct {
	Annotations *lifecycle.Annotations
	Diagnostics []diagnostic.Diagnostic
	// Resolver exposes the resolve(type, kind) query to later phases;
	// its memo is fully warm for every type the unit mentions.
	Resolver *lifecycle.Resolver
}

// HasErrors reports whether any user-facing compile error was found.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Level == diagnostic.LevelError {
			return true
		}
	}
	return false
}

// Run executes the full pass. The returned error is non-nil only for
// fatal internal invariant violations (an unenumerated scope exit
// edge); user-facing compile errors are reported through
// Result.Diagnostics and analysis continues past them.
func Run(unit *Unit) (*Result, error) {
	diags := diagnostic.NewCollector()
	reg := lifecycle.NewRegistry()

	// Phase 1: bind all operator declarations. Offending declarations
	// are reported and treated as absent.
	binder := lifecycle.NewBinder(reg, diags)
	for _, decl := range unit.Operators {
		binder.BindOperator(decl)
	}
	reg.Freeze()

	res := lifecycle.NewResolver(reg, diags)
	validator := lifecycle.NewValidator(res, unit.Policy, unit.LangVersion, diags)
	inserter := lifecycle.NewInserter(res)
	gate := lifecycle.NewGate(res)

	ann := &lifecycle.Annotations{Unit: unit.Name}

	// Phase 2: per-procedure analysis.
	for _, proc := range unit.Procedures {
		if err := flow.Finalize(proc); err != nil {
			return nil, fmt.Errorf("procedure %s: %w", proc.Name, err)
		}

		validator.ValidateProcedure(proc)

		schedules, err := inserter.ComputeSchedules(proc)
		if err != nil {
			return nil, err
		}

		ann.Procedures = append(ann.Procedures, lifecycle.ProcedureAnnotations{
			Name:      proc.Name,
			Schedules: schedules,
			Spawns:    gate.PlanProcedure(proc),
		})
	}

	return &Result{
		Annotations: ann,
		Diagnostics: diags.Diagnostics(),
		Resolver:    res,
	}, nil
}
