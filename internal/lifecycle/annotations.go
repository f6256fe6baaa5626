package lifecycle

import (
	"fmt"
	"strings"
)

// ProcedureAnnotations carries the program points synthesized for one
// procedure: destructor schedules per exit edge and deep-copy plans
// per spawn. Code generation consumes these to emit the actual calls.
type ProcedureAnnotations struct {
	Name      string
	Schedules []EdgeSchedule
	Spawns    []DeepCopyPlan
}

// Annotations is the full analysis output of a compilation unit.
type Annotations struct {
	Unit       string
	Procedures []ProcedureAnnotations
}

// DescribeOp renders an effective operation for dumps and diagnostics.
func DescribeOp(op *EffectiveOperation) string {
	switch op.Origin {
	case OriginOverride:
		return fmt.Sprintf("override %s", op.Entry.Impl)
	case OriginLifted:
		return fmt.Sprintf("lifted over %d slot(s)", len(op.Steps))
	default:
		return "default"
	}
}

// Dump renders the annotations in a stable text form used by the CLI
// and golden tests.
func (a *Annotations) Dump() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "unit %s\n", a.Unit)

	for _, p := range a.Procedures {
		fmt.Fprintf(&sb, "procedure %s\n", p.Name)

		for _, sched := range p.Schedules {
			if sched.Span.IsValid() {
				fmt.Fprintf(&sb, "  exit %s at %s\n", sched.Kind, sched.Span)
			} else {
				fmt.Fprintf(&sb, "  exit %s\n", sched.Kind)
			}
			if len(sched.Calls) == 0 {
				sb.WriteString("    (no destructor calls)\n")
				continue
			}
			for _, call := range sched.Calls {
				fmt.Fprintf(&sb, "    destroy %s: %s [%s]\n", call.Local, call.Type, DescribeOp(call.Op))
			}
		}

		for _, plan := range p.Spawns {
			if plan.At.IsValid() {
				fmt.Fprintf(&sb, "  spawn %s at %s\n", plan.Callee, plan.At)
			} else {
				fmt.Fprintf(&sb, "  spawn %s\n", plan.Callee)
			}
			for _, arg := range plan.Args {
				switch arg.Decision {
				case CopyClone:
					fmt.Fprintf(&sb, "    arg %d: %s = structural-clone\n", arg.Index, arg.Type)
				default:
					fmt.Fprintf(&sb, "    arg %d: %s = %s [%s]\n", arg.Index, arg.Type, arg.Decision, DescribeOp(arg.Op))
				}
			}
		}
	}
	return sb.String()
}
