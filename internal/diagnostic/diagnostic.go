// Diagnostic system for the Vesper lifecycle middle-end.
// Provides structured compile errors with stable codes, source spans,
// and duplicate suppression so repeated resolver queries against the
// same offending construct surface exactly one diagnostic.

package diagnostic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vesper-lang/vesper/internal/position"
)

// Level represents the severity level of a diagnostic message.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Code identifies a diagnostic kind. Codes are stable across releases;
// tooling keys on them.
type Code string

const (
	// Operation Binder errors.
	CodeDuplicateBinding              Code = "LC0001"
	CodeInvalidSignature              Code = "LC0002"
	CodeNonNominalReceiver            Code = "LC0003"
	CodeConflictingIndirectionBinding Code = "LC0004"

	// Lifting Resolver errors.
	CodeUnresolvableRecursiveType Code = "LC0005"

	// Context Validator errors.
	CodeIllegalDestructibleUsage Code = "LC0006"

	// Internal invariant violations. Reported for completeness; the
	// corresponding Go error aborts the unit before codegen.
	CodeMissingScopeExitEdge Code = "LC0007"
)

func (c Code) String() string { return string(c) }

// Title returns a short human-readable name for the code.
func (c Code) Title() string {
	switch c {
	case CodeDuplicateBinding:
		return "duplicate lifecycle binding"
	case CodeInvalidSignature:
		return "invalid lifecycle operator signature"
	case CodeNonNominalReceiver:
		return "lifecycle operator receiver is not a nominal type"
	case CodeConflictingIndirectionBinding:
		return "conflicting deep-copy indirection binding"
	case CodeUnresolvableRecursiveType:
		return "unresolvable recursive type"
	case CodeIllegalDestructibleUsage:
		return "destructible value in illegal context"
	case CodeMissingScopeExitEdge:
		return "scope exit edge not enumerated"
	default:
		return "unknown diagnostic"
	}
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Code     Code
	Level    Level
	Message  string
	TypeName string // Offending type, if any
	Span     position.Span
}

// String renders the diagnostic in the compiler's one-line format.
func (d Diagnostic) String() string {
	var sb strings.Builder
	if d.Span.IsValid() {
		sb.WriteString(d.Span.String())
		sb.WriteString(": ")
	}
	sb.WriteString(d.Level.String())
	sb.WriteString("[")
	sb.WriteString(string(d.Code))
	sb.WriteString("]: ")
	sb.WriteString(d.Message)
	if d.TypeName != "" {
		sb.WriteString(fmt.Sprintf(" (type %s)", d.TypeName))
	}
	return sb.String()
}

// dedupKey identifies an offending construct. One diagnostic per
// (code, site, type) no matter how many times analysis revisits it.
type dedupKey struct {
	code     Code
	typeName string
	start    position.Position
}

// Collector accumulates diagnostics during an analysis run.
type Collector struct {
	diags []Diagnostic
	seen  map[dedupKey]bool
}

// NewCollector creates an empty diagnostic collector.
func NewCollector() *Collector {
	return &Collector{
		diags: []Diagnostic{},
		seen:  make(map[dedupKey]bool),
	}
}

// Add records a diagnostic unless one with the same code, site, and
// type has already been recorded.
func (c *Collector) Add(d Diagnostic) {
	key := dedupKey{code: d.Code, typeName: d.TypeName, start: d.Span.Start}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.diags = append(c.diags, d)
}

// Errorf records an error-level diagnostic with a formatted message.
func (c *Collector) Errorf(code Code, span position.Span, typeName, format string, args ...interface{}) {
	c.Add(Diagnostic{
		Code:     code,
		Level:    LevelError,
		Message:  fmt.Sprintf(format, args...),
		TypeName: typeName,
		Span:     span,
	})
}

// HasErrors returns true if any error-level diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// Count returns the number of recorded diagnostics.
func (c *Collector) Count() int { return len(c.diags) }

// Diagnostics returns recorded diagnostics sorted by source position,
// then by code for diagnostics at the same position.
func (c *Collector) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Start != out[j].Span.Start {
			return out[i].Span.Start.Before(out[j].Span.Start)
		}
		return out[i].Code < out[j].Code
	})
	return out
}
