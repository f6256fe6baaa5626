package diagnostic

import (
	"strings"
	"testing"

	"github.com/vesper-lang/vesper/internal/position"
)

func spanAt(file string, line, offset int) position.Span {
	return position.Span{
		Start: position.Position{Filename: file, Line: line, Column: 1, Offset: offset},
		End:   position.Position{Filename: file, Line: line, Column: 10, Offset: offset + 9},
	}
}

func TestCollectorDeduplicatesSameSite(t *testing.T) {
	c := NewCollector()
	span := spanAt("a.vsp", 3, 30)

	// Repeated resolver queries against the same construct must
	// surface exactly one diagnostic.
	for i := 0; i < 5; i++ {
		c.Errorf(CodeUnresolvableRecursiveType, span, "Node", "type %s is recursive without indirection", "Node")
	}

	if c.Count() != 1 {
		t.Fatalf("expected 1 diagnostic after dedup, got %d", c.Count())
	}
}

func TestCollectorDistinctSitesNotDeduplicated(t *testing.T) {
	c := NewCollector()
	c.Errorf(CodeIllegalDestructibleUsage, spanAt("a.vsp", 3, 30), "Resource", "bare use")
	c.Errorf(CodeIllegalDestructibleUsage, spanAt("a.vsp", 9, 90), "Resource", "bare use")

	if c.Count() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", c.Count())
	}
}

func TestCollectorSortsByPosition(t *testing.T) {
	c := NewCollector()
	c.Errorf(CodeInvalidSignature, spanAt("a.vsp", 9, 90), "", "later")
	c.Errorf(CodeDuplicateBinding, spanAt("a.vsp", 2, 12), "", "earlier")

	diags := c.Diagnostics()
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(diags))
	}
	if diags[0].Code != CodeDuplicateBinding {
		t.Errorf("expected position-sorted output, got %s first", diags[0].Code)
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Code:     CodeIllegalDestructibleUsage,
		Level:    LevelError,
		Message:  "destructible value used as bare statement",
		TypeName: "Resource",
		Span:     spanAt("main.vsp", 4, 44),
	}

	s := d.String()
	for _, want := range []string{"main.vsp:4", "error", "LC0006", "Resource"} {
		if !strings.Contains(s, want) {
			t.Errorf("diagnostic string %q missing %q", s, want)
		}
	}
}

func TestHasErrors(t *testing.T) {
	c := NewCollector()
	if c.HasErrors() {
		t.Error("empty collector should have no errors")
	}

	c.Add(Diagnostic{Code: CodeDuplicateBinding, Level: LevelWarning, Message: "w"})
	if c.HasErrors() {
		t.Error("warning alone should not count as error")
	}

	c.Add(Diagnostic{Code: CodeInvalidSignature, Level: LevelError, Message: "e"})
	if !c.HasErrors() {
		t.Error("expected HasErrors after error-level diagnostic")
	}
}
