package lifecycle

import (
	"testing"

	semver "github.com/Masterminds/semver/v3"
)

func TestDefaultPolicyWhitelist(t *testing.T) {
	p := DefaultPolicy()

	allowed := []ContextKind{ContextVarInit, ContextLetInit, ContextReturnValue, ContextResultAssign}
	for _, ctx := range allowed {
		if !p.Allows(ctx, nil) {
			t.Errorf("default policy must allow %s", ctx)
		}
	}
	if p.Allows(ContextOther, nil) {
		t.Error("default policy must forbid other contexts")
	}
}

func TestParsePolicy(t *testing.T) {
	data := []byte(`
contexts:
  - context: var-init
    allowed: true
  - context: return-value
    allowed: true
`)
	p, err := ParsePolicy(data)
	if err != nil {
		t.Fatalf("ParsePolicy failed: %v", err)
	}
	if !p.Allows(ContextVarInit, nil) {
		t.Error("parsed policy should allow var-init")
	}
	if p.Allows(ContextLetInit, nil) {
		t.Error("contexts without a rule are forbidden")
	}
}

func TestParsePolicyRejectsUnknownContext(t *testing.T) {
	data := []byte(`
contexts:
  - context: frobnicate
    allowed: true
`)
	if _, err := ParsePolicy(data); err == nil {
		t.Error("unknown context name should be rejected")
	}
}

func TestParsePolicyRejectsEmpty(t *testing.T) {
	if _, err := ParsePolicy([]byte("contexts: []")); err == nil {
		t.Error("empty policy should be rejected")
	}
}

func TestVersionGatedRule(t *testing.T) {
	data := []byte(`
contexts:
  - context: var-init
    allowed: true
  - context: other
    allowed: true
    since: ">=1.2.0"
`)
	p, err := ParsePolicy(data)
	if err != nil {
		t.Fatalf("ParsePolicy failed: %v", err)
	}

	old := semver.MustParse("1.1.0")
	next := semver.MustParse("1.3.0")

	if p.Allows(ContextOther, old) {
		t.Error("gated rule must not apply below its version")
	}
	if !p.Allows(ContextOther, next) {
		t.Error("gated rule must apply at or above its version")
	}
	if p.Allows(ContextOther, nil) {
		t.Error("nil language version skips gated rules")
	}
	if !p.Allows(ContextVarInit, old) {
		t.Error("ungated rules apply regardless of version")
	}
}

func TestParsePolicyRejectsBadConstraint(t *testing.T) {
	data := []byte(`
contexts:
  - context: var-init
    allowed: true
    since: "not a version"
`)
	if _, err := ParsePolicy(data); err == nil {
		t.Error("malformed version constraint should be rejected")
	}
}
