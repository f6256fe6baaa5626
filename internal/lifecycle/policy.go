package lifecycle

import (
	"fmt"
	"os"

	semver "github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ====== Destructible Contexts ======

// ContextKind tags the syntactic position an expression occupies.
type ContextKind int

const (
	ContextVarInit ContextKind = iota
	ContextLetInit
	ContextReturnValue
	ContextResultAssign
	ContextOther
)

func (c ContextKind) String() string {
	switch c {
	case ContextVarInit:
		return "var-init"
	case ContextLetInit:
		return "let-init"
	case ContextReturnValue:
		return "return-value"
	case ContextResultAssign:
		return "result-assignment"
	case ContextOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParseContextKind parses the spelling used in policy files.
func ParseContextKind(s string) (ContextKind, error) {
	switch s {
	case "var-init":
		return ContextVarInit, nil
	case "let-init":
		return ContextLetInit, nil
	case "return-value":
		return ContextReturnValue, nil
	case "result-assignment":
		return ContextResultAssign, nil
	case "other":
		return ContextOther, nil
	default:
		return ContextOther, fmt.Errorf("unknown destructible context %q", s)
	}
}

// ====== Policy Table ======

// Rule allows or forbids destructible values in one context kind,
// optionally gated on the unit's language version. The context
// whitelist is deliberately a policy table rather than hard-coded
// logic: the mechanism is provisional and later language versions
// widen it.
type Rule struct {
	Context ContextKind
	Allowed bool
	// Since is a semver constraint on the language version; an empty
	// constraint applies unconditionally.
	Since *semver.Constraints
}

// Policy is an ordered rule table. The first rule matching a context
// (and whose version gate is satisfied) decides; a context with no
// matching rule forbids destructible values.
type Policy struct {
	Rules []Rule
}

// DefaultPolicy returns the built-in whitelist: var-init, let-init,
// return-value, and result-assignment, unconditionally.
func DefaultPolicy() *Policy {
	return &Policy{Rules: []Rule{
		{Context: ContextVarInit, Allowed: true},
		{Context: ContextLetInit, Allowed: true},
		{Context: ContextReturnValue, Allowed: true},
		{Context: ContextResultAssign, Allowed: true},
	}}
}

// Allows reports whether a destructible value may occupy the given
// context under the given language version. A nil version skips every
// version-gated rule.
func (p *Policy) Allows(ctx ContextKind, langVersion *semver.Version) bool {
	for _, r := range p.Rules {
		if r.Context != ctx {
			continue
		}
		if r.Since != nil {
			if langVersion == nil || !r.Since.Check(langVersion) {
				continue
			}
		}
		return r.Allowed
	}
	return false
}

// ====== Policy Files ======

type policyFile struct {
	Contexts []policyRow `yaml:"contexts"`
}

type policyRow struct {
	Context string `yaml:"context"`
	Allowed bool   `yaml:"allowed"`
	Since   string `yaml:"since,omitempty"`
}

// LoadPolicy reads a policy table from a YAML file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy parses a YAML policy table.
func ParsePolicy(data []byte) (*Policy, error) {
	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	if len(pf.Contexts) == 0 {
		return nil, fmt.Errorf("policy file declares no contexts")
	}

	p := &Policy{}
	for _, row := range pf.Contexts {
		ctx, err := ParseContextKind(row.Context)
		if err != nil {
			return nil, err
		}
		rule := Rule{Context: ctx, Allowed: row.Allowed}
		if row.Since != "" {
			con, err := semver.NewConstraint(row.Since)
			if err != nil {
				return nil, fmt.Errorf("policy rule for %s: bad version constraint %q: %w", row.Context, row.Since, err)
			}
			rule.Since = con
		}
		p.Rules = append(p.Rules, rule)
	}
	return p, nil
}
