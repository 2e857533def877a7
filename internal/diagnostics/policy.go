package diagnostics

import "gopkg.in/yaml.v3"

// Policy maps a diagnostic Kind to the severity it should render at, with
// "disabled" meaning fully suppressed (spec.md §4.7 "severity-policy
// injection point"). It is loaded from the host's config file the same way
// the teacher loads its own YAML-based manifests — gopkg.in/yaml.v3 rather
// than hand-rolled parsing.
type Policy struct {
	Overrides map[Kind]string `yaml:"rules"`
}

// DefaultPolicy returns every Kind at its Diagnostic-constructed default
// (SeverityError from New, SeverityInfo from NewInfo), with no overrides.
func DefaultPolicy() *Policy {
	return &Policy{Overrides: make(map[Kind]string)}
}

// LoadPolicyYAML parses a severity-policy document of the form:
//
//	rules:
//	  possibly-unresolved-reference: warning
//	  redundant-cast: disabled
func LoadPolicyYAML(data []byte) (*Policy, error) {
	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Resolve returns the severity d should render at under p, and whether it
// should be emitted at all (false if its policy entry is "disabled").
func (p *Policy) Resolve(d *Diagnostic) (Severity, bool) {
	override, ok := p.Overrides[d.Kind]
	if !ok {
		return d.Severity, true
	}
	switch override {
	case "error":
		return SeverityError, true
	case "warning":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	case "disabled":
		return d.Severity, false
	default:
		return d.Severity, true
	}
}

// Apply filters and re-severities a batch of diagnostics under p, the
// single point every diagnostic passes through before reaching a renderer
// or the JSON output (spec.md §4.7).
func (p *Policy) Apply(diags []*Diagnostic) []*Diagnostic {
	out := make([]*Diagnostic, 0, len(diags))
	for _, d := range diags {
		sev, keep := p.Resolve(d)
		if !keep {
			continue
		}
		d.Severity = sev
		out = append(out, d)
	}
	return out
}
