package diagnostics

// Sink collects diagnostics during one inference pass, with a suppression
// stack so speculative sub-computations (spec.md §4.2 "multi-inference":
// re-running expression inference under a second reachability predicate to
// reconcile narrowing) can explore a branch without polluting the final
// report if that branch is discarded.
type Sink struct {
	diags     []*Diagnostic
	suppressed int // depth of nested Suppress() calls currently active
}

// NewSink creates an empty diagnostic collector.
func NewSink() *Sink { return &Sink{} }

// Report records d unless suppression is currently active.
func (s *Sink) Report(d *Diagnostic) {
	if s.suppressed > 0 {
		return
	}
	s.diags = append(s.diags, d)
}

// Suppress runs fn with reporting disabled, for speculative inference
// passes whose diagnostics should never reach the final report regardless
// of outcome. Nests correctly: an outer Suppress stays in effect across an
// inner one.
func (s *Sink) Suppress(fn func()) {
	s.suppressed++
	defer func() { s.suppressed-- }()
	fn()
}

// All returns every diagnostic reported outside of suppression, in report
// order.
func (s *Sink) All() []*Diagnostic {
	return s.diags
}
