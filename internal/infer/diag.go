package infer

import (
	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/diagnostics"
)

// reportf builds and reports an error-severity Diagnostic; most driver
// diagnostics pass through it, while the name-resolution and reveal_type
// diagnostics are built by their own helpers and sent to c.Sink directly.
func (c *Checker) reportf(kind diagnostics.Kind, span *ast.Span, msg string) {
	c.Sink.Report(diagnostics.New(kind, msg, span))
}
