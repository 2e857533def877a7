// Command pytc is a small demo driver over the inference core: since the
// parser and semantic-index builder that would normally feed it are out
// of scope for this core (internal/ast's own package doc), `check` runs
// the checker over a fixed built-in module fixture rather than a real
// source file, the same role AILANG's own `check` subcommand plays for
// its (also separately-built) lexer/parser pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/diagnostics"
	"github.com/prismafold/pytc/internal/index"
	"github.com/prismafold/pytc/internal/infer"
)

var (
	Version = "dev"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var policyPath string
	var dumpCache bool

	check := &cobra.Command{
		Use:   "check",
		Short: "Type-check the built-in demo module and report diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(policyPath, dumpCache)
		},
	}
	check.Flags().StringVar(&policyPath, "policy", "", "path to a severity-policy YAML file")
	check.Flags().BoolVar(&dumpCache, "dump-cache", false, "dump the interning pool and query cache after checking")

	repl := &cobra.Command{
		Use:   "repl",
		Short: "Explore reveal_type interactively against the demo module",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl()
		},
	}

	root := &cobra.Command{
		Use:   "pytc",
		Short: "A static gradual type-checking core for Python",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.AddCommand(check, repl, &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("pytc %s\n", bold(Version))
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}
}

// normalizeMessage applies the same NFC normalization the teacher's lexer
// applies at its input boundary (internal/lexer/normalize.go), so a
// diagnostic message built by concatenating fragments of source text
// (identifier names, literal contents) renders with one canonical encoding
// regardless of the combining-form the original source used.
func normalizeMessage(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

func runCheck(policyPath string, dumpCache bool) error {
	policy := diagnostics.DefaultPolicy()
	if policyPath != "" {
		data, err := os.ReadFile(policyPath)
		if err != nil {
			return fmt.Errorf("reading policy file: %w", err)
		}
		policy, err = diagnostics.LoadPolicyYAML(data)
		if err != nil {
			return fmt.Errorf("parsing policy file: %w", err)
		}
	}

	mod, ix := demoModule()
	c := infer.NewChecker(mod, infer.NewIndexBundle(ix))

	fmt.Printf("%s Checking %s...\n", cyan("→"), mod.Path)
	c.CheckModule()

	if dumpCache {
		fmt.Println(dim("--- interning pool ---"))
		spew.Dump(c.Pool)
		fmt.Println(dim("--- query cache ---"))
		spew.Dump(c.Cache)
	}

	diags := policy.Apply(c.Sink.All())
	if len(diags) == 0 {
		fmt.Printf("\n%s No errors found!\n", green("✓"))
		return nil
	}

	for _, d := range diags {
		label := red("error")
		switch d.Severity {
		case diagnostics.SeverityWarning:
			label = yellow("warning")
		case diagnostics.SeverityInfo:
			label = cyan("info")
		}
		pos := ""
		if d.Span != nil {
			pos = d.Span.Start.String() + ": "
		}
		fmt.Printf("  %s%s %s: %s\n", pos, label, d.Kind, normalizeMessage(d.Message))
	}
	return fmt.Errorf("%d diagnostic(s) reported", len(diags))
}

// demoModule builds a small fixed module exercising several of the
// checker's inference paths end to end: literal arithmetic, a
// union-context annotated assignment, a class with synthesized fields,
// and an unresolved reference. Node ids are assigned sequentially since
// this fixture stands in for a real incremental parse.
func demoModule() (*ast.Module, *index.SimpleIndex) {
	var nextID ast.NodeID
	fresh := func() ast.NodeID { nextID++; return nextID }

	ix := index.NewSimpleIndex()

	total := &ast.Assign{
		Base:    ast.Base{NodeID: fresh()},
		Targets: []ast.Expr{&ast.Name{Base: ast.Base{NodeID: fresh()}, Id: "total"}},
		Value: &ast.BinOp{
			Base:  ast.Base{NodeID: fresh()},
			Left:  &ast.Constant{Base: ast.Base{NodeID: fresh()}, Kind: ast.ConstInt, Int: 1},
			Op:    ast.OpAdd,
			Right: &ast.Constant{Base: ast.Base{NodeID: fresh()}, Kind: ast.ConstInt, Int: 2},
		},
	}

	labelAnn := &ast.BinOp{
		Base:  ast.Base{NodeID: fresh()},
		Left:  &ast.Name{Base: ast.Base{NodeID: fresh()}, Id: "str"},
		Op:    ast.OpBitOr,
		Right: &ast.Constant{Base: ast.Base{NodeID: fresh()}, Kind: ast.ConstNone},
	}
	label := &ast.AnnAssign{
		Base:       ast.Base{NodeID: fresh()},
		Target:     &ast.Name{Base: ast.Base{NodeID: fresh()}, Id: "label"},
		Annotation: labelAnn,
		Value:      &ast.Constant{Base: ast.Base{NodeID: fresh()}, Kind: ast.ConstString, Str: "ok"},
	}

	fieldX := &ast.AnnAssign{
		Base:       ast.Base{NodeID: fresh()},
		Target:     &ast.Name{Base: ast.Base{NodeID: fresh()}, Id: "x"},
		Annotation: &ast.Name{Base: ast.Base{NodeID: fresh()}, Id: "int"},
	}
	fieldY := &ast.AnnAssign{
		Base:       ast.Base{NodeID: fresh()},
		Target:     &ast.Name{Base: ast.Base{NodeID: fresh()}, Id: "y"},
		Annotation: &ast.Name{Base: ast.Base{NodeID: fresh()}, Id: "int"},
	}
	point := &ast.ClassDef{
		Base: ast.Base{NodeID: fresh()},
		Name: "Point",
		Body: []ast.Stmt{fieldX, fieldY},
	}

	missingRef := &ast.Name{Base: ast.Base{NodeID: fresh()}, Id: "undeclared"}
	missing := &ast.ExprStmt{Base: ast.Base{NodeID: fresh()}, Value: missingRef}

	mod := &ast.Module{
		Base: ast.Base{NodeID: fresh()},
		Path: "<demo>",
		Body: []ast.Stmt{total, label, point, missing},
	}

	bind := func(name string, node ast.Node, use ast.NodeID) {
		place := ix.InternPlace(index.ModuleScope, index.PlaceSymbol, name, 0)
		binding := ix.AddBinding(place, node)
		ix.SetReachingAtUse(index.UseID(use), binding)
	}
	bind("total", total, total.Targets[0].ID())
	bind("label", label, label.Target.ID())
	bind("x", fieldX, fieldX.Target.ID())
	bind("y", fieldY, fieldY.Target.ID())
	// "undeclared" is deliberately left unbound: its use resolves to
	// neither a local binding nor a builtin, producing the one
	// unresolved-reference diagnostic this fixture is built to show.

	return mod, ix
}
