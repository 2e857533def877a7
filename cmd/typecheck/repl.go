package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/prismafold/pytc/internal/ast"
	"github.com/prismafold/pytc/internal/infer"
)

// toyREPL is a minimal read-eval-print loop over the inference core,
// grounded on the teacher's own internal/repl/repl.go (liner.NewLiner
// history/completion loop, :command dispatch, colored prompt). It does not
// embed a Python parser or semantic-index builder (both out of scope per
// spec.md §1), so its "language" is a tiny fixed grammar recognizing the
// handful of constructs the demo module already exercises: integer
// arithmetic and lookups of the demo module's own bound names. This lets
// `reveal_type` be explored interactively against the same toy semantic
// index runCheck builds, without inventing a parser just for the REPL.
type toyREPL struct {
	checker *infer.Checker
	names   map[string]ast.Expr
	nextID  ast.NodeID
}

// replNodeIDBase starts the REPL's own node-id allocator well past
// demoModule's own handful of sequential ids, so a freshly-typed
// expression never collides with (and silently reuses the cached type of)
// an earlier REPL line or a demo-module node.
const replNodeIDBase ast.NodeID = 1 << 20

func (r *toyREPL) freshID() ast.NodeID {
	r.nextID++
	return r.nextID
}

var arithRe = regexp.MustCompile(`^\s*(-?\d+)\s*([+\-*]|//|%)\s*(-?\d+)\s*$`)

func newToyREPL() *toyREPL {
	mod, ix := demoModule()
	c := infer.NewChecker(mod, infer.NewIndexBundle(ix))
	// Run the module once so every bound name already has a settled type
	// in the checker's cache before the REPL starts querying it.
	c.CheckModule()

	names := map[string]ast.Expr{}
	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *ast.Assign:
			if len(s.Targets) == 1 {
				if n, ok := s.Targets[0].(*ast.Name); ok {
					names[n.Id] = n
				}
			}
		case *ast.AnnAssign:
			if n, ok := s.Target.(*ast.Name); ok {
				names[n.Id] = n
			}
		case *ast.ClassDef:
			for _, inner := range s.Body {
				if a, ok := inner.(*ast.AnnAssign); ok {
					if n, ok := a.Target.(*ast.Name); ok {
						names[n.Id] = n
					}
				}
			}
		}
	}
	return &toyREPL{checker: c, names: names, nextID: replNodeIDBase}
}

// eval interprets one line of REPL input, returning the rendered result or
// an error message. It never panics on unrecognized input: unknown forms
// are reported as a REPL-level "don't understand" message, distinct from a
// diagnostic the checker itself would raise.
func (r *toyREPL) eval(line string) (string, error) {
	line = strings.TrimSpace(line)
	if m := arithRe.FindStringSubmatch(line); m != nil {
		left, _ := strconv.ParseInt(m[1], 10, 64)
		right, _ := strconv.ParseInt(m[3], 10, 64)
		op := ast.OpAdd
		switch m[2] {
		case "+":
			op = ast.OpAdd
		case "-":
			op = ast.OpSub
		case "*":
			op = ast.OpMult
		case "//":
			op = ast.OpFloorDiv
		case "%":
			op = ast.OpMod
		}
		expr := &ast.BinOp{
			Base:  ast.Base{NodeID: r.freshID()},
			Left:  &ast.Constant{Base: ast.Base{NodeID: r.freshID()}, Kind: ast.ConstInt, Int: left},
			Op:    op,
			Right: &ast.Constant{Base: ast.Base{NodeID: r.freshID()}, Kind: ast.ConstInt, Int: right},
		}
		t := r.checker.InferExpr(expr, infer.NoContext)
		return t.String(), nil
	}

	if name, ok := strings.CutPrefix(line, "reveal_type("); ok {
		name = strings.TrimSuffix(name, ")")
		name = strings.TrimSpace(name)
		if ref, ok := r.names[name]; ok {
			t := r.checker.InferExpr(ref, infer.NoContext)
			return fmt.Sprintf("Revealed type is %q", t.String()), nil
		}
		return "", fmt.Errorf("no such name in the demo module: %s", name)
	}

	if ref, ok := r.names[line]; ok {
		t := r.checker.InferExpr(ref, infer.NoContext)
		return t.String(), nil
	}

	return "", fmt.Errorf("don't understand %q (try an integer expression like 1+2, a demo name like total/label/x/y, or reveal_type(name))", line)
}

// runRepl drives the liner-backed loop: history persistence, a small
// completer over the demo module's bound names, and the same colored
// prompt convention the teacher's REPL uses (bold banner, dim hints).
func runRepl() error {
	r := newToyREPL()

	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(false)

	historyFile := filepath.Join(os.TempDir(), ".pytc_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	completions := make([]string, 0, len(r.names)+1)
	completions = append(completions, "reveal_type(")
	for n := range r.names {
		completions = append(completions, n)
	}
	line.SetCompleter(func(partial string) (c []string) {
		for _, cand := range completions {
			if strings.HasPrefix(cand, partial) {
				c = append(c, cand)
			}
		}
		return
	})

	fmt.Printf("%s\n", bold("pytc repl"))
	fmt.Println(dim("Type an int expression (1+2), a demo name (total, label, x, y), reveal_type(name), or :quit"))

	for {
		input, err := line.Prompt("pytc> ")
		if err == io.EOF {
			fmt.Println(green("\nGoodbye!"))
			break
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if input == ":quit" {
			break
		}
		if input == ":help" {
			fmt.Println(dim("integer arithmetic, a demo name, reveal_type(name), :quit"))
			continue
		}
		result, err := r.eval(input)
		if err != nil {
			fmt.Printf("%s: %v\n", red("error"), err)
			continue
		}
		fmt.Println(result)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
	return nil
}

var dim = color.New(color.Faint).SprintFunc()
