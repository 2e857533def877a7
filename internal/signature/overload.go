package signature

import "github.com/prismafold/pytc/internal/typeir"

// ResolveOverload picks which of fn's overloads a call binds to (spec.md
// §4.4 "overload resolution policy"):
//   - the first overload (source order) whose Bind succeeds wins
//   - if none bind, and there is exactly one overload, infer against it
//     anyway so the caller still gets a best-effort return type alongside
//     the diagnostic (spec.md: "zero matches with single overload -> still
//     infer for diagnostics")
//   - if none bind and there is more than one, report NoMatchingOverload
func ResolveOverload(fn *typeir.FunctionLiteral, args []Argument) (*Binding, error) {
	var firstErr error
	for _, sig := range fn.Overloads {
		b, err := Bind(sig, args)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if len(fn.Overloads) == 1 {
		return &Binding{Sig: fn.Overloads[0], Params: bestEffortParams(fn.Overloads[0], args)}, firstErr
	}
	return nil, &NoMatchingOverload{Func: fn, Last: firstErr}
}

// bestEffortParams binds what it positionally can, for the diagnostic path
// where no overload matched cleanly but the driver still wants parameter
// types to continue inference with rather than aborting the expression.
func bestEffortParams(sig *typeir.Signature, args []Argument) map[string]typeir.Type {
	out := make(map[string]typeir.Type, len(sig.Params))
	n := len(args)
	if n > len(sig.Params) {
		n = len(sig.Params)
	}
	for i := 0; i < n; i++ {
		if args[i].Name == "" {
			out[sig.Params[i].Name] = args[i].Value
		}
	}
	return out
}

type NoMatchingOverload struct {
	Func *typeir.FunctionLiteral
	Last error
}

func (e *NoMatchingOverload) Error() string {
	return "no overload of " + e.Func.QualName + " matches the given arguments"
}
