// Package signature matches call-site arguments against a
// typeir.Signature, resolves overloads, and solves a generic context's
// typevars from the bound arguments (spec.md §4.4 "Callable & signature
// model"). Grounded on the teacher's typechecker_functions.go argument
// binding (positional/keyword matching against a declared parameter list)
// and builder.go's environment-construction pass, generalized from
// AILANG's fixed-arity functions to Python's positional-only /
// positional-or-keyword / var-positional / keyword-only / var-keyword
// parameter kinds and to overload sets.
package signature

import (
	"fmt"

	"github.com/prismafold/pytc/internal/typeir"
)

// Argument is one call-site argument: positional (Name == "") or a keyword
// argument, optionally unpacked (`*args`/`**kwargs`, which bind.go doesn't
// attempt to expand statically — spec.md Non-goals still allow treating an
// unpacked call as producing Unknown for each remaining parameter).
type Argument struct {
	Name       string
	Value      typeir.Type
	Starred    bool // *args-style spread
	DoubleStar bool // **kwargs-style spread
}

// Binding is the result of successfully matching Arguments against one
// Signature: the type of the argument bound to each parameter that
// received one; a parameter left to its default has no entry in Params.
type Binding struct {
	Sig    *typeir.Signature
	Params map[string]typeir.Type
}

// Bind matches args against sig positionally then by keyword, following
// Python's own parameter-binding algorithm (spec.md §4.4). It does not
// check argument types against parameter annotations — that's the
// inference driver's job once a Binding is chosen; Bind only decides
// whether the call shape matches at all.
func Bind(sig *typeir.Signature, args []Argument) (*Binding, error) {
	bound := make(map[string]typeir.Type, len(sig.Params))
	used := make(map[string]bool, len(sig.Params))

	posParams := make([]typeir.Parameter, 0, len(sig.Params))
	var varPositional, varKeyword *typeir.Parameter
	kwOnly := make(map[string]typeir.Parameter)
	for _, p := range sig.Params {
		switch p.Kind {
		case typeir.ParamPositionalOnly, typeir.ParamPositionalOrKeyword:
			posParams = append(posParams, p)
		case typeir.ParamVarPositional:
			pp := p
			varPositional = &pp
		case typeir.ParamKeywordOnly:
			kwOnly[p.Name] = p
		case typeir.ParamVarKeyword:
			pp := p
			varKeyword = &pp
		}
	}

	posIdx := 0
	for _, a := range args {
		if a.Starred || a.DoubleStar {
			continue // unpacked spread: skip static shape checking, per Non-goals
		}
		if a.Name == "" {
			if posIdx >= len(posParams) {
				if varPositional == nil {
					return nil, &TooManyPositionalArguments{Sig: sig}
				}
				continue
			}
			p := posParams[posIdx]
			bound[p.Name] = a.Value
			used[p.Name] = true
			posIdx++
			continue
		}
		if p, ok := kwOnly[a.Name]; ok {
			if used[p.Name] {
				return nil, &DuplicateKeywordArgument{Sig: sig, Name: a.Name}
			}
			bound[p.Name] = a.Value
			used[p.Name] = true
			continue
		}
		found := false
		for _, p := range posParams {
			if p.Name == a.Name && p.Kind == typeir.ParamPositionalOrKeyword {
				if used[p.Name] {
					return nil, &DuplicateKeywordArgument{Sig: sig, Name: a.Name}
				}
				bound[p.Name] = a.Value
				used[p.Name] = true
				found = true
				break
			}
		}
		if !found {
			if varKeyword == nil {
				return nil, &UnknownKeywordArgument{Sig: sig, Name: a.Name}
			}
		}
	}

	var missing []string
	for _, p := range posParams {
		if !used[p.Name] && !p.HasDefault {
			missing = append(missing, p.Name)
		}
	}
	for name, p := range kwOnly {
		if !used[name] && !p.HasDefault {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingRequiredArguments{Sig: sig, Names: missing}
	}

	return &Binding{Sig: sig, Params: bound}, nil
}

type TooManyPositionalArguments struct{ Sig *typeir.Signature }

func (e *TooManyPositionalArguments) Error() string {
	return fmt.Sprintf("too many positional arguments for %s", e.Sig)
}

type DuplicateKeywordArgument struct {
	Sig  *typeir.Signature
	Name string
}

func (e *DuplicateKeywordArgument) Error() string {
	return fmt.Sprintf("got multiple values for argument %q", e.Name)
}

type UnknownKeywordArgument struct {
	Sig  *typeir.Signature
	Name string
}

func (e *UnknownKeywordArgument) Error() string {
	return fmt.Sprintf("unexpected keyword argument %q", e.Name)
}

type MissingRequiredArguments struct {
	Sig   *typeir.Signature
	Names []string
}

func (e *MissingRequiredArguments) Error() string {
	return fmt.Sprintf("missing required arguments: %v", e.Names)
}
