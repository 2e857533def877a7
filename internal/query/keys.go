package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/prismafold/pytc/internal/ast"
)

// QueryKind distinguishes the four memoized queries of spec.md §4.2/§4.8.
// All four share one Cache, with the kind as part of each Key; the cycle
// fallback is chosen per call: expression inference falls back to
// Divergent, the other queries to the value their caller passes.
type QueryKind int

const (
	QueryScopeInference QueryKind = iota
	QueryDefinitionInference
	QueryDeferredDefinitionInference
	QueryExpressionInference
)

func (k QueryKind) String() string {
	switch k {
	case QueryScopeInference:
		return "scope"
	case QueryDefinitionInference:
		return "definition"
	case QueryDeferredDefinitionInference:
		return "deferred-definition"
	case QueryExpressionInference:
		return "expression"
	default:
		return "unknown"
	}
}

// Key identifies one memoized query invocation: its kind plus the node it
// was asked about, plus an optional extra discriminator (e.g. the
// TypeContext a bidirectional expression query ran under, since the same
// expression can be asked about under two different expected types within
// one module — spec.md §4.5 "multiple independent inference passes").
type Key struct {
	Kind  QueryKind
	Node  ast.NodeID
	Extra string
}

// hashKey derives the stable cache-table key, grounded on the teacher's
// internal/sid stable-id hash (canonical-path | offsets | kind), adapted
// here to (query kind | node id | extra discriminator) since this checker
// keys queries by AST node identity directly rather than by a separate
// core-IR node.
func (k Key) hashKey() string {
	parts := []string{k.Kind.String(), fmt.Sprintf("%d", k.Node), k.Extra}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:16]
}
