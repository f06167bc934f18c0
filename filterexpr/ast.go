package filterexpr

import (
	"strconv"
	"strings"

	"github.com/dynafile-io/dynafile"
)

// node is the evaluable unit of a parsed expression: it compiles
// straight down to a boolean test against an Item, so the parser
// builds and the evaluator walks the same tree in one pass.
type node interface {
	eval(item dynafile.Item) bool
}

type andNode struct{ left, right node }

func (n andNode) eval(item dynafile.Item) bool { return n.left.eval(item) && n.right.eval(item) }

type orNode struct{ left, right node }

func (n orNode) eval(item dynafile.Item) bool { return n.left.eval(item) || n.right.eval(item) }

type notNode struct{ inner node }

func (n notNode) eval(item dynafile.Item) bool { return !n.inner.eval(item) }

type compareNode struct {
	attr string
	op   tokenType
	lit  literal
}

func (n compareNode) eval(item dynafile.Item) bool {
	v, ok := item[n.attr]
	if !ok {
		return false
	}
	switch n.op {
	case tokEq:
		return valuesEqual(v, n.lit)
	case tokNotEq:
		return !valuesEqual(v, n.lit)
	case tokLt, tokLte, tokGt, tokGte:
		fa, aok := v.AsFloat()
		fb, bok := n.lit.asFloat()
		if !aok || !bok {
			return false
		}
		switch n.op {
		case tokLt:
			return fa < fb
		case tokLte:
			return fa <= fb
		case tokGt:
			return fa > fb
		case tokGte:
			return fa >= fb
		}
	}
	return false
}

type beginsWithNode struct {
	attr   string
	prefix string
}

func (n beginsWithNode) eval(item dynafile.Item) bool {
	v, ok := item[n.attr]
	if !ok || v.S == nil {
		return false
	}
	return strings.HasPrefix(*v.S, n.prefix)
}

type containsNode struct {
	attr string
	sub  string
}

func (n containsNode) eval(item dynafile.Item) bool {
	v, ok := item[n.attr]
	if !ok {
		return false
	}
	if v.S != nil {
		return strings.Contains(*v.S, n.sub)
	}
	for _, s := range v.SS {
		if s == n.sub {
			return true
		}
	}
	for _, s := range v.NS {
		if s == n.sub {
			return true
		}
	}
	return false
}

type existsNode struct {
	attr   string
	negate bool
}

func (n existsNode) eval(item dynafile.Item) bool {
	_, ok := item[n.attr]
	return ok != n.negate
}

// literal is a parsed scalar from the expression source: either a
// quoted string or a bare number.
type literal struct {
	isString bool
	s        string
	n        float64
}

func (l literal) asFloat() (float64, bool) {
	if l.isString {
		f, err := strconv.ParseFloat(l.s, 64)
		return f, err == nil
	}
	return l.n, true
}

func valuesEqual(v dynafile.Value, l literal) bool {
	if l.isString {
		return v.S != nil && *v.S == l.s
	}
	f, ok := v.AsFloat()
	return ok && f == l.n
}
