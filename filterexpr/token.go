// Package filterexpr is an optional ExpressionCompiler implementation
// for github.com/dynafile-io/dynafile: it parses a small filter
// expression language and compiles it to the opaque
// func(dynafile.Item) bool predicate the storage engine consumes.
// Dynafile's core never imports this package. A caller that wants
// string filters wires this compiler in explicitly via
// dynafile.OpenOptions.ExpressionCompiler.
package filterexpr

import (
	"fmt"
	"strings"
)

type tokenType uint8

const (
	tokIllegal tokenType = iota
	tokEOF
	tokIdent
	tokNumber
	tokString
	tokComma
	tokLParen
	tokRParen
	tokEq
	tokNotEq
	tokLt
	tokLte
	tokGt
	tokGte
	tokAnd
	tokOr
	tokNot
)

func (t tokenType) String() string {
	switch t {
	case tokEOF:
		return "EOF"
	case tokIdent:
		return "IDENT"
	case tokNumber:
		return "NUMBER"
	case tokString:
		return "STRING"
	case tokComma:
		return "COMMA"
	case tokLParen:
		return "LPAREN"
	case tokRParen:
		return "RPAREN"
	case tokEq:
		return "EQ"
	case tokNotEq:
		return "NOT_EQ"
	case tokLt:
		return "LT"
	case tokLte:
		return "LTE"
	case tokGt:
		return "GT"
	case tokGte:
		return "GTE"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokNot:
		return "NOT"
	default:
		return fmt.Sprintf("ILLEGAL(%d)", t)
	}
}

type token struct {
	typ     tokenType
	literal string
}

var keywords = map[string]tokenType{
	"AND": tokAnd,
	"OR":  tokOr,
	"NOT": tokNot,
}

func lookupIdent(ident string) tokenType {
	if t, ok := keywords[strings.ToUpper(ident)]; ok {
		return t
	}
	return tokIdent
}
