// Package query builds and evaluates the predicate used to filter records.
//
// An expression is an AND of ORs: every filter term must match at least one
// field. Leaves are case-insensitive substring tests against a record path.
package query

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/rtable/internal/field"
)

// Expr is a node of the predicate tree.
type Expr interface {
	isExpr()
	String() string
}

// All matches every record.
type All struct{}

// And matches when every child matches.
type And struct {
	Children []Expr
}

// Or matches when any child matches.
type Or struct {
	Children []Expr
}

// Contains matches when the value at Path contains Term, ignoring case.
type Contains struct {
	Path string
	Term string
}

func (All) isExpr()      {}
func (And) isExpr()      {}
func (Or) isExpr()       {}
func (Contains) isExpr() {}

func (All) String() string { return "*" }

func (e And) String() string { return joinChildren(e.Children, " AND ") }

func (e Or) String() string { return joinChildren(e.Children, " OR ") }

func (e Contains) String() string { return fmt.Sprintf("%s ~ %q", e.Path, e.Term) }

func joinChildren(children []Expr, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Build combines terms and fields into a predicate. Each term becomes an OR
// across the field keys and the term clauses are ANDed. With no terms or no
// fields the result matches everything.
func Build(terms []string, fields []field.Field) Expr {
	if len(terms) == 0 || len(fields) == 0 {
		return All{}
	}
	clauses := make([]Expr, 0, len(terms))
	for _, term := range terms {
		or := Or{Children: make([]Expr, 0, len(fields))}
		for _, f := range fields {
			or.Children = append(or.Children, Contains{Path: f.Key(), Term: term})
		}
		clauses = append(clauses, or)
	}
	return And{Children: clauses}
}

// IsAll reports whether e trivially matches everything.
func IsAll(e Expr) bool {
	_, ok := e.(All)
	return ok || e == nil
}
