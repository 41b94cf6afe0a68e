package query

import (
	"fmt"
	"strings"
)

// Dialect captures the SQL differences the renderer cares about.
type Dialect struct {
	Name string
	// Numbered placeholders ($1, $2, ...) instead of '?'.
	Numbered bool
	// Identifier quote character.
	Quote byte
	// Type used to cast values to text before matching.
	TextType string
	// Backslash is an escape character inside string literals.
	BackslashEscapes bool
}

// Supported dialects.
var (
	SQLite   = Dialect{Name: "sqlite", Quote: '"', TextType: "TEXT"}
	Postgres = Dialect{Name: "postgres", Numbered: true, Quote: '"', TextType: "TEXT"}
	MySQL    = Dialect{Name: "mysql", Quote: '`', TextType: "CHAR", BackslashEscapes: true}
)

// QuoteIdent quotes a column or table name. Dotted names are treated as a
// single identifier.
func (d Dialect) QuoteIdent(name string) string {
	q := string(d.Quote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// Placeholder returns the bind marker for 1-based position pos.
func (d Dialect) Placeholder(pos int) string {
	if d.Numbered {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

// SQL renders e as a WHERE clause body with bind arguments. Placeholders are
// numbered from start (1-based) so callers can append further arguments.
func SQL(e Expr, d Dialect, start int) (string, []any) {
	w := sqlWriter{d: d, pos: start}
	clause := w.write(e)
	return clause, w.args
}

type sqlWriter struct {
	d    Dialect
	pos  int
	args []any
}

func (w *sqlWriter) write(e Expr) string {
	switch t := e.(type) {
	case nil, All:
		return "1=1"
	case And:
		return w.join(t.Children, " AND ", "1=1")
	case Or:
		return w.join(t.Children, " OR ", "1=0")
	case Contains:
		ph := w.d.Placeholder(w.pos)
		w.pos++
		w.args = append(w.args, "%"+escapeLike(strings.ToLower(t.Term))+"%")
		esc := `'\'`
		if w.d.BackslashEscapes {
			esc = `'\\'`
		}
		return fmt.Sprintf("LOWER(CAST(%s AS %s)) LIKE %s ESCAPE %s", w.d.QuoteIdent(t.Path), w.d.TextType, ph, esc)
	default:
		return "1=0"
	}
}

func (w *sqlWriter) join(children []Expr, op, empty string) string {
	if len(children) == 0 {
		return empty
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = w.write(c)
	}
	return "(" + strings.Join(parts, op) + ")"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
