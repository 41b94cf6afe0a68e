// Package filter turns free-text filter input into search terms.
package filter

import "strings"

func isQuote(b byte) bool { return b == '\'' || b == '"' }

// Parse splits filter text into terms. Whitespace separates terms; a word
// opening with ' or " starts a phrase that runs until a word closing with
// either quote. Quote characters need not match. A phrase that never closes
// absorbs the rest of the input and is returned as the final term.
//
//	Parse(`alice "bob smith" carol`) // ["alice", "bob smith", "carol"]
func Parse(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var (
		terms  []string
		phrase []string
		open   bool
	)
	emit := func(term string) {
		if term != "" {
			terms = append(terms, term)
		}
	}

	for _, w := range words {
		last := len(w) - 1
		switch {
		case open:
			if isQuote(w[last]) {
				phrase = append(phrase, w[:last])
				emit(strings.Join(phrase, " "))
				phrase, open = nil, false
				continue
			}
			phrase = append(phrase, w)
		case isQuote(w[0]) && last > 0 && isQuote(w[last]):
			emit(w[1:last])
		case isQuote(w[0]):
			phrase, open = []string{w[1:]}, true
		default:
			emit(w)
		}
	}
	if open {
		emit(strings.Join(phrase, " "))
	}
	return terms
}
