// Package match decides which store entries a free-text query hits.
//
// Both the query and every candidate field go through Normalize, which
// keeps letters and digits only (accents are split off and dropped) and
// case-folds the result. A query hits an entry when its normalized form is
// a substring of the normalized title, username or notes.
package match

import (
	"strings"
	"unicode"

	"github.com/dmitrijs2005/keeperbot/internal/vault"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize reduces text to its searchable form.
func Normalize(text string) string {
	decomposed := norm.NFD.String(text)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(b.String())
}

// Matches reports whether normalizedQuery occurs in the entry's title,
// username or notes. An empty query never matches.
func Matches(e *vault.Entry, normalizedQuery string) bool {
	if normalizedQuery == "" || e == nil {
		return false
	}

	for _, field := range [...]string{e.Title, e.Username, e.Notes} {
		if strings.Contains(Normalize(field), normalizedQuery) {
			return true
		}
	}
	return false
}

// Search returns the entries that query hits, in the order given.
func Search(entries []*vault.Entry, query string) []*vault.Entry {
	q := Normalize(query)
	if q == "" {
		return nil
	}

	var out []*vault.Entry
	for _, e := range entries {
		if Matches(e, q) {
			out = append(out, e)
		}
	}
	return out
}
