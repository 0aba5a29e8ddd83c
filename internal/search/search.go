// Package search matches free-text queries against stored search keys.
package search

import (
	"strings"

	"telegram-movie-bot/internal/storage"
)

// MinQueryLen is the shortest usable query after trimming. Anything below it
// is dropped before the store is touched.
const MinQueryLen = 2

// Finder is the slice of the record store the matcher needs.
type Finder interface {
	Find(matches func(searchName string) bool, limit int) ([]storage.Record, error)
}

// Matcher turns user queries into bounded record lookups.
type Matcher struct {
	Store Finder
	Limit int
}

// Tokens lowercases and trims the query and splits it on whitespace.
// It returns nil when the trimmed query is shorter than MinQueryLen.
func Tokens(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < MinQueryLen {
		return nil
	}
	return strings.Fields(q)
}

// Match returns up to Limit records whose search name contains every query
// token, in query order, with arbitrary text in between. Too-short queries
// and empty results both yield a nil slice without error.
func (m *Matcher) Match(query string) ([]storage.Record, error) {
	tokens := Tokens(query)
	if tokens == nil {
		return nil, nil
	}
	return m.Store.Find(func(searchName string) bool {
		return containsInOrder(searchName, tokens)
	}, m.Limit)
}

// containsInOrder reports whether every token appears as a substring of s,
// in the given order, each match starting after the end of the previous one.
func containsInOrder(s string, tokens []string) bool {
	rest := s
	for _, tok := range tokens {
		i := strings.Index(rest, tok)
		if i < 0 {
			return false
		}
		rest = rest[i+len(tok):]
	}
	return true
}
