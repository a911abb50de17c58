// Package moderation masks censored words in chat text before it is shown.
// It only rewrites what a client displays: payloads are never altered on the wire.
package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Filter matches a word list with an Aho-Corasick automaton over a
// normalized view of the text, so "B.4.d.g.€r" still matches "badger".
type Filter struct {
	log     *slog.Logger
	matcher *goahocorasick.Machine
	mask    rune
}

// normalized is the searchable form of a text: noise is dropped and every
// kept rune remembers its position in the original.
type normalized struct {
	runes  []rune
	origin []int
}

// NewFilter builds a filter for words. An empty list yields a filter that
// leaves every text untouched.
func NewFilter(words []string, mask rune, log *slog.Logger) (*Filter, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if p := normalize(word).runes; len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	f := &Filter{log: log, mask: mask}
	if len(patterns) == 0 {
		return f, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	f.matcher = m
	log.Debug("Moderation filter ready", "words", len(patterns))
	return f, nil
}

// Apply returns text with every match masked, along with the matched words.
func (f *Filter) Apply(text string) (string, []string) {
	if f == nil || f.matcher == nil {
		return text, nil
	}
	view := normalize(text)
	if len(view.runes) == 0 {
		return text, nil
	}
	terms := f.matcher.MultiPatternSearch(view.runes, false)
	if len(terms) == 0 {
		return text, nil
	}

	out := []rune(text)
	var words []string
	for _, term := range terms {
		start, end := term.Pos, term.Pos+len(term.Word)
		if start < 0 || end > len(view.origin) {
			continue
		}
		for i := view.origin[start]; i <= view.origin[end-1]; i++ {
			out[i] = f.mask
		}
		words = append(words, string(term.Word))
	}
	return string(out), words
}

func normalize(text string) normalized {
	src := []rune(text)
	view := normalized{runes: make([]rune, 0, len(src)), origin: make([]int, 0, len(src))}
	for i, r := range src {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		view.runes = append(view.runes, unicode.ToLower(r))
		view.origin = append(view.origin, i)
	}
	return view
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	}
	return r
}
