// Package lexicon holds the per-language dictionaries used by normalization
// and token transforms. Tables are built once and never mutated afterwards,
// so a *Lexicon can be shared freely between goroutines.
package lexicon

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// ErrUnknownLanguage is returned by For when no tables exist for a language.
var ErrUnknownLanguage = errors.New("lexicon: unknown language")

// Lexicon is an immutable set of abbreviation, contraction and stopword tables.
type Lexicon struct {
	language      string
	tag           language.Tag
	abbreviations map[string]string
	contractions  map[string]string
	stopwords     map[string]struct{}
}

var registry = map[string]func() *Lexicon{
	"russian": Russian,
	"english": English,
}

// Russian returns the shared Russian lexicon.
var Russian = sync.OnceValue(func() *Lexicon {
	return build("russian", language.Russian, russianAbbreviations, russianContractions, russianStopwords)
})

// English returns the shared English lexicon.
var English = sync.OnceValue(func() *Lexicon {
	return build("english", language.English, englishAbbreviations, withCurlyApostrophes(englishContractions), englishStopwords)
})

// For resolves a lexicon by language name ("russian", "english", or the
// ISO codes "ru", "en"). An empty name selects Russian.
func For(name string) (*Lexicon, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "ru":
		key = "russian"
	case "en":
		key = "english"
	}
	ctor, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}
	return ctor(), nil
}

// Languages lists the supported language names in sorted order.
func Languages() []string {
	return slices.Sorted(maps.Keys(registry))
}

func build(name string, tag language.Tag, abbr, contr map[string]string, stop []string) *Lexicon {
	l := &Lexicon{
		language:      name,
		tag:           tag,
		abbreviations: maps.Clone(abbr),
		contractions:  maps.Clone(contr),
		stopwords:     make(map[string]struct{}, len(stop)),
	}
	for _, w := range stop {
		l.stopwords[strings.ToLower(w)] = struct{}{}
	}
	return l
}

// Language returns the lexicon's language name.
func (l *Lexicon) Language() string { return l.language }

// Tag returns the BCP 47 tag used for case mapping.
func (l *Lexicon) Tag() language.Tag { return l.tag }

// Abbreviations returns a copy of the abbreviation table.
func (l *Lexicon) Abbreviations() map[string]string { return maps.Clone(l.abbreviations) }

// Contractions returns a copy of the contraction table.
func (l *Lexicon) Contractions() map[string]string { return maps.Clone(l.contractions) }

// IsStopword reports whether the lowercase form of word is a stopword.
func (l *Lexicon) IsStopword(word string) bool {
	_, ok := l.stopwords[strings.ToLower(word)]
	return ok
}

// StopwordCount returns the number of distinct stopwords.
func (l *Lexicon) StopwordCount() int { return len(l.stopwords) }

func withCurlyApostrophes(in map[string]string) map[string]string {
	out := maps.Clone(in)
	for k, v := range in {
		if strings.Contains(k, "'") {
			out[strings.ReplaceAll(k, "'", "’")] = v
		}
	}
	return out
}
