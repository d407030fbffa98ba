package tokenize

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kljensen/snowball"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/DeafMist/tokenlab/internal/lexicon"
)

// Transform rewrites a token sequence, for example by stemming or
// filtering. It must not modify its input.
type Transform func(tokens []string) ([]string, error)

const truncateRunes = 5

// Transforms returns the built-in transforms keyed by name.
func Transforms(lex *lexicon.Lexicon) map[string]Transform {
	if lex == nil {
		lex = lexicon.Russian()
	}
	tag := lex.Tag()
	return map[string]Transform{
		"original": func(tokens []string) ([]string, error) {
			return slices.Clone(tokens), nil
		},
		"lowercase": func(tokens []string) ([]string, error) {
			caser := cases.Lower(tag)
			return lo.Map(tokens, func(t string, _ int) string { return caser.String(t) }), nil
		},
		"no_stopwords": func(tokens []string) ([]string, error) {
			return lo.Reject(tokens, func(t string, _ int) bool { return lex.IsStopword(t) }), nil
		},
		"nfkc": func(tokens []string) ([]string, error) {
			return lo.Map(tokens, func(t string, _ int) string { return norm.NFKC.String(t) }), nil
		},
		"truncate5": func(tokens []string) ([]string, error) {
			return lo.Map(tokens, func(t string, _ int) string {
				r := []rune(t)
				if len(r) <= truncateRunes {
					return t
				}
				return string(r[:truncateRunes])
			}), nil
		},
		"snowball": func(tokens []string) ([]string, error) {
			return stem(lex, tokens)
		},
	}
}

// stem applies the Snowball stemmer for the lexicon language. Tokens are
// lowercased first; <NUM> style markers pass through.
func stem(lex *lexicon.Lexicon, tokens []string) ([]string, error) {
	caser := cases.Lower(lex.Tag())
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if isMarker(t) {
			out[i] = t
			continue
		}
		s, err := snowball.Stem(caser.String(t), lex.Language(), true)
		if err != nil {
			return nil, fmt.Errorf("%w: snowball %s: %v", ErrUnavailable, lex.Language(), err)
		}
		out[i] = s
	}
	return out, nil
}

func isMarker(t string) bool {
	return len(t) > 2 && strings.HasPrefix(t, "<") && strings.HasSuffix(t, ">")
}

// TransformNames lists the built-in transform names in sorted order.
func TransformNames() []string {
	names := lo.Keys(Transforms(nil))
	slices.Sort(names)
	return names
}

// SelectTransforms picks named built-ins. An empty list selects all.
func SelectTransforms(lex *lexicon.Lexicon, names []string) (map[string]Transform, []string) {
	all := Transforms(lex)
	if len(names) == 0 {
		return all, nil
	}
	out := make(map[string]Transform, len(names))
	var missing []string
	for _, n := range lo.Uniq(names) {
		if t, ok := all[n]; ok {
			out[n] = t
		} else {
			missing = append(missing, n)
		}
	}
	return out, missing
}
