package tokenize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
)

var (
	wordRun      = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]+`)
	wordOrSymbol = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]+|[^\p{L}\p{N}\p{M}_\s]`)
)

// Naive splits on whitespace.
func Naive() Adapter { return NewFunc("naive", strings.Fields) }

// Regex keeps runs of letters, digits and underscores.
func Regex() Adapter {
	return NewFunc("regex", func(s string) []string { return wordRun.FindAllString(s, -1) })
}

// WordPunct keeps word runs and emits every other non-space rune as its own
// token.
func WordPunct() Adapter {
	return NewFunc("wordpunct", func(s string) []string { return wordOrSymbol.FindAllString(s, -1) })
}

// UAX29 segments text by the Unicode word-boundary rules and drops the
// whitespace segments.
func UAX29() Adapter {
	return NewFunc("uax29", func(s string) []string {
		var out []string
		seg := words.FromString(s)
		for seg.Next() {
			v := seg.Value()
			if strings.TrimFunc(v, unicode.IsSpace) == "" {
				continue
			}
			out = append(out, v)
		}
		return out
	})
}
