package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RE2 word boundaries are ASCII-only, so edges are enforced here: a match
// may not start in the middle of a word, and a guarded alternative may not
// end in the middle of one.
const (
	wordClass = `\p{L}\p{N}\p{M}_`
	edgeGuard = `(?:[^` + wordClass + `]|\z)`
)

type alternative struct {
	expr  string // must not contain capturing groups
	guard bool
}

type edgeMatcher struct {
	re *regexp.Regexp
}

func compileEdge(flags string, alts ...alternative) (*edgeMatcher, error) {
	parts := make([]string, len(alts))
	for i, a := range alts {
		p := "(" + a.expr + ")"
		if a.guard {
			p += edgeGuard
		}
		parts[i] = p
	}
	expr := strings.Join(parts, "|")
	if flags != "" {
		expr = "(?" + flags + ")(?:" + expr + ")"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &edgeMatcher{re: re}, nil
}

func mustEdge(flags string, alts ...alternative) *edgeMatcher {
	m, err := compileEdge(flags, alts...)
	if err != nil {
		panic(err)
	}
	return m
}

func guarded(exprs ...string) []alternative {
	out := make([]alternative, len(exprs))
	for i, e := range exprs {
		out[i] = alternative{expr: e, guard: true}
	}
	return out
}

// replace rewrites every edge-respecting match. repl receives the matched
// alternative without its trailing guard.
func (m *edgeMatcher) replace(s string, repl func(string) string) string {
	var b strings.Builder
	last, pos := 0, 0
	for pos < len(s) {
		loc := m.re.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := -1, -1
		for g := 1; 2*g+1 < len(loc); g++ {
			if loc[2*g] >= 0 {
				start, end = pos+loc[2*g], pos+loc[2*g+1]
				break
			}
		}
		if start < 0 || end == start || !leadingEdge(s, start) {
			_, size := utf8.DecodeRuneInString(s[pos+loc[0]:])
			if size == 0 {
				break
			}
			pos += loc[0] + size
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(repl(s[start:end]))
		last, pos = end, end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func (m *edgeMatcher) replaceWith(s, marker string) string {
	return m.replace(s, func(string) string { return marker })
}

func leadingEdge(s string, i int) bool {
	if i == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	first, _ := utf8.DecodeRuneInString(s[i:])
	return !(isWordRune(prev) && isWordRune(first))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

const (
	digits   = `\p{Nd}+`
	amount   = `\d+(?:[.,]\d+)?`
	phoneSep = `[ \t\x{a0}\-‒–—]?`
	dateSep  = `[./\-‒–—]`

	ruMonths = `января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря`
	enMonths = `january|february|march|april|may|june|july|august|september|october|november|december`
)

var (
	ordinalPattern = mustEdge("", alternative{expr: digits + `-(?:ми|му|го|ый|ой|ая|ое|ых|й|я|е|м|х)`, guard: true})
	decimalPattern = mustEdge("", alternative{expr: digits + `(?:[.,]` + digits + `)*`, guard: true})
	mixedPattern   = mustEdge("", alternative{expr: `[` + wordClass + `]*\p{Nd}[` + wordClass + `]*`, guard: true})

	urlPattern = mustEdge("i", alternative{
		expr: `(?:https?://|www\.)[\p{L}\p{N}<>-]+(?:\.[\p{L}\p{N}<>-]+)+(?::\d+)?` +
			`(?:[/?#](?:[^\s"«»]*[^\s"«».,!?;:)\]'])?)?`,
	})
	emailPattern = mustEdge("", alternative{
		expr:  `[\p{L}\p{N}._%+<>-]+@[\p{L}\p{N}.-]+\.\p{L}{2,}`,
		guard: true,
	})
	phonePattern = mustEdge("", alternative{
		expr:  `(?:(?:\+7|8)` + phoneSep + `)?\(?[489]\d{2}\)?` + phoneSep + `\d{3}` + phoneSep + `\d{2}` + phoneSep + `\d{2}`,
		guard: true,
	})
	datePatterns = []*edgeMatcher{
		mustEdge("", alternative{expr: `\d{1,2}[./]\d{1,2}[./]\d{4}`, guard: true}),
		mustEdge("", alternative{expr: `\d{1,2}[./]\d{1,2}[./]\d{2}`, guard: true}),
		mustEdge("", alternative{expr: `\d{4}` + dateSep + `\d{1,2}` + dateSep + `\d{1,2}`, guard: true}),
		mustEdge("i", guarded(
			`\d{1,2}\s+(?:`+ruMonths+`)\s+\d{4}`,
			`(?:`+enMonths+`)\s+\d{1,2},?\s+\d{4}`,
		)...),
	}
	timePattern = mustEdge("i", alternative{
		expr:  `\d{1,2}:\d{2}(?::\d{2})?(?:\s*(?:am|pm|утра|дня|вечера|ночи))?`,
		guard: true,
	})
	currencyPattern = mustEdge("i",
		alternative{expr: amount + `\s*(?:рублей|рубля|руб|долларов|доллара|дол|евро|тенге|сом|гривен|грн|usd|eur|rub)`, guard: true},
		alternative{expr: amount + `\s*[$€₽]`},
		alternative{expr: `[$€₽]\s*` + amount, guard: true},
	)

	ellipsisPattern    = regexp.MustCompile(`\.{3,}`)
	terminalRunPattern = regexp.MustCompile(`([.!?])[.!?]+`)
	quotePattern       = regexp.MustCompile(`[“”„‟«»‹›‘’‚‛″〝〞＂]`)
	dashPattern        = regexp.MustCompile(`[‒–—―−]`)
	spacePattern       = regexp.MustCompile(`[\s\v\x{85}\x{1c}-\x{1f}\p{Z}]+`)
)
