package normalize

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rule is one named stage of the cascade.
type Rule struct {
	Name string
	// Option is the config key gating the rule; empty for custom rules.
	Option string
	apply  func(string) string
	// reshapes marks rules whose output can expose new matches for rules
	// that already ran in the same pass.
	reshapes bool
}

// Apply runs the rule on text.
func (r Rule) Apply(text string) string { return r.apply(text) }

// RuleSet is an ordered list of rules. The order is fixed at build time.
type RuleSet struct {
	rules []Rule
}

// Apply runs every rule in order.
func (rs RuleSet) Apply(text string) string {
	text, _ = rs.apply(text)
	return text
}

// apply runs one pass and reports whether a reshaping rule changed the text.
func (rs RuleSet) apply(text string) (string, bool) {
	reshaped := false
	for _, r := range rs.rules {
		next := r.apply(text)
		if r.reshapes && !reshaped && next != text {
			reshaped = true
		}
		text = next
	}
	return text, reshaped
}

// Names lists the rule names in execution order.
func (rs RuleSet) Names() []string {
	out := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.Name
	}
	return out
}

// Len returns the number of rules.
func (rs RuleSet) Len() int { return len(rs.rules) }

func (rs RuleSet) enabled(cfg Config) RuleSet {
	out := make([]Rule, 0, len(rs.rules))
	for _, r := range rs.rules {
		if r.Option == "" || cfg.Enabled(r.Option) {
			out = append(out, r)
		}
	}
	return RuleSet{rules: out}
}

// dictionary expands table keys case-insensitively. At any position the
// longest key wins. Keys are literal, so candidates are looked up by their
// first rune instead of running one large alternation over the text.
type dictionary struct {
	expansion map[string]string
	// guard holds folded keys ending in a word rune; those may not be
	// followed by another word rune.
	guard map[string]bool
	// lengths lists the key lengths in runes, longest first, per folded
	// first rune.
	lengths map[rune][]int
}

func newDictionary(table map[string]string) (*dictionary, error) {
	if len(table) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(table))
	for k := range table {
		if k == "" || !utf8.ValidString(k) {
			return nil, fmt.Errorf("invalid key %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := &dictionary{
		expansion: make(map[string]string, len(keys)),
		guard:     make(map[string]bool, len(keys)),
		lengths:   make(map[rune][]int),
	}
	for _, k := range keys {
		folded := strings.ToLower(k)
		if _, dup := d.expansion[folded]; dup {
			continue
		}
		d.expansion[folded] = table[k]
		last, _ := utf8.DecodeLastRuneInString(k)
		d.guard[folded] = isWordRune(last)

		first, _ := utf8.DecodeRuneInString(folded)
		n := utf8.RuneCountInString(k)
		if !slices.Contains(d.lengths[first], n) {
			d.lengths[first] = append(d.lengths[first], n)
		}
	}
	for r := range d.lengths {
		slices.SortFunc(d.lengths[r], func(a, b int) int { return b - a })
	}
	return d, nil
}

func (d *dictionary) apply(text string) string {
	if d == nil {
		return text
	}
	var b strings.Builder
	last := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		lens, ok := d.lengths[unicode.ToLower(r)]
		if !ok || !leadingEdge(text, i) {
			i += size
			continue
		}
		end, exp := d.match(text, i, lens)
		if end < 0 {
			i += size
			continue
		}
		b.WriteString(text[last:i])
		b.WriteString(exp)
		last, i = end, end
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// match returns the end offset and expansion of the longest key at start,
// or -1.
func (d *dictionary) match(text string, start int, lens []int) (int, string) {
	for _, n := range lens {
		end := start
		for k := 0; k < n && end >= 0; k++ {
			if end >= len(text) {
				end = -1
				break
			}
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
		}
		if end < 0 {
			continue
		}
		folded := strings.ToLower(text[start:end])
		exp, ok := d.expansion[folded]
		if !ok {
			continue
		}
		if d.guard[folded] && end < len(text) {
			if next, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(next) {
				continue
			}
		}
		return end, exp
	}
	return -1, ""
}

type compiledRule struct {
	name string
	re   *regexp.Regexp
	repl string
}

func compileCustomRules(rules []CustomRule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("custom_%d", i+1)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: custom rule %s: %v", ErrConfig, name, err)
		}
		if re.MatchString(r.Replacement) {
			return nil, fmt.Errorf("%w: custom rule %s matches its own replacement %q", ErrConfig, name, r.Replacement)
		}
		out = append(out, compiledRule{name: name, re: re, repl: r.Replacement})
	}
	return out, nil
}

// buildRules assembles the full cascade in its fixed order, gated later by
// the config.
func buildRules(tag language.Tag, abbr, contr map[string]string, s Sentinels, custom []compiledRule) (RuleSet, error) {
	abbrDict, err := newDictionary(abbr)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%w: abbreviations: %v", ErrConfig, err)
	}
	contrDict, err := newDictionary(contr)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%w: contractions: %v", ErrConfig, err)
	}

	markers := make([]string, 0, 7)
	for _, m := range s.List() {
		markers = append(markers, regexp.QuoteMeta(m))
	}
	sort.Slice(markers, func(i, j int) bool { return len(markers[i]) > len(markers[j]) })
	markerPattern, err := regexp.Compile(strings.Join(markers, "|"))
	if err != nil {
		return RuleSet{}, fmt.Errorf("%w: sentinels: %v", ErrConfig, err)
	}

	// Numbers and URLs lead the cascade and their markers cannot match any
	// stage again, so they do not force another pass.
	rules := []Rule{
		{Name: "numbers", Option: "replace_numbers", apply: func(t string) string {
			t = ordinalPattern.replaceWith(t, s.Number)
			t = decimalPattern.replaceWith(t, s.Number)
			return mixedPattern.replaceWith(t, s.Number)
		}},
		{Name: "urls", Option: "replace_urls", apply: func(t string) string { return urlPattern.replaceWith(t, s.URL) }},
		{Name: "emails", Option: "replace_emails", reshapes: true, apply: func(t string) string { return emailPattern.replaceWith(t, s.Email) }},
		{Name: "phones", Option: "replace_phones", reshapes: true, apply: func(t string) string { return phonePattern.replaceWith(t, s.Phone) }},
		{Name: "dates", Option: "replace_dates", reshapes: true, apply: func(t string) string {
			for _, p := range datePatterns {
				t = p.replaceWith(t, s.Date)
			}
			return t
		}},
		{Name: "times", Option: "replace_times", reshapes: true, apply: func(t string) string { return timePattern.replaceWith(t, s.Time) }},
		{Name: "currencies", Option: "replace_currencies", reshapes: true, apply: func(t string) string { return currencyPattern.replaceWith(t, s.Currency) }},
	}
	for _, c := range custom {
		rules = append(rules, Rule{Name: c.name, reshapes: true, apply: func(t string) string { return c.re.ReplaceAllString(t, c.repl) }})
	}
	rules = append(rules,
		// Expansions are plain words; only custom patterns can match them.
		Rule{Name: "abbreviations", Option: "expand_abbreviations", reshapes: len(custom) > 0, apply: abbrDict.apply},
		Rule{Name: "contractions", Option: "expand_contractions", reshapes: len(custom) > 0, apply: contrDict.apply},
		Rule{Name: "punctuation", Option: "normalize_punctuation", reshapes: true, apply: func(t string) string {
			t = ellipsisPattern.ReplaceAllLiteralString(t, "…")
			return terminalRunPattern.ReplaceAllString(t, "$1")
		}},
		Rule{Name: "quotes", Option: "normalize_quotes", apply: func(t string) string { return quotePattern.ReplaceAllLiteralString(t, `"`) }},
		Rule{Name: "dashes", Option: "normalize_dashes", reshapes: true, apply: func(t string) string { return dashPattern.ReplaceAllLiteralString(t, "-") }},
		Rule{Name: "spaces", Option: "normalize_spaces", reshapes: true, apply: func(t string) string {
			return strings.Trim(spacePattern.ReplaceAllLiteralString(t, " "), " ")
		}},
		Rule{Name: "lowercase", Option: "to_lowercase", apply: func(t string) string {
			return lowerOutsideMarkers(t, tag, markerPattern)
		}},
	)
	return RuleSet{rules: rules}, nil
}

// lowerOutsideMarkers lowercases text while leaving sentinel markers intact.
func lowerOutsideMarkers(text string, tag language.Tag, markers *regexp.Regexp) string {
	caser := cases.Lower(tag)
	locs := markers.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return caser.String(text)
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range locs {
		b.WriteString(caser.String(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(caser.String(text[last:]))
	return b.String()
}
