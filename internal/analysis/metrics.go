package analysis

import "unicode/utf8"

// Vocab is a set of distinct tokens.
type Vocab map[string]struct{}

// NewVocab collects the distinct tokens of a sequence.
func NewVocab(tokens []string) Vocab {
	v := make(Vocab, len(tokens))
	for _, t := range tokens {
		v[t] = struct{}{}
	}
	return v
}

// OOVRate is the share of the test vocabulary missing from the train
// vocabulary; 0 when test is empty.
func OOVRate(train, test Vocab) float64 {
	if len(test) == 0 {
		return 0
	}
	missing := 0
	for t := range test {
		if _, ok := train[t]; !ok {
			missing++
		}
	}
	return float64(missing) / float64(len(test))
}

// VocabularyOverlap is the Jaccard index of two vocabularies; 0 when both
// are empty. It is a cheap lexical proxy, not a semantic similarity.
func VocabularyOverlap(a, b Vocab) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for t := range small {
		if _, ok := large[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// AvgTokenLength is the mean length of tokens in runes; 0 for no tokens.
func AvgTokenLength(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	total := 0
	for _, t := range tokens {
		total += utf8.RuneCountInString(t)
	}
	return float64(total) / float64(len(tokens))
}

// CompressionRatio is before/after, defined as 1 when after is 0.
func CompressionRatio(before, after int) float64 {
	if after == 0 {
		return 1
	}
	return float64(before) / float64(after)
}
