package tokenize

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	spaceMarker = '▁' // U+2581, SentencePiece word-boundary marker
	negInf      = -1e9
	unkPenalty  = 10.0
)

// Unigram segments text with the Viterbi algorithm over a scored piece
// vocabulary, the way a SentencePiece unigram model does.
type Unigram struct {
	name     string
	scores   map[string]float64
	maxLen   int
	unkScore float64
}

// NewUnigram builds a model from piece -> log-probability scores.
func NewUnigram(name string, scores map[string]float64) (*Unigram, error) {
	if len(scores) == 0 {
		return nil, errors.New("unigram: empty vocabulary")
	}
	u := &Unigram{name: name, scores: make(map[string]float64, len(scores)), unkScore: math.Inf(1)}
	for piece, score := range scores {
		u.scores[piece] = score
		if n := utf8.RuneCountInString(piece); n > u.maxLen {
			u.maxLen = n
		}
		if score < u.unkScore {
			u.unkScore = score
		}
	}
	u.unkScore -= unkPenalty
	return u, nil
}

// LoadUnigram reads a SentencePiece .vocab stream: one "piece<TAB>score"
// pair per line.
func LoadUnigram(name string, r io.Reader) (*Unigram, error) {
	scores := make(map[string]float64)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		piece, score, ok := strings.Cut(raw, "\t")
		if !ok {
			return nil, fmt.Errorf("unigram vocab line %d: missing score", line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(score), 64)
		if err != nil {
			return nil, fmt.Errorf("unigram vocab line %d: %w", line, err)
		}
		scores[piece] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read unigram vocab: %w", err)
	}
	return NewUnigram(name, scores)
}

// LoadUnigramFile opens path and calls LoadUnigram.
func LoadUnigramFile(name, path string) (*Unigram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open unigram vocab: %w", err)
	}
	defer f.Close()
	return LoadUnigram(name, f)
}

// Name implements Adapter.
func (u *Unigram) Name() string { return u.name }

// Tokenize implements Adapter. Word-boundary markers are stripped from the
// returned pieces so tokens compare against surface text.
func (u *Unigram) Tokenize(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pieces := u.Encode(text)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if s := strings.TrimPrefix(p, string(spaceMarker)); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Encode returns the best-scoring piece sequence, markers included.
func (u *Unigram) Encode(text string) []string {
	runes := []rune(markSpaces(text))
	n := len(runes)
	if n == 0 {
		return nil
	}

	best := make([]float64, n+1)
	parent := make([]int, n+1)
	for i := 1; i <= n; i++ {
		best[i] = negInf
		parent[i] = -1
	}

	for i := 1; i <= n; i++ {
		maxLen := min(u.maxLen, i)
		for length := 1; length <= maxLen; length++ {
			j := i - length
			score, ok := u.scores[string(runes[j:i])]
			if !ok {
				continue
			}
			if cand := best[j] + score; cand > best[i] {
				best[i] = cand
				parent[i] = j
			}
		}
		if parent[i] < 0 {
			best[i] = best[i-1] + u.unkScore
			parent[i] = i - 1
		}
	}

	var pieces []string
	for pos := n; pos > 0; pos = parent[pos] {
		pieces = append(pieces, string(runes[parent[pos]:pos]))
	}
	for i, j := 0, len(pieces)-1; i < j; i, j = i+1, j-1 {
		pieces[i], pieces[j] = pieces[j], pieces[i]
	}
	return pieces
}

// markSpaces collapses whitespace runs into a single marker placed before
// each word, including the first.
func markSpaces(text string) string {
	var b strings.Builder
	needSpace := true
	for _, r := range text {
		if unicode.IsSpace(r) {
			if b.Len() > 0 {
				needSpace = true
			}
			continue
		}
		if needSpace {
			b.WriteRune(spaceMarker)
			needSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
