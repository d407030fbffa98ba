package tokenize

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

const (
	continuationPrefix = "##"
	unknownToken       = "[UNK]"
	maxWordRunes       = 100
)

// WordPiece is the greedy longest-match-first subword tokenizer used by
// BERT-style models.
type WordPiece struct {
	name      string
	vocab     map[string]struct{}
	lowercase bool
}

// NewWordPiece builds a tokenizer over vocab. Continuation pieces carry the
// "##" prefix.
func NewWordPiece(name string, vocab []string, lowercase bool) (*WordPiece, error) {
	if len(vocab) == 0 {
		return nil, errors.New("wordpiece: empty vocabulary")
	}
	w := &WordPiece{name: name, vocab: make(map[string]struct{}, len(vocab)), lowercase: lowercase}
	for _, v := range vocab {
		w.vocab[v] = struct{}{}
	}
	return w, nil
}

// LoadWordPiece reads a vocab.txt stream with one piece per line.
func LoadWordPiece(name string, r io.Reader, lowercase bool) (*WordPiece, error) {
	var vocab []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if piece := strings.TrimRight(sc.Text(), "\r"); piece != "" {
			vocab = append(vocab, piece)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read wordpiece vocab: %w", err)
	}
	return NewWordPiece(name, vocab, lowercase)
}

// LoadWordPieceFile opens path and calls LoadWordPiece.
func LoadWordPieceFile(name, path string, lowercase bool) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wordpiece vocab: %w", err)
	}
	defer f.Close()
	return LoadWordPiece(name, f, lowercase)
}

// Name implements Adapter.
func (w *WordPiece) Name() string { return w.name }

// Tokenize implements Adapter. Continuation prefixes are stripped from the
// output; words with no segmentation become a single [UNK].
func (w *WordPiece) Tokenize(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.lowercase {
		text = strings.ToLower(text)
	}
	var out []string
	for _, word := range wordOrSymbol.FindAllString(text, -1) {
		out = append(out, w.split(word)...)
	}
	return out, nil
}

func (w *WordPiece) split(word string) []string {
	if utf8.RuneCountInString(word) > maxWordRunes {
		return []string{unknownToken}
	}
	runes := []rune(word)
	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		found := ""
		for ; end > start; end-- {
			cand := string(runes[start:end])
			if start > 0 {
				cand = continuationPrefix + cand
			}
			if _, ok := w.vocab[cand]; ok {
				found = cand
				break
			}
		}
		if found == "" {
			return []string{unknownToken}
		}
		pieces = append(pieces, strings.TrimPrefix(found, continuationPrefix))
		start = end
	}
	return pieces
}
