package tokenize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
)

// SentencePiece runs a trained SentencePiece .model file through the pure-Go
// encoder.
type SentencePiece struct {
	name string
	proc gosp.Sentencepiece
}

// NewSentencePiece loads the model at path. An empty path means the backend
// is not configured and yields ErrUnavailable.
func NewSentencePiece(name, path string, lowercase bool) (*SentencePiece, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: %s: no model path", ErrUnavailable, name)
	}
	proc, err := gosp.NewSentencepieceFromFile(path, lowercase)
	if err != nil {
		return nil, fmt.Errorf("load sentencepiece model %q: %w", path, err)
	}
	return &SentencePiece{name: name, proc: proc}, nil
}

// Name implements Adapter.
func (s *SentencePiece) Name() string { return s.name }

// Tokenize implements Adapter. Word-boundary markers are stripped.
func (s *SentencePiece) Tokenize(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	toks := s.proc.Tokenize(text)
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if p := strings.TrimPrefix(t.Text, string(spaceMarker)); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// Models names the optional model-backed adapters. Empty paths are skipped.
type Models struct {
	SentencePiece  string
	UnigramVocab   string
	WordPieceVocab string
	Lowercase      bool
}

// RegisterModels loads every configured model into r. A model that fails to
// load is registered as Unavailable so reports still name it; the returned
// error joins the load failures for logging.
func RegisterModels(r *Registry, m Models) error {
	var errs []error
	add := func(name string, a Adapter, err error) {
		if err != nil {
			errs = append(errs, err)
			a = Unavailable(name, err)
		}
		if rerr := r.Register(a); rerr != nil {
			errs = append(errs, rerr)
		}
	}
	if m.SentencePiece != "" {
		sp, err := NewSentencePiece("sentencepiece", m.SentencePiece, m.Lowercase)
		add("sentencepiece", sp, err)
	}
	if m.UnigramVocab != "" {
		u, err := LoadUnigramFile("unigram", m.UnigramVocab)
		add("unigram", u, err)
	}
	if m.WordPieceVocab != "" {
		w, err := LoadWordPieceFile("wordpiece", m.WordPieceVocab, m.Lowercase)
		add("wordpiece", w, err)
	}
	return errors.Join(errs...)
}
