package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DeafMist/tokenlab/internal/models"
	"github.com/DeafMist/tokenlab/internal/tokenize"
)

type textStats struct {
	words      int
	tokens     int
	fragmented int
	seconds    float64
}

// EvaluateSubword measures how a subword tokenizer splits held-out texts.
//
// Words come from a whitespace split of each text. A word counts as
// fragmented when more than one produced token is a case-insensitive
// substring of it. Short tokens that happen to occur inside a word are
// counted too, so the rate over-counts for vocabularies with many tiny
// pieces.
//
// A text that fails to tokenize is skipped and counted in SkippedTexts. If
// the adapter is unavailable or times out the whole evaluation fails with
// an error wrapping tokenize.ErrUnavailable. Texts not finished before ctx
// ends also count as skipped; the texts already measured are kept.
func EvaluateSubword(ctx context.Context, a tokenize.Adapter, texts []string, opts ...Option) (models.SubwordMetricRecord, error) {
	o := newOptions(opts)
	stats := make([]textStats, len(texts))
	errs := o.forEach(ctx, len(texts), func(i int) error {
		tokens, elapsed, err := o.tokenize(ctx, a, texts[i])
		if err != nil {
			return err
		}
		stats[i] = measure(texts[i], tokens)
		stats[i].seconds = elapsed.Seconds()
		return nil
	})

	var rec models.SubwordMetricRecord
	var totalSeconds float64
	measured := 0
	for i, err := range errs {
		if err != nil {
			if errors.Is(err, tokenize.ErrUnavailable) {
				return models.SubwordMetricRecord{}, fmt.Errorf("evaluate %s: %w", a.Name(), err)
			}
			rec.SkippedTexts++
			o.log.Debug("skip text", slog.String("model", a.Name()), slog.Int("index", i), slog.Any("err", err))
			continue
		}
		s := stats[i]
		rec.TotalWords += s.words
		rec.TotalTokens += s.tokens
		rec.FragmentedWords += s.fragmented
		totalSeconds += s.seconds
		measured++
	}

	if rec.TotalWords > 0 {
		rec.FragmentationRate = float64(rec.FragmentedWords) / float64(rec.TotalWords)
	}
	rec.CompressionRatio = 1
	if rec.TotalTokens > 0 {
		rec.CompressionRatio = float64(rec.TotalWords) / float64(rec.TotalTokens)
	}
	if measured > 0 {
		rec.AvgProcessingTime = totalSeconds / float64(measured)
	}
	if totalSeconds > 0 {
		rec.TokensPerSecond = float64(rec.TotalTokens) / totalSeconds
	}
	return rec, nil
}

func measure(text string, tokens []string) textStats {
	words := strings.Fields(text)
	lowered := make([]string, len(tokens))
	for i, t := range tokens {
		lowered[i] = strings.ToLower(t)
	}
	s := textStats{words: len(words), tokens: len(tokens)}
	for _, w := range words {
		w = strings.ToLower(w)
		hits := 0
		for _, t := range lowered {
			if strings.Contains(w, t) {
				hits++
				if hits > 1 {
					s.fragmented++
					break
				}
			}
		}
	}
	return s
}

// SubwordReport is the outcome of EvaluateModels.
type SubwordReport struct {
	Records     map[string]models.SubwordMetricRecord `json:"records"`
	Unavailable map[string]string                     `json:"unavailable,omitempty"`
	Skipped     []string                              `json:"skipped,omitempty"`
}

// EvaluateModels evaluates every adapter over the same texts. Models are
// run one after another so their throughput figures do not compete.
func EvaluateModels(ctx context.Context, adapters []tokenize.Adapter, texts []string, opts ...Option) SubwordReport {
	o := newOptions(opts)
	rep := SubwordReport{
		Records:     make(map[string]models.SubwordMetricRecord, len(adapters)),
		Unavailable: make(map[string]string),
	}
	for _, a := range adapters {
		if ctx.Err() != nil {
			rep.Skipped = append(rep.Skipped, a.Name())
			continue
		}
		rec, err := EvaluateSubword(ctx, a, texts, opts...)
		if err != nil {
			o.log.Warn("model unavailable", slog.String("model", a.Name()), slog.Any("err", err))
			rep.Unavailable[a.Name()] = err.Error()
			continue
		}
		o.log.Info("model evaluated",
			slog.String("model", a.Name()),
			slog.Float64("fragmentation_rate", rec.FragmentationRate),
			slog.Int("skipped_texts", rec.SkippedTexts),
		)
		rep.Records[a.Name()] = rec
	}
	return rep
}
