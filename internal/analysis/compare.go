// Package analysis compares tokenizers and token transforms over a
// normalized corpus. All results are reduced after the worker pool has
// finished, so they do not depend on scheduling or worker count.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/DeafMist/tokenlab/internal/models"
	"github.com/DeafMist/tokenlab/internal/tokenize"
)

// ErrTestFraction is returned for a test fraction outside [0, 1].
var ErrTestFraction = errors.New("analysis: test fraction must be within [0, 1]")

// Split partitions texts at floor(len * (1 - testFraction)), keeping order.
func Split(texts []string, testFraction float64) (train, test []string, err error) {
	if math.IsNaN(testFraction) || testFraction < 0 || testFraction > 1 {
		return nil, nil, fmt.Errorf("%w: got %v", ErrTestFraction, testFraction)
	}
	idx := int(math.Floor(float64(len(texts)) * (1 - testFraction)))
	idx = max(0, min(idx, len(texts)))
	return texts[:idx], texts[idx:], nil
}

// Comparison is the outcome of one Compare run.
type Comparison struct {
	RunID       string                             `json:"run_id"`
	Records     map[string]models.ComparisonRecord `json:"records"`
	Unavailable map[string]string                  `json:"unavailable,omitempty"`
	// Skipped names methods cut short because the run was cancelled.
	Skipped     []string                           `json:"skipped,omitempty"`
	TrainDocs   int                                `json:"train_docs"`
	TestDocs    int                                `json:"test_docs"`
}

// Compare tokenizes the train and test partitions with every adapter and
// computes vocabulary metrics. An adapter that fails, panics or times out is
// left out of Records and named in Unavailable. Methods that could not
// finish before ctx ended are named in Skipped.
func Compare(ctx context.Context, texts []string, testFraction float64, adapters []tokenize.Adapter, opts ...Option) (Comparison, error) {
	train, test, err := Split(texts, testFraction)
	if err != nil {
		return Comparison{}, err
	}
	o := newOptions(opts)
	trainText := strings.Join(train, " ")
	testText := strings.Join(test, " ")

	res := Comparison{
		RunID:       uuid.NewString(),
		Records:     make(map[string]models.ComparisonRecord, len(adapters)),
		Unavailable: make(map[string]string),
		TrainDocs:   len(train),
		TestDocs:    len(test),
	}
	o.log.Info("comparison started",
		slog.String("run_id", res.RunID),
		slog.Int("train_docs", len(train)),
		slog.Int("test_docs", len(test)),
		slog.Int("methods", len(adapters)),
	)

	records := make([]models.ComparisonRecord, len(adapters))
	errs := o.forEach(ctx, len(adapters), func(i int) error {
		rec, err := compareOne(ctx, o, adapters[i], trainText, testText)
		records[i] = rec
		return err
	})

	for i, a := range adapters {
		if errors.Is(errs[i], ErrSkipped) {
			res.Skipped = append(res.Skipped, a.Name())
			continue
		}
		if errs[i] != nil {
			res.Unavailable[a.Name()] = errs[i].Error()
			o.log.Warn("method unavailable", slog.String("method", a.Name()), slog.Any("err", errs[i]))
			continue
		}
		res.Records[a.Name()] = records[i]
	}
	return res, nil
}

func compareOne(ctx context.Context, o options, a tokenize.Adapter, trainText, testText string) (models.ComparisonRecord, error) {
	trainTokens, trainTime, err := o.tokenize(ctx, a, trainText)
	if err != nil {
		return models.ComparisonRecord{}, fmt.Errorf("tokenize train: %w", err)
	}
	testTokens, testTime, err := o.tokenize(ctx, a, testText)
	if err != nil {
		return models.ComparisonRecord{}, fmt.Errorf("tokenize test: %w", err)
	}

	trainVocab := NewVocab(trainTokens)
	testVocab := NewVocab(testTokens)
	return models.ComparisonRecord{
		TrainVocabSize:      len(trainVocab),
		TestVocabSize:       len(testVocab),
		OOVRate:             OOVRate(trainVocab, testVocab),
		VocabularyOverlap:   VocabularyOverlap(trainVocab, testVocab),
		TrainProcessingTime: trainTime.Seconds(),
		TestProcessingTime:  testTime.Seconds(),
		AvgTokenLength:      AvgTokenLength(trainTokens),
	}, nil
}
