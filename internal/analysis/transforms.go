package analysis

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/DeafMist/tokenlab/internal/models"
	"github.com/DeafMist/tokenlab/internal/tokenize"
)

// CompareTransforms applies each transform to tokens and measures the
// change. A transform that fails or panics gets an empty token list, a
// ratio of 1 and its error text; the others are unaffected.
func CompareTransforms(ctx context.Context, tokens []string, transforms map[string]tokenize.Transform, opts ...Option) map[string]models.TransformRecord {
	o := newOptions(opts)
	names := lo.Keys(transforms)
	slices.Sort(names)

	records := make([]models.TransformRecord, len(names))
	errs := o.forEach(ctx, len(names), func(i int) error {
		start := time.Now()
		out, err := transforms[names[i]](slices.Clone(tokens))
		elapsed := time.Since(start)
		if err != nil {
			return err
		}
		records[i] = models.TransformRecord{
			Tokens:           out,
			Count:            len(out),
			DistinctCount:    len(NewVocab(out)),
			ProcessingTime:   elapsed.Seconds(),
			CompressionRatio: CompressionRatio(len(tokens), len(out)),
		}
		return nil
	})

	res := make(map[string]models.TransformRecord, len(names))
	for i, name := range names {
		if errs[i] != nil {
			o.log.Warn("transform failed", slog.String("transform", name), slog.Any("err", errs[i]))
			res[name] = models.TransformRecord{Tokens: []string{}, CompressionRatio: 1, Error: errs[i].Error()}
			continue
		}
		if records[i].Tokens == nil {
			records[i].Tokens = []string{}
		}
		res[name] = records[i]
	}
	return res
}
