package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DeafMist/tokenlab/internal/analysis"
	"github.com/DeafMist/tokenlab/internal/tokenize"
)

func newTransformsCmd(a *app) *cobra.Command {
	var (
		src    source
		limit  int
		method string
	)

	cmd := &cobra.Command{
		Use:   "transforms",
		Short: "Compare token transforms on the corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			texts, err := a.loadTexts(cmd.Context(), cmd, src)
			if err != nil {
				return err
			}
			if limit > 0 && len(texts) > limit {
				texts = texts[:limit]
			}

			adapter, ok := a.registry().Get(method)
			if !ok {
				return fmt.Errorf("%w: %q is not registered", tokenize.ErrUnavailable, method)
			}
			tokens, err := adapter.Tokenize(cmd.Context(), strings.Join(texts, " "))
			if err != nil {
				return fmt.Errorf("tokenize with %s: %w", method, err)
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}
			transforms, unknown := tokenize.SelectTransforms(engine.Lexicon(), a.cfg.Transforms)
			if len(unknown) > 0 {
				return fmt.Errorf("unknown transforms: %s (have %s)", strings.Join(unknown, ", "), strings.Join(tokenize.TransformNames(), ", "))
			}
			records := analysis.CompareTransforms(cmd.Context(), tokens, transforms, a.analysisOptions()...)

			if a.cfg.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), records)
			}

			rows := make([][]string, 0, len(records))
			for _, name := range slices.Sorted(maps.Keys(records)) {
				r := records[name]
				rows = append(rows, []string{
					name,
					fmt.Sprint(r.Count),
					fmt.Sprint(r.DistinctCount),
					formatFloat(r.CompressionRatio),
					formatFloat(r.ProcessingTime),
					r.Error,
				})
			}
			return writeTable(cmd.OutOrStdout(), []string{"transform", "tokens", "distinct", "compression", "seconds", "error"}, rows)
		},
	}

	src.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of texts to use (0 for all)")
	cmd.Flags().StringVar(&method, "method", "regex", "Tokenizer producing the base token sequence")

	return cmd
}
