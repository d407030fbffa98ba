package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/DeafMist/tokenlab/internal/analysis"
	"github.com/DeafMist/tokenlab/internal/tokenize"
)

func newSubwordCmd(a *app) *cobra.Command {
	var (
		src    source
		models []string
	)

	cmd := &cobra.Command{
		Use:   "subword",
		Short: "Evaluate subword tokenizers on the corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			texts, err := a.loadTexts(cmd.Context(), cmd, src)
			if err != nil {
				return err
			}

			adapters, missing := a.registry().Select(models)
			rep := analysis.EvaluateModels(cmd.Context(), adapters, texts, a.analysisOptions()...)
			for _, name := range missing {
				rep.Unavailable[name] = fmt.Sprintf("%v: %q is not registered", tokenize.ErrUnavailable, name)
			}

			if a.cfg.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), rep)
			}

			rows := make([][]string, 0, len(rep.Records))
			for _, name := range slices.Sorted(maps.Keys(rep.Records)) {
				r := rep.Records[name]
				rows = append(rows, []string{
					name,
					fmt.Sprint(r.TotalWords),
					fmt.Sprint(r.TotalTokens),
					fmt.Sprint(r.FragmentedWords),
					formatFloat(r.FragmentationRate),
					formatFloat(r.CompressionRatio),
					formatFloat(r.TokensPerSecond),
					fmt.Sprint(r.SkippedTexts),
				})
			}
			w := cmd.OutOrStdout()
			if err := writeTable(w, []string{"model", "words", "tokens", "fragmented", "frag_rate", "compression", "tokens/s", "skipped"}, rows); err != nil {
				return err
			}
			if err := writeUnavailable(w, rep.Unavailable); err != nil {
				return err
			}
			return writeSkipped(w, rep.Skipped)
		},
	}

	src.register(cmd)
	cmd.Flags().StringSliceVar(&models, "models", nil, "Models to evaluate (default: all registered)")

	return cmd
}
