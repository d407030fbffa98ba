package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/DeafMist/tokenlab/internal/analysis"
	"github.com/DeafMist/tokenlab/internal/tokenize"
)

func newCompareCmd(a *app) *cobra.Command {
	var src source

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare tokenizers on a train/test split of the corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			texts, err := a.loadTexts(cmd.Context(), cmd, src)
			if err != nil {
				return err
			}

			adapters, missing := a.registry().Select(a.cfg.Methods)
			res, err := analysis.Compare(cmd.Context(), texts, a.cfg.TestFraction, adapters, a.analysisOptions()...)
			if err != nil {
				return err
			}
			for _, name := range missing {
				res.Unavailable[name] = fmt.Sprintf("%v: %q is not registered", tokenize.ErrUnavailable, name)
			}

			if a.cfg.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			rows := make([][]string, 0, len(res.Records))
			for _, name := range slices.Sorted(maps.Keys(res.Records)) {
				r := res.Records[name]
				rows = append(rows, []string{
					name,
					fmt.Sprint(r.TrainVocabSize),
					fmt.Sprint(r.TestVocabSize),
					formatFloat(r.OOVRate),
					formatFloat(r.VocabularyOverlap),
					formatFloat(r.AvgTokenLength),
					formatFloat(r.TrainProcessingTime),
					formatFloat(r.TestProcessingTime),
				})
			}
			w := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(w, "run %s: %d train / %d test documents\n\n", res.RunID, res.TrainDocs, res.TestDocs); err != nil {
				return err
			}
			if err := writeTable(w, []string{"method", "train_vocab", "test_vocab", "oov_rate", "overlap", "avg_len", "train_s", "test_s"}, rows); err != nil {
				return err
			}
			if err := writeUnavailable(w, res.Unavailable); err != nil {
				return err
			}
			return writeSkipped(w, res.Skipped)
		},
	}

	src.register(cmd)
	return cmd
}
