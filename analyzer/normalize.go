package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DeafMist/tokenlab/internal/corpus"
	"github.com/DeafMist/tokenlab/internal/models"
)

const defaultTitleWords = 12

func newNormalizeCmd(a *app) *cobra.Command {
	var (
		in, out string
		index   bool
	)

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize a JSONL article corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			articles, err := a.readArticles(cmd, in)
			if err != nil {
				return err
			}

			prepared := make([]models.Article, 0, len(articles))
			for _, art := range articles {
				p, err := corpus.Prepare(art, defaultTitleWords)
				if err != nil {
					a.log.Warn("skip article", slog.String("id", art.ID), slog.Any("err", err))
					continue
				}
				prepared = append(prepared, p)
			}

			res := engine.BatchNormalize(cmd.Context(), prepared)

			written, err := writeArticles(cmd.OutOrStdout(), out, res.Articles)
			if err != nil {
				return err
			}

			if index {
				client, err := a.esClient()
				if err != nil {
					return err
				}
				for _, art := range res.Articles {
					if err := client.IndexArticle(cmd.Context(), art); err != nil {
						return err
					}
				}
				a.log.Info("indexed articles", slog.String("index", client.Index()), slog.Int("count", len(res.Articles)))
			}

			a.log.Info("normalization finished",
				slog.Int("written", written),
				slog.Int("skipped", res.Skipped+len(articles)-len(prepared)),
				slog.Int("rules", engine.Rules().Len()),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Raw JSONL corpus (- for stdin)")
	cmd.Flags().StringVar(&out, "out", "-", "Normalized JSONL output (- for stdout)")
	cmd.Flags().BoolVar(&index, "index", false, "Also index normalized articles into Elasticsearch")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

// writeArticles writes JSONL to path, or to stdout when path is empty or "-".
func writeArticles(stdout io.Writer, path string, articles []models.Article) (int, error) {
	if path == "" || path == "-" {
		return encodeArticles(stdout, articles)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	return closeAfter(f, func(w io.Writer) (int, error) { return encodeArticles(w, articles) })
}

// closeAfter runs write against wc and closes it. A failed close is an error
// because buffered data may not have reached the file.
func closeAfter(wc io.WriteCloser, write func(io.Writer) (int, error)) (int, error) {
	n, err := write(wc)
	if err != nil {
		_ = wc.Close()
		return n, err
	}
	if err := wc.Close(); err != nil {
		return n, fmt.Errorf("close output: %w", err)
	}
	return n, nil
}

func encodeArticles(w io.Writer, articles []models.Article) (int, error) {
	cw := corpus.NewWriter(w)
	for _, art := range articles {
		if err := cw.Write(art); err != nil {
			return cw.Count(), err
		}
	}
	return cw.Count(), nil
}
