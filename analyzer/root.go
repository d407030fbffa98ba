package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DeafMist/tokenlab/internal/analysis"
	"github.com/DeafMist/tokenlab/internal/config"
	"github.com/DeafMist/tokenlab/internal/corpus"
	"github.com/DeafMist/tokenlab/internal/elasticsearch"
	"github.com/DeafMist/tokenlab/internal/logger"
	"github.com/DeafMist/tokenlab/internal/models"
	"github.com/DeafMist/tokenlab/internal/normalize"
	"github.com/DeafMist/tokenlab/internal/tokenize"
)

// app carries the resolved config between the root command and its
// subcommands.
type app struct {
	cfgFile string
	cfg     config.Analyzer
	log     *slog.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	defaults := config.DefaultAnalyzer()

	cmd := &cobra.Command{
		Use:           "analyzer",
		Short:         "Normalize news corpora and compare tokenizers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.LoadAnalyzer(cmd.Flags(), a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = loaded
			a.log = logger.NewTo(cmd.ErrOrStderr(), "analyzer")
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Optional config file (default ./tokenlab.yaml)")
	config.RegisterAnalyzerFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newNormalizeCmd(a))
	cmd.AddCommand(newCompareCmd(a))
	cmd.AddCommand(newTransformsCmd(a))
	cmd.AddCommand(newSubwordCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

// document returns the preprocessing document, applying the configured
// language when the document does not name one.
func (a *app) document() (normalize.Document, error) {
	doc := normalize.DefaultDocument()
	if a.cfg.Preprocessing != "" {
		loaded, err := normalize.LoadConfig(a.cfg.Preprocessing)
		if err != nil {
			return normalize.Document{}, err
		}
		doc = loaded
	}
	if a.cfg.Preprocessing == "" || doc.Language == "" {
		doc.Language = a.cfg.Language
	}
	return doc, nil
}

func (a *app) engine() (*normalize.Engine, error) {
	doc, err := a.document()
	if err != nil {
		return nil, err
	}
	return normalize.NewFromDocument(doc, normalize.WithLogger(a.log), normalize.WithWorkers(a.cfg.Workers))
}

func (a *app) registry() *tokenize.Registry {
	r := tokenize.DefaultRegistry()
	if err := tokenize.RegisterModels(r, tokenize.Models(a.cfg.Models)); err != nil {
		a.log.Warn("some tokenizer models are unavailable", slog.Any("err", err))
	}
	return r
}

func (a *app) analysisOptions() []analysis.Option {
	return []analysis.Option{
		analysis.WithWorkers(a.cfg.Workers),
		analysis.WithTimeout(a.cfg.Timeout),
		analysis.WithLogger(a.log),
	}
}

func (a *app) esClient() (*elasticsearch.Client, error) {
	return elasticsearch.New(a.cfg.Elasticsearch.Addr, a.cfg.Elasticsearch.Index, a.log)
}

// source selects where a command reads its corpus from.
type source struct {
	in     string
	fromES bool
}

func (s *source) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.in, "in", "", "JSONL corpus to read (- for stdin)")
	cmd.Flags().BoolVar(&s.fromES, "from-es", false, "Read the normalized corpus from Elasticsearch")
	cmd.MarkFlagsMutuallyExclusive("in", "from-es")
	cmd.MarkFlagsOneRequired("in", "from-es")
}

func (a *app) readArticles(cmd *cobra.Command, path string) ([]models.Article, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open corpus: %w", err)
		}
		defer f.Close()
		r = f
	}

	articles, skipped, err := corpus.ReadAll(r)
	if err != nil {
		return nil, err
	}
	for _, e := range skipped {
		a.log.Warn("skip record", slog.String("file", path), slog.Any("err", e))
	}
	a.log.Info("corpus loaded", slog.String("file", path), slog.Int("articles", len(articles)), slog.Int("skipped", len(skipped)))
	return articles, nil
}

func (a *app) loadTexts(ctx context.Context, cmd *cobra.Command, s source) ([]string, error) {
	if s.fromES {
		client, err := a.esClient()
		if err != nil {
			return nil, err
		}
		return client.FetchTexts(ctx, a.cfg.Elasticsearch.Limit)
	}
	articles, err := a.readArticles(cmd, s.in)
	if err != nil {
		return nil, err
	}
	return corpus.Texts(articles), nil
}
