package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Analyzer configures the offline analyzer CLI. Values come from flags, then
// TOKENLAB_* environment variables, then an optional tokenlab.yaml.
type Analyzer struct {
	Preprocessing string        `mapstructure:"preprocessing"`
	Language      string        `mapstructure:"language"`
	Workers       int           `mapstructure:"workers"`
	Timeout       time.Duration `mapstructure:"timeout"`
	TestFraction  float64       `mapstructure:"test_fraction"`
	Methods       []string      `mapstructure:"methods"`
	Transforms    []string      `mapstructure:"transforms"`
	Format        string        `mapstructure:"format"`
	Models        Models        `mapstructure:"models"`
	Elasticsearch Elastic       `mapstructure:"elasticsearch"`
}

// Elastic locates the normalized corpus index.
type Elastic struct {
	Addr  string `mapstructure:"addr"`
	Index string `mapstructure:"index"`
	Limit int    `mapstructure:"limit"`
}

// DefaultAnalyzer returns the analyzer defaults.
func DefaultAnalyzer() Analyzer {
	return Analyzer{
		Language:     "russian",
		Workers:      4,
		Timeout:      2 * time.Minute,
		TestFraction: 0.2,
		Format:       "table",
		Elasticsearch: Elastic{
			Addr:  "http://localhost:9200",
			Index: "news_normalized",
			Limit: 1000,
		},
	}
}

// flag name -> config key
var analyzerFlags = []struct {
	flag string
	key  string
}{
	{"preprocessing", "preprocessing"},
	{"language", "language"},
	{"workers", "workers"},
	{"timeout", "timeout"},
	{"test-fraction", "test_fraction"},
	{"methods", "methods"},
	{"transforms", "transforms"},
	{"format", "format"},
	{"sp-model", "models.sentencepiece"},
	{"unigram-vocab", "models.unigram_vocab"},
	{"wordpiece-vocab", "models.wordpiece_vocab"},
	{"lowercase-models", "models.lowercase"},
	{"es-addr", "elasticsearch.addr"},
	{"es-index", "elasticsearch.index"},
	{"es-limit", "elasticsearch.limit"},
}

// RegisterAnalyzerFlags declares the persistent analyzer flags.
func RegisterAnalyzerFlags(fs *pflag.FlagSet, d Analyzer) {
	fs.String("preprocessing", d.Preprocessing, "Path to a preprocessing config document (YAML/JSON)")
	fs.String("language", d.Language, "Lexicon language (russian|english)")
	fs.Int("workers", d.Workers, "Maximum concurrent tasks")
	fs.Duration("timeout", d.Timeout, "Per-call tokenizer timeout")
	fs.Float64("test-fraction", d.TestFraction, "Share of documents held out as the test partition")
	fs.StringSlice("methods", d.Methods, "Tokenizer methods to compare (default: all registered)")
	fs.StringSlice("transforms", d.Transforms, "Token transforms to compare (default: all)")
	fs.String("format", d.Format, "Output format (table|json)")
	fs.String("sp-model", d.Models.SentencePiece, "SentencePiece .model file")
	fs.String("unigram-vocab", d.Models.UnigramVocab, "Unigram piece<TAB>score vocabulary")
	fs.String("wordpiece-vocab", d.Models.WordPieceVocab, "WordPiece vocab.txt")
	fs.Bool("lowercase-models", d.Models.Lowercase, "Lowercase input for model-backed tokenizers")
	fs.String("es-addr", d.Elasticsearch.Addr, "Elasticsearch address")
	fs.String("es-index", d.Elasticsearch.Index, "Elasticsearch index with normalized articles")
	fs.Int("es-limit", d.Elasticsearch.Limit, "Maximum articles fetched from Elasticsearch")
}

// LoadAnalyzer resolves the analyzer config. fs may be nil.
func LoadAnalyzer(fs *pflag.FlagSet, configFile string) (Analyzer, error) {
	v := viper.New()
	setAnalyzerDefaults(v, DefaultAnalyzer())

	if fs != nil {
		for _, f := range analyzerFlags {
			if pf := fs.Lookup(f.flag); pf != nil {
				if err := v.BindPFlag(f.key, pf); err != nil {
					return Analyzer{}, fmt.Errorf("bind flag %s: %w", f.flag, err)
				}
			}
		}
	}

	v.SetEnvPrefix("TOKENLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Analyzer{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("tokenlab")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Analyzer{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Analyzer
	if err := v.Unmarshal(&cfg); err != nil {
		return Analyzer{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Analyzer{}, err
	}
	return cfg, nil
}

func setAnalyzerDefaults(v *viper.Viper, d Analyzer) {
	v.SetDefault("preprocessing", d.Preprocessing)
	v.SetDefault("language", d.Language)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("test_fraction", d.TestFraction)
	v.SetDefault("methods", d.Methods)
	v.SetDefault("transforms", d.Transforms)
	v.SetDefault("format", d.Format)
	v.SetDefault("models.sentencepiece", d.Models.SentencePiece)
	v.SetDefault("models.unigram_vocab", d.Models.UnigramVocab)
	v.SetDefault("models.wordpiece_vocab", d.Models.WordPieceVocab)
	v.SetDefault("models.lowercase", d.Models.Lowercase)
	v.SetDefault("elasticsearch.addr", d.Elasticsearch.Addr)
	v.SetDefault("elasticsearch.index", d.Elasticsearch.Index)
	v.SetDefault("elasticsearch.limit", d.Elasticsearch.Limit)
}

func (c Analyzer) validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.TestFraction < 0 || c.TestFraction > 1 {
		return fmt.Errorf("test_fraction must be within [0, 1]")
	}
	switch c.Format {
	case "table", "json":
	default:
		return fmt.Errorf("format must be table or json, got %q", c.Format)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}
