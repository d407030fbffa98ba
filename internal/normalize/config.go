package normalize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfig marks a configuration that cannot be turned into an Engine.
var ErrConfig = errors.New("normalize: invalid configuration")

// Config selects which stages of the cascade run. The zero value disables
// everything; use DefaultConfig for the usual settings.
type Config struct {
	ReplaceNumbers       bool `json:"replace_numbers" yaml:"replace_numbers"`
	ReplaceURLs          bool `json:"replace_urls" yaml:"replace_urls"`
	ReplaceEmails        bool `json:"replace_emails" yaml:"replace_emails"`
	ReplacePhones        bool `json:"replace_phones" yaml:"replace_phones"`
	ReplaceDates         bool `json:"replace_dates" yaml:"replace_dates"`
	ReplaceTimes         bool `json:"replace_times" yaml:"replace_times"`
	ReplaceCurrencies    bool `json:"replace_currencies" yaml:"replace_currencies"`
	NormalizePunctuation bool `json:"normalize_punctuation" yaml:"normalize_punctuation"`
	NormalizeQuotes      bool `json:"normalize_quotes" yaml:"normalize_quotes"`
	NormalizeDashes      bool `json:"normalize_dashes" yaml:"normalize_dashes"`
	NormalizeSpaces      bool `json:"normalize_spaces" yaml:"normalize_spaces"`
	ExpandAbbreviations  bool `json:"expand_abbreviations" yaml:"expand_abbreviations"`
	ExpandContractions   bool `json:"expand_contractions" yaml:"expand_contractions"`
	ToLowercase          bool `json:"to_lowercase" yaml:"to_lowercase"`
}

type option struct {
	name  string
	field func(*Config) *bool
}

var options = []option{
	{"replace_numbers", func(c *Config) *bool { return &c.ReplaceNumbers }},
	{"replace_urls", func(c *Config) *bool { return &c.ReplaceURLs }},
	{"replace_emails", func(c *Config) *bool { return &c.ReplaceEmails }},
	{"replace_phones", func(c *Config) *bool { return &c.ReplacePhones }},
	{"replace_dates", func(c *Config) *bool { return &c.ReplaceDates }},
	{"replace_times", func(c *Config) *bool { return &c.ReplaceTimes }},
	{"replace_currencies", func(c *Config) *bool { return &c.ReplaceCurrencies }},
	{"normalize_punctuation", func(c *Config) *bool { return &c.NormalizePunctuation }},
	{"normalize_quotes", func(c *Config) *bool { return &c.NormalizeQuotes }},
	{"normalize_dashes", func(c *Config) *bool { return &c.NormalizeDashes }},
	{"normalize_spaces", func(c *Config) *bool { return &c.NormalizeSpaces }},
	{"expand_abbreviations", func(c *Config) *bool { return &c.ExpandAbbreviations }},
	{"expand_contractions", func(c *Config) *bool { return &c.ExpandContractions }},
	{"to_lowercase", func(c *Config) *bool { return &c.ToLowercase }},
}

// DefaultConfig enables every stage except lowercasing.
func DefaultConfig() Config {
	c := DisabledConfig()
	for _, o := range options {
		*o.field(&c) = true
	}
	c.ToLowercase = false
	return c
}

// DisabledConfig turns every stage off. Normalize is the identity under it.
func DisabledConfig() Config {
	return Config{}
}

// OptionNames lists the recognised option keys in cascade order.
func OptionNames() []string {
	names := make([]string, len(options))
	for i, o := range options {
		names[i] = o.name
	}
	return names
}

// Enabled reports the value of a named option.
func (c Config) Enabled(name string) bool {
	for _, o := range options {
		if o.name == name {
			return *o.field(&c)
		}
	}
	return false
}

// Map flattens the config into option name -> value.
func (c Config) Map() map[string]bool {
	out := make(map[string]bool, len(options))
	for _, o := range options {
		out[o.name] = *o.field(&c)
	}
	return out
}

// FromMap overlays m on DefaultConfig. Unknown keys are rejected.
func FromMap(m map[string]bool) (Config, error) {
	c := DefaultConfig()
	var unknown []string
	for k, v := range m {
		found := false
		for _, o := range options {
			if o.name == k {
				*o.field(&c) = v
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Config{}, fmt.Errorf("%w: unknown option(s) %s", ErrConfig, strings.Join(unknown, ", "))
	}
	return c, nil
}

// CustomRule is an extra regular-expression rewrite applied right after the
// built-in sentinel substitutions. Replacement may use $1-style expansion.
type CustomRule struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Pattern     string `json:"pattern" yaml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement"`
}

// Document is the persisted preprocessing configuration: the flat option
// set plus the build options that sit beside it.
type Document struct {
	Config      `yaml:",inline"`
	Language    string            `json:"language,omitempty" yaml:"language,omitempty"`
	Sentinels   map[string]string `json:"sentinels,omitempty" yaml:"sentinels,omitempty"`
	CustomRules []CustomRule      `json:"custom_rules,omitempty" yaml:"custom_rules,omitempty"`
}

// DefaultDocument wraps DefaultConfig with the default language.
func DefaultDocument() Document {
	return Document{Config: DefaultConfig(), Language: "russian"}
}

// LoadDocument decodes a YAML (or JSON) document. Missing keys keep their
// defaults; unknown keys are an error.
func LoadDocument(r io.Reader) (Document, error) {
	doc := DefaultDocument()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		return Document{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return doc, nil
}

// LoadConfig reads a document from path.
func LoadConfig(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open preprocessing config: %w", err)
	}
	defer f.Close()
	return LoadDocument(f)
}

// WriteDocument encodes doc as YAML.
func WriteDocument(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode preprocessing config: %w", err)
	}
	return enc.Close()
}

// SaveConfig writes doc to path, replacing any existing file.
func SaveConfig(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preprocessing config: %w", err)
	}
	if err := WriteDocument(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
