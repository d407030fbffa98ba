// Package normalize rewrites raw news text into the normalized form used for
// tokenizer research. The cascade runs in a fixed order: sentinel
// substitution, dictionary expansion, punctuation, quotes and dashes,
// whitespace, and finally lowercasing.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/tokenlab/internal/lexicon"
	"github.com/DeafMist/tokenlab/internal/logger"
	"github.com/DeafMist/tokenlab/internal/models"
)

// ErrInvalidUTF8 is returned for articles whose title or text is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("normalize: invalid utf-8")

// maxPasses bounds the fixpoint loop in Normalize.
const maxPasses = 4

const progressEvery = 100

// Engine applies a RuleSet built from a Config and a Lexicon. It is safe for
// concurrent use.
type Engine struct {
	cfg       Config
	lex       *lexicon.Lexicon
	sentinels Sentinels
	rules     RuleSet
	log       *slog.Logger
	workers   int
}

type settings struct {
	sentinels Sentinels
	custom    []CustomRule
	log       *slog.Logger
	workers   int
}

// Option customises an Engine.
type Option func(*settings)

// WithSentinels overrides the entity markers.
func WithSentinels(s Sentinels) Option {
	return func(o *settings) { o.sentinels = s }
}

// WithCustomRules adds regular-expression rewrites after the sentinel stage.
func WithCustomRules(rules ...CustomRule) Option {
	return func(o *settings) { o.custom = append(o.custom, rules...) }
}

// WithLogger sets the logger used by BatchNormalize.
func WithLogger(l *slog.Logger) Option {
	return func(o *settings) {
		if l != nil {
			o.log = l
		}
	}
}

// WithWorkers bounds BatchNormalize parallelism.
func WithWorkers(n int) Option {
	return func(o *settings) {
		if n > 0 {
			o.workers = n
		}
	}
}

// New builds an Engine. Any problem with the rules is reported as ErrConfig.
func New(cfg Config, lex *lexicon.Lexicon, opts ...Option) (*Engine, error) {
	if lex == nil {
		lex = lexicon.Russian()
	}
	st := settings{
		sentinels: DefaultSentinels(),
		log:       logger.Discard(),
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&st)
	}
	if err := st.sentinels.validate(); err != nil {
		return nil, err
	}
	custom, err := compileCustomRules(st.custom)
	if err != nil {
		return nil, err
	}
	all, err := buildRules(lex.Tag(), lex.Abbreviations(), lex.Contractions(), st.sentinels, custom)
	if err != nil {
		return nil, err
	}
	for _, marker := range st.sentinels.List() {
		for _, r := range all.rules {
			if r.Name == "lowercase" {
				continue
			}
			if got := r.Apply(marker); got != marker {
				return nil, fmt.Errorf("%w: sentinel %q is rewritten by rule %s", ErrConfig, marker, r.Name)
			}
		}
	}
	return &Engine{
		cfg:       cfg,
		lex:       lex,
		sentinels: st.sentinels,
		rules:     all.enabled(cfg),
		log:       st.log,
		workers:   st.workers,
	}, nil
}

// NewFromDocument builds an Engine from a persisted document.
func NewFromDocument(doc Document, opts ...Option) (*Engine, error) {
	lex, err := lexicon.For(doc.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	sentinels, err := SentinelsFromMap(doc.Sentinels)
	if err != nil {
		return nil, err
	}
	all := append([]Option{WithSentinels(sentinels), WithCustomRules(doc.CustomRules...)}, opts...)
	return New(doc.Config, lex, all...)
}

// Config returns the config the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Sentinels returns the markers in use.
func (e *Engine) Sentinels() Sentinels { return e.sentinels }

// Rules returns the enabled rules in execution order.
func (e *Engine) Rules() RuleSet { return e.rules }

// Lexicon returns the injected lexicon.
func (e *Engine) Lexicon() *lexicon.Lexicon { return e.lex }

// Normalize rewrites text. Collapsing stages can expose new matches, so the
// cascade is repeated while one of them changed the text and the output is
// still moving.
func (e *Engine) Normalize(text string) string {
	if text == "" || e.rules.Len() == 0 {
		return text
	}
	out, reshaped := e.rules.apply(text)
	for i := 1; i < maxPasses && reshaped; i++ {
		var next string
		next, reshaped = e.rules.apply(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

// NormalizeArticle returns a copy of a with title and text normalized.
func (e *Engine) NormalizeArticle(a models.Article) (models.Article, error) {
	if !utf8.ValidString(a.Title) || !utf8.ValidString(a.Text) {
		return models.Article{}, fmt.Errorf("%w: article %q", ErrInvalidUTF8, a.ID)
	}
	return a.WithText(e.Normalize(a.Title), e.Normalize(a.Text)), nil
}

// Failure describes one article BatchNormalize could not process.
type Failure struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// BatchResult holds the articles that succeeded, in input order.
type BatchResult struct {
	Articles []models.Article `json:"articles"`
	Skipped  int              `json:"skipped"`
	Failures []Failure        `json:"failures,omitempty"`
}

type slot struct {
	article models.Article
	err     error
	done    bool
}

// BatchNormalize normalizes articles over a bounded pool. A failing article
// is logged and skipped. When ctx is cancelled no further articles are
// scheduled and the unscheduled ones count as skipped.
func (e *Engine) BatchNormalize(ctx context.Context, articles []models.Article) BatchResult {
	slots := make([]slot, len(articles))
	var processed atomic.Int64

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range articles {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			slots[i].article, slots[i].err = e.safeNormalize(articles[i])
			slots[i].done = true
			if n := processed.Add(1); n%progressEvery == 0 {
				e.log.Info("normalization progress", slog.Int64("done", n), slog.Int("total", len(articles)))
			}
			return nil
		})
	}
	_ = g.Wait()

	res := BatchResult{Articles: make([]models.Article, 0, len(articles))}
	for i, s := range slots {
		switch {
		case !s.done:
			res.Skipped++
		case s.err != nil:
			res.Skipped++
			res.Failures = append(res.Failures, Failure{Index: i, ID: articles[i].ID, Error: s.err.Error()})
			e.log.Warn("skip article", slog.Int("index", i), slog.String("id", articles[i].ID), slog.Any("err", s.err))
		default:
			res.Articles = append(res.Articles, s.article)
		}
	}
	if ctx.Err() != nil {
		e.log.Warn("batch normalization interrupted", slog.Int("normalized", len(res.Articles)), slog.Int("skipped", res.Skipped))
	}
	return res
}

func (e *Engine) safeNormalize(a models.Article) (out models.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("normalize article %q: panic: %v", a.ID, r)
		}
	}()
	return e.NormalizeArticle(a)
}

var engines sync.Map

// Normalize rewrites text under cfg with the default Russian lexicon.
// Engines are cached per Config.
func Normalize(text string, cfg Config) string {
	if v, ok := engines.Load(cfg); ok {
		return v.(*Engine).Normalize(text)
	}
	e, err := New(cfg, lexicon.Russian())
	if err != nil {
		// built-in tables and markers always compile
		panic(err)
	}
	v, _ := engines.LoadOrStore(cfg, e)
	return v.(*Engine).Normalize(text)
}
