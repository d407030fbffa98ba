package normalize_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/tokenlab/internal/lexicon"
	"github.com/DeafMist/tokenlab/internal/models"
	"github.com/DeafMist/tokenlab/internal/normalize"
)

func only(t *testing.T, names ...string) normalize.Config {
	t.Helper()
	m := normalize.DisabledConfig().Map()
	for _, n := range names {
		m[n] = true
	}
	cfg, err := normalize.FromMap(m)
	require.NoError(t, err)
	return cfg
}

func TestNormalizeSingleStage(t *testing.T) {
	tests := []struct {
		name   string
		option string
		input  string
		want   string
	}{
		{name: "price example", option: "replace_numbers", input: "Цена 100 руб. выросла на 15%.", want: "Цена <NUM> руб. выросла на <NUM>%."},
		{name: "ordinal", option: "replace_numbers", input: "на 5-й этаж", want: "на <NUM> этаж"},
		{name: "decimal comma", option: "replace_numbers", input: "рост на 1,5 процента", want: "рост на <NUM> процента"},
		{name: "digit word", option: "replace_numbers", input: "в 2023г и abc123", want: "в <NUM> и <NUM>"},
		{name: "url", option: "replace_urls", input: "см. https://example.com/news/1.", want: "см. <URL>."},
		{name: "www url", option: "replace_urls", input: "сайт www.ria.ru работает", want: "сайт <URL> работает"},
		{name: "email", option: "replace_emails", input: "пишите на info@example.ru сегодня", want: "пишите на <EMAIL> сегодня"},
		{name: "phone", option: "replace_phones", input: "звоните +7 (916) 123-45-67 сейчас", want: "звоните <PHONE> сейчас"},
		{name: "numeric date", option: "replace_dates", input: "встреча 15.12.2023 в зале", want: "встреча <DATE> в зале"},
		{name: "iso date", option: "replace_dates", input: "2023-12-15", want: "<DATE>"},
		{name: "month name date", option: "replace_dates", input: "15 декабря 2023 года", want: "<DATE> года"},
		{name: "time", option: "replace_times", input: "начало в 14:30 по Москве", want: "начало в <TIME> по Москве"},
		{name: "time with suffix", option: "replace_times", input: "в 8:00 утра", want: "в <TIME>"},
		{name: "currency word", option: "replace_currencies", input: "стоит 100 руб. сейчас", want: "стоит <CURRENCY>. сейчас"},
		{name: "currency prefix symbol", option: "replace_currencies", input: "всего $5", want: "всего <CURRENCY>"},
		{name: "currency euro", option: "replace_currencies", input: "20 евро", want: "<CURRENCY>"},
		{name: "abbreviation", option: "expand_abbreviations", input: "Москва, ул. Тверская", want: "Москва, улица Тверская"},
		{name: "abbreviation ignores case", option: "expand_abbreviations", input: "Т.е. так", want: "то есть так"},
		{name: "abbreviation longest key", option: "expand_abbreviations", input: "и т.д. и т.п.", want: "и так далее и тому подобное"},
		{name: "abbreviation inside word", option: "expand_abbreviations", input: "пул. воды", want: "пул. воды"},
		{name: "contraction", option: "expand_contractions", input: "ну щас", want: "ну сейчас"},
		{name: "contraction inside word", option: "expand_contractions", input: "щасливо", want: "щасливо"},
		{name: "repeated punctuation", option: "normalize_punctuation", input: "Очень интересно!!!", want: "Очень интересно!"},
		{name: "ellipsis", option: "normalize_punctuation", input: "Что?!.. Да....", want: "Что? Да…"},
		{name: "quotes", option: "normalize_quotes", input: "«Привет» „мир“", want: `"Привет" "мир"`},
		{name: "dashes", option: "normalize_dashes", input: "a — b – c", want: "a - b - c"},
		{name: "spaces", option: "normalize_spaces", input: "  a \t\n b  c  ", want: "a b c"},
		{name: "lowercase keeps markers", option: "to_lowercase", input: "Цена <NUM> ВЫРОСЛА", want: "цена <NUM> выросла"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalize.Normalize(tt.input, only(t, tt.option))
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDefaultConfig(t *testing.T) {
	got := normalize.Normalize("Цена 100 руб. выросла   на 15%!!!", normalize.DefaultConfig())
	require.Equal(t, "Цена <NUM> рублей выросла на <NUM>%!", got)
}

func TestNormalizeIdentityWhenDisabled(t *testing.T) {
	inputs := []string{
		"",
		"  Цена 100 руб.  выросла!!! ",
		"«Кавычки» — и тире… https://example.com 15.12.2023",
		"\tmixed\nwhitespace ",
	}
	for _, in := range inputs {
		require.Equal(t, in, normalize.Normalize(in, normalize.DisabledConfig()))
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Цена 100 руб. выросла на 15%.",
		"12..05..2023 встреча в 14:30!!!",
		"Пишите: info@example.ru, звоните +7 (916) 123-45-67...",
		"т.е. «ЩАС» — 5-й раз?!",
		"См. https://example.com/a/b?x=1 и т.д....",
	}
	lower := normalize.DefaultConfig()
	lower.ToLowercase = true

	configs := map[string]normalize.Config{
		"default":        normalize.DefaultConfig(),
		"lowercase":      lower,
		"dates and dots": only(t, "replace_dates", "normalize_punctuation"),
		"no numbers":     func() normalize.Config { c := normalize.DefaultConfig(); c.ReplaceNumbers = false; return c }(),
	}
	for name, cfg := range configs {
		for _, in := range inputs {
			t.Run(name, func(t *testing.T) {
				once := normalize.Normalize(in, cfg)
				require.Equal(t, once, normalize.Normalize(once, cfg))
			})
		}
	}
}

func TestNormalizeCollapseExposesDate(t *testing.T) {
	got := normalize.Normalize("12..05..2023", only(t, "replace_dates", "normalize_punctuation"))
	require.Equal(t, "<DATE>", got)
}

func TestNormalizeRepeatsOnlyAfterCollapse(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		input   string
		want    string
	}{
		{name: "spaces expose phone", options: []string{"replace_phones", "normalize_spaces"}, input: "звоните 916  123-45-67", want: "звоните <PHONE>"},
		{name: "dashes expose url", options: []string{"replace_urls", "normalize_dashes"}, input: "сайт www.ria—news.ru", want: "сайт <URL>"},
		{name: "nothing collapses", options: []string{"replace_numbers", "normalize_quotes", "to_lowercase"}, input: "«Цена» 100", want: `"цена" <NUM>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := only(t, tt.options...)
			got := normalize.Normalize(tt.input, cfg)
			require.Equal(t, tt.want, got)
			require.Equal(t, got, normalize.Normalize(got, cfg))
		})
	}
}

func TestDictionaryMatchesLikeWordEdges(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "upper case key", input: "ТЫС. человек", want: "тысяч человек"},
		{name: "sentence start", input: "Ул. Тверская", want: "улица Тверская"},
		{name: "after punctuation", input: "(ул. Тверская)", want: "(улица Тверская)"},
		{name: "end of text", input: "и т.д.", want: "и так далее"},
		{name: "no key", input: "обычный текст без сокращений", want: "обычный текст без сокращений"},
	}

	cfg := only(t, "expand_abbreviations")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, normalize.Normalize(tt.input, cfg))
		})
	}
}

func BenchmarkNormalize(b *testing.B) {
	text := strings.Repeat("Цена 100 руб. выросла на 15% за 2023 г., сообщает «Коммерсантъ» — подробности на https://example.com/news. ", 200)
	engine, err := normalize.New(normalize.DefaultConfig(), lexicon.Russian())
	require.NoError(b, err)
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for range b.N {
		engine.Normalize(text)
	}
}

func TestNewRejectsBadSentinels(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*normalize.Sentinels)
	}{
		{name: "digit", mutate: func(s *normalize.Sentinels) { s.Number = "<N1>" }},
		{name: "empty", mutate: func(s *normalize.Sentinels) { s.URL = "" }},
		{name: "whitespace", mutate: func(s *normalize.Sentinels) { s.Email = "<E MAIL>" }},
		{name: "terminal punctuation", mutate: func(s *normalize.Sentinels) { s.Date = "<DATE!>" }},
		{name: "duplicate", mutate: func(s *normalize.Sentinels) { s.Time = s.Date }},
		{name: "rewritten by quotes", mutate: func(s *normalize.Sentinels) { s.Phone = "«PHONE»" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := normalize.DefaultSentinels()
			tt.mutate(&s)
			_, err := normalize.New(normalize.DefaultConfig(), lexicon.Russian(), normalize.WithSentinels(s))
			require.ErrorIs(t, err, normalize.ErrConfig)
		})
	}
}

func TestCustomSentinels(t *testing.T) {
	s := normalize.DefaultSentinels()
	s.Number = "[[number]]"
	e, err := normalize.New(only(t, "replace_numbers"), lexicon.Russian(), normalize.WithSentinels(s))
	require.NoError(t, err)
	require.Equal(t, "в [[number]] году", e.Normalize("в 2023 году"))
}

func TestCustomRules(t *testing.T) {
	e, err := normalize.New(normalize.DefaultConfig(), lexicon.Russian(),
		normalize.WithCustomRules(normalize.CustomRule{Pattern: `(?i)ковид`, Replacement: "COVID"}))
	require.NoError(t, err)
	require.Equal(t, "COVID снова", e.Normalize("ковид снова"))
	require.Contains(t, e.Rules().Names(), "custom_1")

	_, err = normalize.New(normalize.DefaultConfig(), lexicon.Russian(),
		normalize.WithCustomRules(normalize.CustomRule{Pattern: `(`, Replacement: "x"}))
	require.ErrorIs(t, err, normalize.ErrConfig)

	_, err = normalize.New(normalize.DefaultConfig(), lexicon.Russian(),
		normalize.WithCustomRules(normalize.CustomRule{Pattern: `foo`, Replacement: "foobar"}))
	require.ErrorIs(t, err, normalize.ErrConfig)
}

func TestRuleOrder(t *testing.T) {
	e, err := normalize.New(normalize.DefaultConfig(), lexicon.Russian())
	require.NoError(t, err)
	require.Equal(t, []string{
		"numbers", "urls", "emails", "phones", "dates", "times", "currencies",
		"abbreviations", "contractions", "punctuation", "quotes", "dashes", "spaces",
	}, e.Rules().Names())
}

func TestEnglishLexicon(t *testing.T) {
	e, err := normalize.New(only(t, "expand_contractions", "expand_abbreviations"), lexicon.English())
	require.NoError(t, err)
	require.Equal(t, "I cannot see doctor Who", e.Normalize("I can't see Dr. Who"))
	require.Equal(t, "it is fine", e.Normalize("it’s fine"))
}

func TestNormalizeArticle(t *testing.T) {
	e, err := normalize.New(normalize.DefaultConfig(), nil)
	require.NoError(t, err)

	in := models.Article{ID: "a", Title: "Рост  на 5%!!", Text: "ул. Ленина", Tags: []string{"x"}, Source: "test"}
	out, err := e.NormalizeArticle(in)
	require.NoError(t, err)
	require.Equal(t, "Рост на <NUM>%!", out.Title)
	require.Equal(t, "улица Ленина", out.Text)
	require.Equal(t, "Рост  на 5%!!", in.Title)

	out.Tags[0] = "changed"
	require.Equal(t, "x", in.Tags[0])

	_, err = e.NormalizeArticle(models.Article{Text: "bad \xff"})
	require.ErrorIs(t, err, normalize.ErrInvalidUTF8)
}

func TestBatchNormalizeSkipsFailures(t *testing.T) {
	e, err := normalize.New(normalize.DefaultConfig(), nil, normalize.WithWorkers(2))
	require.NoError(t, err)

	res := e.BatchNormalize(context.Background(), []models.Article{
		{ID: "a", Text: "первый 1"},
		{ID: "b", Text: "broken \xff"},
		{ID: "c", Text: "третий 3"},
	})
	require.Equal(t, 1, res.Skipped)
	require.Len(t, res.Failures, 1)
	require.Equal(t, 1, res.Failures[0].Index)
	require.Equal(t, "b", res.Failures[0].ID)
	require.Len(t, res.Articles, 2)
	require.Equal(t, "a", res.Articles[0].ID)
	require.Equal(t, "первый <NUM>", res.Articles[0].Text)
	require.Equal(t, "c", res.Articles[1].ID)
}

func TestBatchNormalizePreservesOrder(t *testing.T) {
	articles := make([]models.Article, 250)
	for i := range articles {
		articles[i] = models.Article{ID: fmt.Sprintf("doc-%03d", i), Text: fmt.Sprintf("текст номер %d!!", i)}
	}

	for _, workers := range []int{1, 3, 16} {
		e, err := normalize.New(normalize.DefaultConfig(), nil, normalize.WithWorkers(workers))
		require.NoError(t, err)

		res := e.BatchNormalize(context.Background(), articles)
		require.Zero(t, res.Skipped)
		require.Len(t, res.Articles, len(articles))
		for i, a := range res.Articles {
			require.Equal(t, articles[i].ID, a.ID)
			require.Equal(t, "текст номер <NUM>!", a.Text)
		}
	}
}

func TestBatchNormalizeCancelled(t *testing.T) {
	e, err := normalize.New(normalize.DefaultConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.BatchNormalize(ctx, []models.Article{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}})
	require.Empty(t, res.Articles)
	require.Equal(t, 2, res.Skipped)
	require.Empty(t, res.Failures)
}
