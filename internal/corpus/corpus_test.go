package corpus_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/tokenlab/internal/corpus"
	"github.com/DeafMist/tokenlab/internal/models"
)

func TestReadAll(t *testing.T) {
	input := strings.Join([]string{
		`{"title":"Первая","text":"Текст один","source":"ria"}`,
		``,
		`{"title":"broken"`,
		`{"title":"","text":"  ","source":"x"}`,
		`{"title":"Вторая","text":"Текст два","tags":["экономика"],"source":"tass"}`,
	}, "\n")

	articles, skipped, err := corpus.ReadAll(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, articles, 2)
	require.Equal(t, "Первая", articles[0].Title)
	require.Equal(t, []string{"экономика"}, articles[1].Tags)

	require.Len(t, skipped, 2)
	var le *corpus.LineError
	require.True(t, errors.As(skipped[0], &le))
	require.Equal(t, 3, le.Line)
	require.ErrorIs(t, skipped[1], corpus.ErrEmptyArticle)
}

func TestWriterRoundTrip(t *testing.T) {
	date := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	in := []models.Article{
		{ID: "1", Title: "Цена <NUM>", Text: "a & b", Date: &date, Source: "ria"},
		{ID: "2", Title: "Второй", Text: "текст", Tags: []string{"x"}, Source: "tass"},
	}

	var buf bytes.Buffer
	w := corpus.NewWriter(&buf)
	for _, a := range in {
		require.NoError(t, w.Write(a))
	}
	require.Equal(t, 2, w.Count())
	require.Contains(t, buf.String(), "<NUM>")

	out, skipped, err := corpus.ReadAll(&buf)
	require.NoError(t, err)
	require.Empty(t, skipped)
	require.Equal(t, in, out)
	require.Equal(t, []string{"a & b", "текст"}, corpus.Texts(out))
}

func TestBuildDocumentID(t *testing.T) {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	id1 := corpus.BuildDocumentID("title", "text", &ts)
	id2 := corpus.BuildDocumentID("title", "text", &ts)
	require.NotEmpty(t, id1)
	require.Equal(t, id1, id2)
	require.NotEqual(t, id1, corpus.BuildDocumentID("title", "text", nil))

	require.NotEqual(t, corpus.BuildDocumentID("", "", nil), corpus.BuildDocumentID("", "", nil))
}

func TestGenerateTitleFromText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWords int
		want     string
	}{
		{name: "empty", text: "", maxWords: 5, want: ""},
		{name: "first sentence", text: "Рынок вырос. Потом упал.", maxWords: 10, want: "Рынок вырос"},
		{name: "truncated", text: "один два три четыре пять шесть", maxWords: 3, want: "один два три..."},
		{name: "url dropped", text: "https://example.com/a.b новость дня", maxWords: 10, want: "новость дня"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, corpus.GenerateTitleFromText(tt.text, tt.maxWords))
		})
	}
}

func TestPrepare(t *testing.T) {
	a, err := corpus.Prepare(models.Article{Text: "Рынок вырос. Подробности позже.", Tags: []string{"x"}}, 10)
	require.NoError(t, err)
	require.Equal(t, "Рынок вырос", a.Title)
	require.Len(t, a.ID, 40)

	kept, err := corpus.Prepare(models.Article{ID: "fixed", Title: "T", Text: "x"}, 10)
	require.NoError(t, err)
	require.Equal(t, "fixed", kept.ID)

	_, err = corpus.Prepare(models.Article{}, 10)
	require.ErrorIs(t, err, corpus.ErrEmptyArticle)

	_, err = corpus.Prepare(models.Article{Title: "<br/>", Text: "<p></p>"}, 10)
	require.ErrorIs(t, err, corpus.ErrEmptyArticle)
}

func TestPrepareCleansHTML(t *testing.T) {
	a, err := corpus.Prepare(models.Article{
		Text: "<p>Газета &laquo;Коммерсантъ&raquo; сообщает.</p>",
	}, 10)
	require.NoError(t, err)
	require.Equal(t, "Газета «Коммерсантъ» сообщает.", a.Text)
	require.Equal(t, "Газета «Коммерсантъ» сообщает", a.Title)
	require.Equal(t, corpus.BuildDocumentID(a.Title, a.Text, a.Date), a.ID)
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Цена выросла", want: "Цена выросла"},
		{name: "entities", input: "AT&amp;T &mdash; 5&nbsp;%", want: "AT&T — 5 %"},
		{name: "tags", input: "<b>Срочно</b><br/>новость", want: "Срочно  новость"},
		{name: "attributes", input: `<a href="https://x.ru">ссылка</a>`, want: "ссылка"},
		{name: "comment", input: "до<!-- ad -->после", want: "до после"},
		{name: "markers kept", input: "цена <NUM> рублей", want: "цена <NUM> рублей"},
		{name: "escaped tag stays text", input: "&lt;b&gt;", want: "<b>"},
		{name: "comparison", input: "a < b и c > d", want: "a < b и c > d"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, corpus.CleanHTML(tt.input))
		})
	}
}
