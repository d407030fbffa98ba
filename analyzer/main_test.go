package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/tokenlab/internal/analysis"
	"github.com/DeafMist/tokenlab/internal/corpus"
	"github.com/DeafMist/tokenlab/internal/models"
	"github.com/DeafMist/tokenlab/internal/normalize"
)

const rawCorpus = `{"title":"Очень интересно!!!","text":"Цена 100 руб. выросла   на 15%!!!","source":"lenta"}
not json
{"title":"","text":"Курс доллара упал. Подробности позже.","source":"rbc"}
`

const normalizedCorpus = `{"id":"1","title":"a","text":"цена выросла на пять процентов","source":"lenta"}
{"id":"2","title":"b","text":"курс доллара упал сегодня утром","source":"rbc"}
{"id":"3","title":"c","text":"цена нефти упала","source":"rbc"}
{"id":"4","title":"d","text":"курс рубля вырос","source":"lenta"}
{"id":"5","title":"e","text":"новости дня","source":"tass"}
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LOG_LEVEL", "error")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw.jsonl"), []byte(rawCorpus), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "norm.jsonl"), []byte(normalizedCorpus), 0o600))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestRootHasSubcommands(t *testing.T) {
	root := NewRootCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"normalize", "compare", "transforms", "subword", "config"} {
		require.Contains(t, names, want)
	}
	require.NotNil(t, root.PersistentFlags().Lookup("config"))
	require.NotNil(t, root.PersistentFlags().Lookup("test-fraction"))
}

func TestConfigCommand(t *testing.T) {
	dir := setup(t)

	out, err := run(t, "config")
	require.NoError(t, err)
	doc, err := normalize.LoadDocument(strings.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, normalize.DefaultConfig(), doc.Config)
	require.Equal(t, "russian", doc.Language)

	path := filepath.Join(dir, "pre.yaml")
	_, err = run(t, "config", "--write", path, "--language", "english")
	require.NoError(t, err)
	saved, err := normalize.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "english", saved.Language)

	_, err = run(t, "config", "--language", "klingon")
	require.Error(t, err)
}

func TestNormalizeCommand(t *testing.T) {
	dir := setup(t)
	outPath := filepath.Join(dir, "out.jsonl")

	_, err := run(t, "normalize", "--in", "raw.jsonl", "--out", outPath)
	require.NoError(t, err)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	articles, skipped, err := corpus.ReadAll(f)
	require.NoError(t, err)
	require.Empty(t, skipped)
	require.Len(t, articles, 2)

	require.Equal(t, "Очень интересно!", articles[0].Title)
	require.Equal(t, "Цена <NUM> рублей выросла на <NUM>%!", articles[0].Text)
	require.Len(t, articles[0].ID, 40)
	require.Equal(t, "Курс доллара упал", articles[1].Title)
}

type closeFailer struct {
	bytes.Buffer
	closed bool
}

func (c *closeFailer) Close() error {
	c.closed = true
	return errors.New("disk quota exceeded")
}

func TestWriteArticlesReportsCloseError(t *testing.T) {
	articles := []models.Article{{ID: "1", Title: "a", Text: "b"}}

	wc := &closeFailer{}
	n, err := closeAfter(wc, func(w io.Writer) (int, error) { return encodeArticles(w, articles) })
	require.ErrorContains(t, err, "close output: disk quota exceeded")
	require.Equal(t, 1, n)
	require.True(t, wc.closed)

	wc = &closeFailer{}
	_, err = closeAfter(wc, func(io.Writer) (int, error) { return 0, errors.New("encode failed") })
	require.EqualError(t, err, "encode failed")
	require.True(t, wc.closed)

	_, err = writeArticles(io.Discard, filepath.Join(t.TempDir(), "missing", "out.jsonl"), articles)
	require.ErrorContains(t, err, "create output")
}

func TestNormalizeCommandStdout(t *testing.T) {
	setup(t)

	out, err := run(t, "normalize", "--in", "raw.jsonl", "--preprocessing", "missing.yaml")
	require.Error(t, err)
	require.Empty(t, out)

	out, err = run(t, "normalize", "--in", "raw.jsonl")
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestCompareCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "compare", "--in", "norm.jsonl", "--methods", "naive,regex,bogus", "--format", "json")
	require.NoError(t, err)

	var res analysis.Comparison
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, 4, res.TrainDocs)
	require.Equal(t, 1, res.TestDocs)
	require.Len(t, res.Records, 2)
	require.Contains(t, res.Unavailable, "bogus")
	require.Equal(t, res.Records["naive"].TrainVocabSize, res.Records["regex"].TrainVocabSize)
	require.InDelta(t, res.Records["naive"].OOVRate, res.Records["regex"].OOVRate, 1e-9)

	out, err = run(t, "compare", "--in", "norm.jsonl", "--methods", "naive", "--test-fraction", "0.4")
	require.NoError(t, err)
	require.Contains(t, out, "3 train / 2 test documents")
	require.Contains(t, out, "| method")
	require.Contains(t, out, "| naive")
}

func TestCompareRequiresSource(t *testing.T) {
	setup(t)

	_, err := run(t, "compare")
	require.Error(t, err)

	_, err = run(t, "compare", "--in", "norm.jsonl", "--from-es")
	require.Error(t, err)

	_, err = run(t, "compare", "--in", "norm.jsonl", "--test-fraction", "2")
	require.Error(t, err)
}

func TestTransformsCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "transforms", "--in", "norm.jsonl", "--limit", "2", "--transforms", "original,truncate5,snowball", "--format", "json")
	require.NoError(t, err)

	var records map[string]models.TransformRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 3)
	require.Equal(t, 10, records["original"].Count)
	require.Equal(t, 10, records["snowball"].Count)
	require.LessOrEqual(t, records["snowball"].DistinctCount, records["original"].DistinctCount)
	require.Equal(t, 10, records["truncate5"].Count)
	require.LessOrEqual(t, records["truncate5"].DistinctCount, records["original"].DistinctCount)
	require.Contains(t, records["truncate5"].Tokens, "вырос")

	_, err = run(t, "transforms", "--in", "norm.jsonl", "--transforms", "stem")
	require.Error(t, err)

	_, err = run(t, "transforms", "--in", "norm.jsonl", "--method", "bogus")
	require.Error(t, err)
}

func TestSubwordCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "subword", "--in", "norm.jsonl", "--models", "naive,sentencepiece", "--format", "json")
	require.NoError(t, err)

	var rep analysis.SubwordReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Equal(t, 18, rep.Records["naive"].TotalWords)
	require.Equal(t, 18, rep.Records["naive"].TotalTokens)
	require.InDelta(t, 1.0, rep.Records["naive"].CompressionRatio, 1e-9)
	require.Contains(t, rep.Unavailable, "sentencepiece")

	out, err = run(t, "subword", "--in", "norm.jsonl", "--models", "wordpunct")
	require.NoError(t, err)
	require.Contains(t, out, "| wordpunct")
}

func TestWriteTableAlignsWideText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []string{"name", "value"}, [][]string{
		{"привет", "1"},
		{"x", "12345"},
		{"日本", "2"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	width := runewidth.StringWidth(lines[0])
	for _, line := range lines[1:] {
		require.Equal(t, width, runewidth.StringWidth(line), line)
	}
	require.True(t, strings.HasPrefix(lines[1], "| ---"))
}

func TestWriteUnavailable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeUnavailable(&buf, nil))
	require.Empty(t, buf.String())

	require.NoError(t, writeUnavailable(&buf, map[string]string{"b": "two", "a": "one"}))
	require.Equal(t, "\nunavailable:\n  a: one\n  b: two\n", buf.String())
}
