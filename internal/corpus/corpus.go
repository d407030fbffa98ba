// Package corpus reads and writes line-delimited Article streams and derives
// stable document identifiers.
package corpus

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DeafMist/tokenlab/internal/models"
)

// ErrEmptyArticle is returned for a record with neither title nor text.
var ErrEmptyArticle = errors.New("corpus: article has no title and no text")

const maxLineBytes = 16 << 20

var (
	urlRegex = regexp.MustCompile(`https?://[^\s]+`)
	// Lowercase tag names only, so <NUM> style markers survive.
	htmlTag = regexp.MustCompile(`<!--[\s\S]*?-->|</?[a-z][a-z0-9]*(?:\s[^<>]*)?/?>`)
)

// LineError wraps a record that could not be decoded.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

// Reader decodes one Article per line. Blank lines are ignored.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{sc: sc}
}

// Next returns the next article, io.EOF at the end, or a *LineError for a
// bad record. Reading may continue after a *LineError.
func (r *Reader) Next() (models.Article, error) {
	for r.sc.Scan() {
		r.line++
		raw := strings.TrimSpace(r.sc.Text())
		if raw == "" {
			continue
		}
		var a models.Article
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return models.Article{}, &LineError{Line: r.line, Err: err}
		}
		if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.Text) == "" {
			return models.Article{}, &LineError{Line: r.line, Err: ErrEmptyArticle}
		}
		return a, nil
	}
	if err := r.sc.Err(); err != nil {
		return models.Article{}, fmt.Errorf("read corpus: %w", err)
	}
	return models.Article{}, io.EOF
}

// ReadAll decodes every valid record. Bad records are skipped and returned
// as line errors; only an I/O failure aborts.
func ReadAll(r io.Reader) ([]models.Article, []error, error) {
	cr := NewReader(r)
	var (
		out     []models.Article
		skipped []error
	)
	for {
		a, err := cr.Next()
		if errors.Is(err, io.EOF) {
			return out, skipped, nil
		}
		var le *LineError
		if errors.As(err, &le) {
			skipped = append(skipped, le)
			continue
		}
		if err != nil {
			return out, skipped, err
		}
		out = append(out, a)
	}
}

// Writer encodes one Article per line.
type Writer struct {
	enc *json.Encoder
	n   int
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc}
}

// Write appends a record.
func (w *Writer) Write(a models.Article) error {
	if err := w.enc.Encode(a); err != nil {
		return fmt.Errorf("write article %q: %w", a.ID, err)
	}
	w.n++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int { return w.n }

// Texts returns the text field of each article, the unit fed to the
// comparators.
func Texts(articles []models.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Text
	}
	return out
}

// BuildDocumentID hashes the most stable fields to form deterministic IDs.
// A record with no content gets a random ID.
func BuildDocumentID(title, text string, date *time.Time) string {
	if title == "" && text == "" {
		return uuid.NewString()
	}
	ts := ""
	if date != nil {
		ts = date.UTC().Format(time.RFC3339)
	}
	s := sha1.Sum([]byte(title + "|" + text + "|" + ts))
	return hex.EncodeToString(s[:])
}

// GenerateTitleFromText creates a title from the first sentence or first N words of text.
// Returns empty string if text is empty.
func GenerateTitleFromText(text string, maxWords int) string {
	if text == "" {
		return ""
	}

	withoutURLs := urlRegex.ReplaceAllString(text, " ")

	var first string
	if end := strings.IndexAny(withoutURLs, ".!?"); end > 0 {
		first = strings.TrimSpace(withoutURLs[:end])
	} else {
		first = withoutURLs
	}

	words := strings.Fields(first)
	if len(words) == 0 {
		return ""
	}
	if maxWords > 0 && len(words) > maxWords {
		return strings.Join(words[:maxWords], " ") + "..."
	}
	return strings.Join(words, " ")
}

// CleanHTML drops markup left over from scraping: tags and comments become a
// space, entities are decoded and non-breaking spaces turn into plain ones.
func CleanHTML(input string) string {
	if !strings.ContainsAny(input, "<&\u00a0") {
		return input
	}
	decoded := htmlTag.ReplaceAllString(input, " ")
	decoded = html.UnescapeString(decoded)
	decoded = strings.ReplaceAll(decoded, "\u00a0", " ")
	return strings.TrimSpace(decoded)
}

// Prepare cleans HTML from title and text, fills a missing title from the
// text and assigns an ID when the record has none. It returns a copy.
func Prepare(a models.Article, titleWords int) (models.Article, error) {
	out := a.Clone()
	out.Title = CleanHTML(out.Title)
	out.Text = CleanHTML(out.Text)
	if strings.TrimSpace(out.Title) == "" && strings.TrimSpace(out.Text) == "" {
		return models.Article{}, ErrEmptyArticle
	}
	if strings.TrimSpace(out.Title) == "" {
		out.Title = GenerateTitleFromText(out.Text, titleWords)
	}
	if out.ID == "" {
		out.ID = BuildDocumentID(out.Title, out.Text, out.Date)
	}
	return out, nil
}
