package models

import (
	"slices"
	"time"
)

// Article is one news document as produced by the collector. Values are
// treated as immutable: rewriting steps return a new Article.
type Article struct {
	ID       string     `json:"id,omitempty"`
	Title    string     `json:"title"`
	Text     string     `json:"text"`
	Date     *time.Time `json:"date,omitempty"`
	URL      string     `json:"url,omitempty"`
	Category string     `json:"category,omitempty"`
	Tags     []string   `json:"tags,omitempty"`
	Author   string     `json:"author,omitempty"`
	Source   string     `json:"source"`
}

// Clone returns a deep copy of the article.
func (a Article) Clone() Article {
	out := a
	out.Tags = slices.Clone(a.Tags)
	if a.Date != nil {
		d := *a.Date
		out.Date = &d
	}
	return out
}

// WithText returns a copy of a carrying the given title and text.
func (a Article) WithText(title, text string) Article {
	out := a.Clone()
	out.Title = title
	out.Text = text
	return out
}
