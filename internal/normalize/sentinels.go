package normalize

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Sentinels holds the placeholder substituted for each entity class.
type Sentinels struct {
	Number   string
	URL      string
	Email    string
	Phone    string
	Date     string
	Time     string
	Currency string
}

// DefaultSentinels returns the canonical markers.
func DefaultSentinels() Sentinels {
	return Sentinels{
		Number:   "<NUM>",
		URL:      "<URL>",
		Email:    "<EMAIL>",
		Phone:    "<PHONE>",
		Date:     "<DATE>",
		Time:     "<TIME>",
		Currency: "<CURRENCY>",
	}
}

func (s *Sentinels) fields() []struct {
	key string
	ptr *string
} {
	return []struct {
		key string
		ptr *string
	}{
		{"NUM", &s.Number},
		{"URL", &s.URL},
		{"EMAIL", &s.Email},
		{"PHONE", &s.Phone},
		{"DATE", &s.Date},
		{"TIME", &s.Time},
		{"CURRENCY", &s.Currency},
	}
}

// Map returns the markers keyed by class name (NUM, URL, ...).
func (s Sentinels) Map() map[string]string {
	out := make(map[string]string, 7)
	for _, f := range s.fields() {
		out[f.key] = *f.ptr
	}
	return out
}

// List returns the markers in substitution order.
func (s Sentinels) List() []string {
	fs := s.fields()
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = *f.ptr
	}
	return out
}

// SentinelsFromMap overlays overrides on DefaultSentinels. Keys are matched
// case-insensitively; unknown keys are a configuration error.
func SentinelsFromMap(m map[string]string) (Sentinels, error) {
	s := DefaultSentinels()
	fs := s.fields()
	var unknown []string
	for k, v := range m {
		found := false
		for _, f := range fs {
			if strings.EqualFold(f.key, k) {
				*f.ptr = v
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
		return Sentinels{}, fmt.Errorf("%w: unknown sentinel class(es) %s", ErrConfig, strings.Join(unknown, ", "))
	}
	return s, nil
}

// validate checks the shape of every marker. Whether a marker survives the
// rule set untouched is checked by the engine once the rules exist.
func (s Sentinels) validate() error {
	seen := make(map[string]string, 7)
	for _, f := range s.fields() {
		v := *f.ptr
		if v == "" {
			return fmt.Errorf("%w: sentinel %s is empty", ErrConfig, f.key)
		}
		if prev, ok := seen[v]; ok {
			return fmt.Errorf("%w: sentinels %s and %s share marker %q", ErrConfig, prev, f.key, v)
		}
		seen[v] = f.key
		for _, r := range v {
			switch {
			case unicode.IsDigit(r):
				return fmt.Errorf("%w: sentinel %s=%q contains a digit", ErrConfig, f.key, v)
			case unicode.IsSpace(r):
				return fmt.Errorf("%w: sentinel %s=%q contains whitespace", ErrConfig, f.key, v)
			case r == '.' || r == '!' || r == '?':
				return fmt.Errorf("%w: sentinel %s=%q contains terminal punctuation", ErrConfig, f.key, v)
			}
		}
	}
	return nil
}
