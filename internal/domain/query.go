package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxQueryLength = 1000

	DefaultResultCount = 5
	MinResultCount     = 1
	MaxResultCount     = 20
)

type Query struct {
	Text  string
	Count int
}

func (q *Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuery
	}

	if utf8.RuneCountInString(q.Text) > MaxQueryLength {
		return ErrQueryTooLong
	}

	return nil
}

// Sanitize обрезает пробелы и зажимает count в [1, 20], 0 = дефолт.
func (q *Query) Sanitize() {
	q.Text = strings.TrimSpace(q.Text)
	q.Count = ClampCount(q.Count)
}

func ClampCount(n int) int {
	switch {
	case n == 0:
		return DefaultResultCount
	case n < MinResultCount:
		return MinResultCount
	case n > MaxResultCount:
		return MaxResultCount
	default:
		return n
	}
}
