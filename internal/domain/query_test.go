package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr error
	}{
		{"ok", Query{Text: "What is Go?"}, nil},
		{"empty", Query{Text: ""}, ErrEmptyQuery},
		{"whitespace", Query{Text: "   "}, ErrEmptyQuery},
		{"max len", Query{Text: strings.Repeat("a", MaxQueryLength)}, nil},
		{"too long", Query{Text: strings.Repeat("a", MaxQueryLength+1)}, ErrQueryTooLong},
		{"newlines", Query{Text: "Hello\nWorld"}, nil},
		{"multibyte at max len", Query{Text: strings.Repeat("ж", MaxQueryLength)}, nil},
		{"multibyte too long", Query{Text: strings.Repeat("ж", MaxQueryLength+1)}, ErrQueryTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Query.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuery_Sanitize(t *testing.T) {
	q := Query{Text: "  golang generics \n", Count: 100}
	q.Sanitize()

	if q.Text != "golang generics" {
		t.Errorf("Text = %q, want %q", q.Text, "golang generics")
	}
	if q.Count != MaxResultCount {
		t.Errorf("Count = %d, want %d", q.Count, MaxResultCount)
	}
}

func TestClampCount(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultResultCount},
		{-3, 1},
		{1, 1},
		{7, 7},
		{20, 20},
		{21, 20},
		{100, 20},
	}

	for _, tt := range tests {
		if got := ClampCount(tt.in); got != tt.want {
			t.Errorf("ClampCount(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
