package telegram

import (
	"testing"

	"github.com/kitbuilder587/websearch/internal/search"
)

func TestParseQueryCommand(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantQuery  string
		wantForced search.Identity
	}{
		{"plain text", "что такое API?", "что такое API?", ""},
		{"plain text extra spaces", "  golang    generics ", "golang generics", ""},
		{"search command", "/search golang", "golang", ""},
		{"search uppercase", "/SEARCH golang", "golang", ""},
		{"search with bot name", "/search@WebSearchBot golang", "golang", ""},
		{"search empty", "/search", "", ""},
		{"search only spaces", "/search    ", "", ""},
		{"google", "/google курс доллара", "курс доллара", search.Google},
		{"brave", "/brave rust async", "rust async", search.Brave},
		{"xai mixed case", "/XAI news", "news", search.XAI},
		{"unknown command is text", "/bing news", "/bing news", ""},
		{"empty", "", "", ""},
		{"whitespace", "   ", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, forced := ParseQueryCommand(tt.input)
			if query != tt.wantQuery {
				t.Errorf("query = %q, want %q", query, tt.wantQuery)
			}
			if forced != tt.wantForced {
				t.Errorf("forced = %q, want %q", forced, tt.wantForced)
			}
		})
	}
}

func TestIsQueryCommand(t *testing.T) {
	tests := []struct {
		cmd  string
		want bool
	}{
		{"search", true},
		{"google", true},
		{"brave", true},
		{"xai", true},
		{"help", false},
		{"providers", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			if got := IsQueryCommand(tt.cmd); got != tt.want {
				t.Errorf("IsQueryCommand(%q) = %v, want %v", tt.cmd, got, tt.want)
			}
		})
	}
}
