package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kitbuilder587/websearch/internal/search"
	"github.com/kitbuilder587/websearch/internal/tool"
)

func TestFormatSearchResponse(t *testing.T) {
	p := &tool.Payload{
		Provider:    "google",
		Query:       "go",
		ResultCount: 2,
		Results: []search.Result{
			{Title: "Go <Home>", URL: "https://go.dev/?a=1&b=2", Snippet: "Build & ship"},
			{Title: "", URL: "https://example.com/no-title", Snippet: ""},
		},
	}

	result := FormatSearchResponse(p)

	if !strings.Contains(result, "(google): 2") {
		t.Errorf("FormatSearchResponse() should contain provider and count, got %q", result)
	}
	if !strings.Contains(result, `<a href="https://go.dev/?a=1&amp;b=2">Go &lt;Home&gt;</a>`) {
		t.Errorf("FormatSearchResponse() should escape title and url, got %q", result)
	}
	if !strings.Contains(result, "Build &amp; ship") {
		t.Error("FormatSearchResponse() should escape snippet")
	}
	if !strings.Contains(result, ">https://example.com/no-title</a>") {
		t.Error("FormatSearchResponse() should fall back to url for empty title")
	}
}

func TestFormatSearchResponse_Empty(t *testing.T) {
	result := FormatSearchResponse(&tool.Payload{Provider: "brave"})

	if !strings.Contains(result, "Ничего не найдено") {
		t.Errorf("FormatSearchResponse() = %q, want empty notice", result)
	}
}

func TestFormatFailure(t *testing.T) {
	result := FormatFailure("brave: <bad>")

	if !strings.HasPrefix(result, "<b>Поиск не удался</b>") {
		t.Errorf("FormatFailure() = %q", result)
	}
	if !strings.Contains(result, "<pre>brave: &lt;bad&gt;</pre>") {
		t.Errorf("FormatFailure() should escape content, got %q", result)
	}
}

func TestFormatProviders(t *testing.T) {
	result := FormatProviders([]search.Identity{search.Google, search.XAI})

	if !strings.Contains(result, "● google") || !strings.Contains(result, "● xai") {
		t.Errorf("FormatProviders() should mark configured, got %q", result)
	}
	if !strings.Contains(result, "○ brave: set BRAVE_API_KEY") {
		t.Errorf("FormatProviders() should hint missing, got %q", result)
	}
	if !strings.Contains(result, "Настроено: 2 из 3") {
		t.Errorf("FormatProviders() should contain totals, got %q", result)
	}
}

func TestSplitMessage_KeepsUTF8(t *testing.T) {
	text := strings.Repeat("ж", 50)

	for i, part := range SplitMessage(text, 15) {
		if !utf8.ValidString(part) {
			t.Errorf("part %d is not valid UTF-8: %q", i, part)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   int // number of parts
	}{
		{"short message", "Hello", 100, 1},
		{"exact length", "Hello", 5, 1},
		{"split needed", "Hello World Test", 7, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitMessage(tt.text, tt.maxLen)
			if len(got) != tt.want {
				t.Errorf("SplitMessage() parts = %v, want %v", len(got), tt.want)
			}
		})
	}
}

func TestSplitMessage_HTMLTags(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "link tag",
			text: `Text before <a href="https://example.com/very/long/url">link text</a> text after`,
		},
		{
			name: "bold tag",
			text: `Some text <b>bold text here</b> more text`,
		},
		{
			name: "multiple tags",
			text: `<b>Title</b>\n<a href="https://example.com">Link</a>\nMore text here`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := SplitMessage(tt.text, 30)

			for i, part := range parts {
				openCount := strings.Count(part, "<")
				closeCount := strings.Count(part, ">")

				if openCount != closeCount {
					t.Errorf("Part %d has unbalanced tags (open=%d, close=%d): %q",
						i, openCount, closeCount, part)
				}
			}
		})
	}
}

func TestIsInsideHTMLTag(t *testing.T) {
	tests := []struct {
		text string
		pos  int
		want bool
	}{
		{`<a href="url">text</a>`, 5, true},   // inside <a href="...">
		{`<a href="url">text</a>`, 15, false}, // in "text"
		{`text <b>bold</b>`, 0, false},        // before any tag
		{`text <b>bold</b>`, 6, true},         // inside <b>
		{`text <b>bold</b>`, 9, false},        // in "bold"
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := isInsideHTMLTag(tt.text, tt.pos)
			if got != tt.want {
				t.Errorf("isInsideHTMLTag(%q, %d) = %v, want %v", tt.text, tt.pos, got, tt.want)
			}
		})
	}
}

func TestTruncateURL(t *testing.T) {
	tests := []struct {
		url    string
		maxLen int
		want   string
	}{
		{"https://example.com", 50, "https://example.com"},
		{"https://example.com/very/long/path", 20, "https://example.c..."},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := truncateURL(tt.url, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncateURL() = %v, want %v", got, tt.want)
			}
		})
	}
}
