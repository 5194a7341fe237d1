package xai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/search"
)

func completion(content string, citations ...string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
		"citations": citations,
	}
}

func TestClient_Search(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		response   interface{}
		statusCode int
		want       []search.Result
		wantErr    error
	}{
		{
			name:       "json answer",
			response:   completion(`{"results":[{"title":"Go","url":"https://go.dev","snippet":"lang"}]}`),
			statusCode: http.StatusOK,
			want:       []search.Result{{Title: "Go", URL: "https://go.dev", Snippet: "lang"}},
		},
		{
			name:       "fenced json answer",
			response:   completion("```json\n{\"results\":[{\"title\":\"A\",\"url\":\"https://a.example\",\"snippet\":\"\"}]}\n```"),
			statusCode: http.StatusOK,
			want:       []search.Result{{Title: "A", URL: "https://a.example"}},
		},
		{
			name:       "prose answer falls back to citations",
			response:   completion("Here is what I found.", "https://x.example", "https://y.example"),
			statusCode: http.StatusOK,
			want: []search.Result{
				{Title: "https://x.example", URL: "https://x.example"},
				{Title: "https://y.example", URL: "https://y.example"},
			},
		},
		{
			name:       "no choices no citations",
			response:   map[string]interface{}{"choices": []interface{}{}},
			statusCode: http.StatusOK,
			want:       []search.Result{},
		},
		{
			name:       "unauthorized",
			response:   map[string]string{"error": "unauthorized"},
			statusCode: http.StatusUnauthorized,
			wantErr:    search.ErrUnauthorized,
		},
		{
			name:       "rate limit",
			response:   map[string]string{"error": "rate limit"},
			statusCode: http.StatusTooManyRequests,
			wantErr:    search.ErrRateLimit,
		},
		{
			name:       "server error",
			response:   map[string]string{"error": "boom"},
			statusCode: http.StatusServiceUnavailable,
			wantErr:    search.ErrSearchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer test-key" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			client := New(Config{
				APIKey:  "test-key",
				BaseURL: server.URL,
				Timeout: 5 * time.Second,
			}, logger)

			results, err := client.Search(context.Background(), "golang", 5)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Search() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Search() unexpected error = %v", err)
			}
			if len(results) != len(tt.want) {
				t.Fatalf("Search() got %d results, want %d", len(results), len(tt.want))
			}
			for i := range tt.want {
				if results[i] != tt.want[i] {
					t.Errorf("Search()[%d] = %+v, want %+v", i, results[i], tt.want[i])
				}
			}
		})
	}
}

func TestClient_Search_Request(t *testing.T) {
	var got chatRequest
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(completion(`{"results":[]}`))
	}))
	defer server.Close()

	client := New(Config{APIKey: "k", BaseURL: server.URL}, zap.NewNop())

	if _, err := client.Search(context.Background(), "open banking", 50); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q, want /v1/chat/completions", gotPath)
	}
	if got.Model != DefaultModel {
		t.Errorf("model = %q, want %q", got.Model, DefaultModel)
	}
	if got.SearchParameters.Mode != "on" {
		t.Errorf("search mode = %q, want on", got.SearchParameters.Mode)
	}
	if len(got.SearchParameters.Sources) != 1 || got.SearchParameters.Sources[0].Type != "web" {
		t.Errorf("sources = %+v, want [web]", got.SearchParameters.Sources)
	}
	if got.SearchParameters.MaxSearchResults != MaxCount {
		t.Errorf("max_search_results = %d, want %d", got.SearchParameters.MaxSearchResults, MaxCount)
	}
	if len(got.Messages) != 2 || got.Messages[1].Content != "open banking" {
		t.Errorf("messages = %+v, want user query last", got.Messages)
	}
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name    string
		content string
		count   int
		want    int
	}{
		{"plain", `{"results":[{"url":"https://a"},{"url":"https://b"}]}`, 5, 2},
		{"trimmed to count", `{"results":[{"url":"https://a"},{"url":"https://b"}]}`, 1, 1},
		{"skips empty url", `{"results":[{"url":""},{"url":"https://b"}]}`, 5, 1},
		{"prose", "no json here", 5, 0},
		{"broken json", `{"results":[`, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseAnswer(tt.content, tt.count); len(got) != tt.want {
				t.Errorf("parseAnswer() = %d results, want %d", len(got), tt.want)
			}
		})
	}
}

func TestClient_Name(t *testing.T) {
	if got := New(Config{}, zap.NewNop()).Name(); got != search.XAI {
		t.Errorf("Name() = %q, want %q", got, search.XAI)
	}
}
