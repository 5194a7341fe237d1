package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/websearch/internal/search"
)

func TestClient_Search(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		response   interface{}
		statusCode int
		wantCount  int
		wantErr    error
	}{
		{
			name: "successful search",
			response: googleResponse{
				Items: []googleItem{
					{Title: "Go", Link: "https://go.dev", Snippet: "The Go language"},
				},
			},
			statusCode: http.StatusOK,
			wantCount:  1,
		},
		{
			name:       "no items",
			response:   map[string]interface{}{"kind": "customsearch#search"},
			statusCode: http.StatusOK,
			wantCount:  0,
		},
		{
			name:       "api error in body",
			response:   googleResponse{Error: &apiError{Code: 500, Message: "backend error"}},
			statusCode: http.StatusOK,
			wantErr:    search.ErrSearchFailed,
		},
		{
			name:       "forbidden",
			response:   map[string]string{"error": "forbidden"},
			statusCode: http.StatusForbidden,
			wantErr:    search.ErrUnauthorized,
		},
		{
			name:       "rate limit",
			response:   map[string]string{"error": "quota"},
			statusCode: http.StatusTooManyRequests,
			wantErr:    search.ErrRateLimit,
		},
		{
			name:       "bad request",
			response:   map[string]string{"error": "bad request"},
			statusCode: http.StatusBadRequest,
			wantErr:    search.ErrInvalidRequest,
		},
		{
			name:       "server error",
			response:   map[string]string{"error": "boom"},
			statusCode: http.StatusInternalServerError,
			wantErr:    search.ErrSearchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			client := New(Config{
				APIKey:   "test-key",
				EngineID: "test-cx",
				BaseURL:  server.URL,
				Timeout:  5 * time.Second,
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
			if len(results) != tt.wantCount {
				t.Errorf("Search() got %d results, want %d", len(results), tt.wantCount)
			}
		})
	}
}

func TestClient_Search_Request(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		gotCX   string
		gotQ    string
		gotNum  string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotPath = r.URL.Path
		gotKey = q.Get("key")
		gotCX = q.Get("cx")
		gotQ = q.Get("q")
		gotNum = q.Get("num")

		json.NewEncoder(w).Encode(googleResponse{
			Items: []googleItem{{Title: " A ", Link: "https://a.example", Snippet: "a"}},
		})
	}))
	defer server.Close()

	client := New(Config{APIKey: "key-1", EngineID: "cx-1", BaseURL: server.URL}, zap.NewNop())

	results, err := client.Search(context.Background(), "fintech news", 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotPath != "/customsearch/v1" {
		t.Errorf("path = %q, want /customsearch/v1", gotPath)
	}
	if gotKey != "key-1" || gotCX != "cx-1" {
		t.Errorf("key/cx = %q/%q, want key-1/cx-1", gotKey, gotCX)
	}
	if gotQ != "fintech news" {
		t.Errorf("q = %q, want %q", gotQ, "fintech news")
	}
	if gotNum != "10" {
		t.Errorf("num = %q, want 10 (capped)", gotNum)
	}

	want := search.Result{Title: "A", URL: "https://a.example", Snippet: "a"}
	if len(results) != 1 || results[0] != want {
		t.Errorf("Search() = %+v, want [%+v]", results, want)
	}
}

func TestClient_Search_TransportErrorHidesKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(Config{APIKey: "very-secret-key", EngineID: "cx", BaseURL: url}, zap.NewNop())

	_, err := client.Search(context.Background(), "q", 5)
	if !errors.Is(err, search.ErrSearchFailed) {
		t.Fatalf("Search() error = %v, want ErrSearchFailed", err)
	}
	if strings.Contains(err.Error(), "very-secret-key") {
		t.Errorf("error leaks api key: %v", err)
	}
}

func TestClient_Name(t *testing.T) {
	if got := New(Config{}, zap.NewNop()).Name(); got != search.Google {
		t.Errorf("Name() = %q, want %q", got, search.Google)
	}
}
