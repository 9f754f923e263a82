package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/team-sakkal/caoscan/internal/cache"
	"github.com/team-sakkal/caoscan/internal/model"
)

func testConfig(baseURL string) model.LLMConfig {
	cfg := model.DefaultConfig().LLM
	cfg.BaseURL = baseURL
	cfg.APIKey = "test-key"
	cfg.RetryDelay = time.Millisecond
	cfg.Timeout = 5 * time.Second
	return cfg
}

func completionReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, store cache.Cache) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c := NewClient(testConfig(ts.URL), store, zerolog.Nop())
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c, ts
}

func TestClassify_RecoversJSONFromNoisyReply(t *testing.T) {
	content := "Eerst wat commentaar van het model.\n" +
		`{"verhogingen": [{"datum": "01/01/2025", "percentage": 2.0, "categorie": "standaard", "uitleg": "x"}]}`

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Title") == "" || r.Header.Get("HTTP-Referer") == "" {
			t.Error("attribution headers not set")
		}
		fmt.Fprint(w, completionReply(content))
	}, nil)

	claims, err := c.Classify(context.Background(), "Het loon stijgt met 2% op 01-01-2025.")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}
	if claims[0].Datum == nil || *claims[0].Datum != "01/01/2025" {
		t.Errorf("unexpected datum: %v", claims[0].Datum)
	}
	if p, ok := claims[0].Percentage.(float64); !ok || p != 2.0 {
		t.Errorf("unexpected percentage: %v", claims[0].Percentage)
	}
}

func TestClassify_RequestShape(t *testing.T) {
	var got struct {
		Model          string           `json:"model"`
		Temperature    float64          `json:"temperature"`
		MaxTokens      int              `json:"max_tokens"`
		ResponseFormat map[string]any   `json:"response_format"`
		Messages       []map[string]any `json:"messages"`
	}

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, completionReply(`{"verhogingen": []}`))
	}, nil)

	if _, err := c.Classify(context.Background(), "De cao-lonen stijgen met 1%."); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if got.Model != "deepseek/deepseek-r1:free" {
		t.Errorf("model = %q", got.Model)
	}
	if got.Temperature > 1e-6 {
		t.Errorf("temperature = %v, want ~0", got.Temperature)
	}
	if got.MaxTokens != 500 {
		t.Errorf("max_tokens = %d", got.MaxTokens)
	}
	if got.ResponseFormat["type"] != "json_object" {
		t.Errorf("response_format = %v", got.ResponseFormat)
	}
	// system + 3 few-shot pairs + target sentence
	if len(got.Messages) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(got.Messages))
	}
	if got.Messages[0]["role"] != "system" {
		t.Errorf("first message role = %v", got.Messages[0]["role"])
	}
	last := got.Messages[len(got.Messages)-1]
	if last["role"] != "user" || last["content"] != "De cao-lonen stijgen met 1%." {
		t.Errorf("last message = %v", last)
	}
}

func TestClassify_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, completionReply(`{"verhogingen": []}`))
	}, nil)

	claims, err := c.Classify(context.Background(), "Het salaris stijgt met 2%.")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("expected empty claims, got %v", claims)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestClassify_ExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
	}, nil)

	if _, err := c.Classify(context.Background(), "Het salaris stijgt met 2%."); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestClassify_UnparsableReplyNotRetried(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no braces", "geen loonstijging"},
		{"invalid json", `{"verhogingen": [}`},
		{"missing key", `{"classificatie": "Loonstijging"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				fmt.Fprint(w, completionReply(tt.content))
			}, nil)

			_, err := c.Classify(context.Background(), "Het loon stijgt met 2%.")
			if !errors.Is(err, ErrUnparsableReply) {
				t.Fatalf("expected ErrUnparsableReply, got %v", err)
			}
			if calls.Load() != 1 {
				t.Errorf("parse failures must not retry, got %d calls", calls.Load())
			}
		})
	}
}

func TestClassify_CacheSkipsSecondCall(t *testing.T) {
	var calls atomic.Int32
	store := cache.NewMemoryCache(time.Minute, time.Minute)

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, completionReply(`{"verhogingen": [{"datum": "01/01/2025", "percentage": 2.0}]}`))
	}, store)

	sentence := "Het loon stijgt met 2% op 01-01-2025."
	first, err := c.Classify(context.Background(), sentence)
	if err != nil {
		t.Fatalf("first Classify() error = %v", err)
	}
	second, err := c.Classify(context.Background(), sentence)
	if err != nil {
		t.Fatalf("second Classify() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single endpoint call, got %d", calls.Load())
	}
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("cache changed the result: %v vs %v", first, second)
	}
}

func TestClassify_ContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		cancel()
		http.Error(w, "boom", http.StatusInternalServerError)
	}, nil)

	if _, err := c.Classify(ctx, "Het loon stijgt met 2%."); err == nil {
		t.Fatal("expected error when context is cancelled")
	}
}
