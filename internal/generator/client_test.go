package generator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"socialgen/internal/domain"
)

func tinyPolicy(attempts int) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func testClient(t *testing.T, serverURL string, attempts int) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:        "test-key",
		BaseURL:       serverURL,
		CaptionPolicy: tinyPolicy(attempts),
		ImagePolicy:   tinyPolicy(attempts),
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func captionBody(text string) []byte {
	out, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": text}},
		},
	})
	return out
}

func TestGenerateCaptionRetriesRateLimitThenSucceeds(t *testing.T) {
	const failures = 2
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		if atomic.AddInt32(&calls, 1) <= failures {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
			return
		}
		_, _ = w.Write(captionBody("  Fresh brew, zero fuss.  "))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 4)
	caption, err := client.GenerateCaption(context.Background(), domain.GenerationRequest{Title: "morning coffee"})
	if err != nil {
		t.Fatalf("GenerateCaption returned error: %v", err)
	}
	if caption != "Fresh brew, zero fuss." {
		t.Fatalf("caption = %q, want trimmed content", caption)
	}
	if got := atomic.LoadInt32(&calls); got != failures+1 {
		t.Fatalf("calls = %d, want %d", got, failures+1)
	}
}

func TestGenerateCaptionNonRetriableFailsImmediately(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid model"}}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 4)
	_, err := client.GenerateCaption(context.Background(), domain.GenerationRequest{Title: "t"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrRetriesExhausted) || errors.Is(err, ErrRateLimited) {
		t.Fatalf("400 should not be classed retriable, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid model") {
		t.Fatalf("error should carry the provider message, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls = %d, want a single attempt", got)
	}
}

func TestGenerateImageExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 3)
	_, err := client.GenerateImage(context.Background(), domain.GenerationRequest{Title: "t"})
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("err = %v, want ErrRetriesExhausted", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("calls = %d, want every allowed attempt", got)
	}
}

func TestGenerateImageReturnsURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload imageRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Size != "1024x1024" || payload.N != 1 {
			t.Errorf("unexpected image params: %+v", payload)
		}
		_, _ = w.Write([]byte(`{"data":[{"url":"https://img.example/out.png"}]}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 2)
	url, err := client.GenerateImage(context.Background(), domain.GenerationRequest{Title: "t", GenerateImage: true})
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if url != "https://img.example/out.png" {
		t.Fatalf("url = %q", url)
	}
}

func TestRateLimitDetectedFromMessageBody(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusServiceUnavailable,
		Body:       io.NopCloser(strings.NewReader(`{"error":{"message":"Upstream rate limit exceeded"}}`)),
	}
	if err := classifyError(resp); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	resp = &http.Response{
		StatusCode: http.StatusInternalServerError,
		Body:       io.NopCloser(strings.NewReader(`{"error":{"message":"boom"}}`)),
	}
	if err := classifyError(resp); errors.Is(err, ErrRateLimited) {
		t.Fatalf("plain 500 misclassified as rate limit: %v", err)
	}

	// 529 means overloaded regardless of what the body says.
	resp = &http.Response{
		StatusCode: 529,
		Body:       io.NopCloser(strings.NewReader(`{"error":{"message":"overloaded"}}`)),
	}
	if err := classifyError(resp); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("529 not classed retriable: %v", err)
	}
}

func TestOverloadedStatusRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(529)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		_, _ = w.Write(captionBody("done"))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 3)
	caption, err := client.GenerateCaption(context.Background(), domain.GenerationRequest{Title: "t"})
	if err != nil {
		t.Fatalf("GenerateCaption returned error: %v", err)
	}
	if caption != "done" {
		t.Fatalf("caption = %q", caption)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestSuccessSurvivesCancellationDuringCooldown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(captionBody("kept"))
	}))
	defer server.Close()

	client, err := NewClient(Options{
		APIKey:  "test-key",
		BaseURL: server.URL,
		CaptionPolicy: &RetryPolicy{
			MaxAttempts: 2,
			BaseDelay:   time.Millisecond,
			MaxDelay:    time.Millisecond,
			Cooldown:    time.Hour,
		},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	caption, err := client.GenerateCaption(ctx, domain.GenerationRequest{Title: "t"})
	if err != nil {
		t.Fatalf("a successful result must survive a cancelled cooldown, got %v", err)
	}
	if caption != "kept" {
		t.Fatalf("caption = %q", caption)
	}
}

func TestDefaultPolicies(t *testing.T) {
	caption := DefaultCaptionPolicy()
	if caption.MaxAttempts != 4 || caption.MaxDelay != 60*time.Second {
		t.Fatalf("caption policy = %+v", caption)
	}
	image := DefaultImagePolicy()
	if image.MaxAttempts != 6 || image.MaxDelay != 90*time.Second {
		t.Fatalf("image policy = %+v", image)
	}
}

func TestRetryCanceledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient(Options{
		APIKey:  "test-key",
		BaseURL: server.URL,
		CaptionPolicy: &RetryPolicy{
			MaxAttempts: 5,
			BaseDelay:   time.Hour,
			MaxDelay:    time.Hour,
		},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.GenerateCaption(ctx, domain.GenerationRequest{Title: "t"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context deadline", err)
	}
}

func TestRetryDelayGrowsAndCaps(t *testing.T) {
	policy := RetryPolicy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	if got := policy.delay(0); got != time.Second {
		t.Fatalf("delay(0) = %v, want 1s", got)
	}
	if got := policy.delay(1); got != 2*time.Second {
		t.Fatalf("delay(1) = %v, want 2s", got)
	}
	if got := policy.delay(10); got != 5*time.Second {
		t.Fatalf("delay(10) = %v, want the cap", got)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("expected an error for a missing api key")
	}
}
