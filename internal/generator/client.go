package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"socialgen/internal/domain"
)

var (
	// ErrRateLimited marks a response in which the provider asked the
	// caller to slow down. Only this class of failure is ever retried.
	ErrRateLimited = errors.New("generator: rate limited")
	// ErrRetriesExhausted marks a call that hit the rate limiter on every
	// allowed attempt.
	ErrRetriesExhausted = errors.New("generator: retries exhausted")
)

// RetryPolicy bounds rate-limit retries for one resource type. Delay grows as
// base*2^attempt plus uniform jitter, capped at MaxDelay. Cooldown is slept
// after each success to smooth the outbound request rate.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxJitter   time.Duration
	Cooldown    time.Duration
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if p.MaxJitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// DefaultCaptionPolicy returns the stock caption retry policy. Callers that
// only want to tune attempts or the backoff ceiling start here.
func DefaultCaptionPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: 60 * time.Second, MaxJitter: time.Second, Cooldown: 500 * time.Millisecond}
}

// DefaultImagePolicy returns the stock image retry policy. Image generation
// runs against a stricter downstream limiter, so it gets more attempts and a
// higher backoff ceiling than captions.
func DefaultImagePolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 6, BaseDelay: time.Second, MaxDelay: 90 * time.Second, MaxJitter: 2 * time.Second, Cooldown: time.Second}
}

// Options controls how the OpenAI client is configured.
type Options struct {
	APIKey        string
	BaseURL       string
	CaptionModel  string
	ImageModel    string
	Organization  string
	HTTPClient    *http.Client
	Logger        *zerolog.Logger
	CaptionPolicy *RetryPolicy
	ImagePolicy   *RetryPolicy
}

// Client calls the OpenAI API to produce captions and post images. Each call
// owns its own retry/backoff loop so callers can treat a generation as a
// single fallible operation with bounded worst-case latency.
type Client struct {
	apiKey        string
	baseURL       string
	captionModel  string
	imageModel    string
	organization  string
	httpClient    *http.Client
	logger        zerolog.Logger
	captionPolicy RetryPolicy
	imagePolicy   RetryPolicy
}

// NewClient builds a generation client from the given options.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("generator: api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	captionModel := strings.TrimSpace(opts.CaptionModel)
	if captionModel == "" {
		captionModel = "gpt-4o-mini"
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = "dall-e-3"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	captionPolicy := DefaultCaptionPolicy()
	if opts.CaptionPolicy != nil {
		captionPolicy = *opts.CaptionPolicy
	}
	imagePolicy := DefaultImagePolicy()
	if opts.ImagePolicy != nil {
		imagePolicy = *opts.ImagePolicy
	}
	return &Client{
		apiKey:        strings.TrimSpace(opts.APIKey),
		baseURL:       baseURL,
		captionModel:  captionModel,
		imageModel:    imageModel,
		organization:  strings.TrimSpace(opts.Organization),
		httpClient:    httpClient,
		logger:        logger,
		captionPolicy: captionPolicy,
		imagePolicy:   imagePolicy,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	N       int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateCaption produces social media caption text for one request.
func (c *Client) GenerateCaption(ctx context.Context, req domain.GenerationRequest) (string, error) {
	payload := chatRequest{
		Model:       c.captionModel,
		MaxTokens:   300,
		Temperature: 0.4,
		Messages:    []chatMessage{{Role: "user", Content: buildCaptionPrompt(req)}},
	}
	var caption string
	err := c.withRetry(ctx, "caption", c.captionPolicy, func() error {
		var out chatResponse
		if err := c.postJSON(ctx, "/chat/completions", payload, &out); err != nil {
			return err
		}
		if len(out.Choices) == 0 {
			return errors.New("generator: empty choices")
		}
		caption = strings.TrimSpace(out.Choices[0].Message.Content)
		if caption == "" {
			return errors.New("generator: empty caption")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return caption, nil
}

// GenerateImage produces a hosted image URL for one request.
func (c *Client) GenerateImage(ctx context.Context, req domain.GenerationRequest) (string, error) {
	payload := imageRequest{
		Model:   c.imageModel,
		Prompt:  buildImagePrompt(req),
		Size:    "1024x1024",
		Quality: "standard",
		N:       1,
	}
	var url string
	err := c.withRetry(ctx, "image", c.imagePolicy, func() error {
		var out imageResponse
		if err := c.postJSON(ctx, "/images/generations", payload, &out); err != nil {
			return err
		}
		if len(out.Data) == 0 || strings.TrimSpace(out.Data[0].URL) == "" {
			return errors.New("generator: missing image url")
		}
		url = out.Data[0].URL
		return nil
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// withRetry runs fn until it succeeds, fails with a non-retriable error, or
// the policy's attempts run out. Sleeps are cut short by ctx cancellation.
func (c *Client) withRetry(ctx context.Context, resource string, policy RetryPolicy, fn func() error) error {
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			// The cooldown only smooths the outbound rate. Cancellation
			// cuts it short but never discards the result already in hand.
			_ = sleepCtx(ctx, policy.Cooldown)
			return nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return err
		}
		wait := policy.delay(attempt)
		c.logger.Warn().
			Str("resource", resource).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("rate limit hit, backing off")
		if sleepErr := sleepCtx(ctx, wait); sleepErr != nil {
			return sleepErr
		}
	}
	return fmt.Errorf("%s generation failed after %d attempts: %w", resource, policy.MaxAttempts, ErrRetriesExhausted)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= http.StatusBadRequest {
		return classifyError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// classifyError separates "slow down" responses from hard failures. 429 is
// the canonical signal, 529 is the overloaded variant some providers answer
// with, and some gateways only say "rate limit" in the body.
func classifyError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed apiError
	message := ""
	if json.Unmarshal(raw, &parsed) == nil {
		message = parsed.Error.Message
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 529 ||
		strings.Contains(strings.ToLower(message), "rate limit") {
		return fmt.Errorf("%w: http %d: %s", ErrRateLimited, resp.StatusCode, message)
	}
	return fmt.Errorf("generator: http %d: %s", resp.StatusCode, message)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
