// Package llm wraps a single OpenAI invocation with bounded retries,
// exponential backoff, and throttling-aware delays sourced from the
// provider's own error messages. Every call consults the shared rate
// tracker before going out and records token usage after coming back.
package llm

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"docanalyzer/internal/logger"
	"docanalyzer/internal/metrics"
	"docanalyzer/internal/ratelimit"
	"docanalyzer/pkg/models"
)

// suggestedWaitPattern matches the provider's throttling hint, e.g.
// "Rate limit reached ... Please try again in 11.087s."
var suggestedWaitPattern = regexp.MustCompile(`try again in ([\d.]+)s`)

// ChatClient is the transport the caller speaks through. *openai.Client
// satisfies it; tests substitute a fake.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// CallerConfig tunes the retry and pricing behavior of a Caller.
type CallerConfig struct {
	Model       string
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	CallTimeout time.Duration

	// Prices per one million tokens, used for per-call cost accounting.
	InputPricePerMTok  float64
	OutputPricePerMTok float64
}

// DefaultCallerConfig returns the configuration used in production:
// gpt-4o-mini with five attempts per call and a 30s per-call deadline.
func DefaultCallerConfig() CallerConfig {
	return CallerConfig{
		Model:              openai.GPT4oMini,
		MaxRetries:         5,
		BaseDelay:          time.Second,
		MaxDelay:           60 * time.Second,
		CallTimeout:        30 * time.Second,
		InputPricePerMTok:  5.0,
		OutputPricePerMTok: 15.0,
	}
}

// Result is a successful completion with its usage accounting.
type Result struct {
	Text     string
	Usage    models.Usage
	Attempts int
}

// Caller issues resilient completion calls. Each call is independently
// retried; the only cross-call state is the shared rate tracker.
type Caller struct {
	client  ChatClient
	tracker *ratelimit.Tracker
	config  CallerConfig
	sleep   func(time.Duration)
	log     zerolog.Logger
}

// NewCaller creates a caller with the given transport and shared tracker.
func NewCaller(client ChatClient, tracker *ratelimit.Tracker, config CallerConfig) *Caller {
	return &Caller{
		client:  client,
		tracker: tracker,
		config:  config,
		sleep:   time.Sleep,
		log:     logger.WithComponent("llm"),
	}
}

// Complete sends a single-prompt completion request through the retry
// machinery and returns the answer text with usage accounting.
func (c *Caller) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (*Result, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	return c.do(ctx, req)
}

// do runs the request with pause-before-call backpressure and bounded,
// error-class-specific retries.
func (c *Caller) do(ctx context.Context, req openai.ChatCompletionRequest) (*Result, error) {
	var lastErr error
	var lastKind ErrorKind

	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		if shouldPause, reason := c.tracker.ShouldPause(); shouldPause {
			pause := c.tracker.PauseDuration(reason)
			metrics.RateLimitPauses.WithLabelValues(string(reason)).Inc()
			c.log.Warn().
				Str("reason", string(reason)).
				Dur("pause", pause).
				Msg("Pausing before call to stay under provider budget")
			c.sleep(pause)
		}

		callCtx, cancel := context.WithTimeout(ctx, c.config.CallTimeout)
		resp, err := c.client.CreateChatCompletion(callCtx, req)
		cancel()

		if err == nil {
			if len(resp.Choices) == 0 {
				lastErr = errors.New("no response choices")
				lastKind = ErrKindUnknown
				continue
			}

			// Absent usage means zero cost, not an error.
			usage := models.Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			}
			usage.CostUSD = float64(usage.PromptTokens)/1_000_000*c.config.InputPricePerMTok +
				float64(usage.CompletionTokens)/1_000_000*c.config.OutputPricePerMTok

			c.tracker.Record(usage.TotalTokens)
			metrics.LLMRequests.WithLabelValues("success").Inc()
			metrics.LLMTokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
			metrics.LLMTokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
			metrics.LLMCostUSD.Add(usage.CostUSD)

			return &Result{
				Text:     resp.Choices[0].Message.Content,
				Usage:    usage,
				Attempts: attempt,
			}, nil
		}

		// The parent context going away means the whole request is over,
		// not a transient provider failure worth retrying.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		switch {
		case isThrottle(err):
			lastKind = ErrKindRateLimit
			if attempt < c.config.MaxRetries {
				wait := c.throttleDelay(err, attempt)
				c.log.Warn().
					Err(err).
					Int("attempt", attempt).
					Dur("wait", wait).
					Msg("Rate limited, backing off")
				c.sleep(wait)
			}
		case isTimeout(err):
			lastKind = ErrKindTimeout
			if attempt < c.config.MaxRetries {
				wait := minDuration(5*time.Second*time.Duration(attempt), 20*time.Second)
				c.log.Warn().
					Err(err).
					Int("attempt", attempt).
					Dur("wait", wait).
					Msg("Call timed out, retrying")
				c.sleep(wait)
			}
		default:
			lastKind = ErrKindUnknown
			if attempt < c.config.MaxRetries {
				wait := minDuration(2*time.Second*time.Duration(attempt), 10*time.Second)
				c.log.Warn().
					Err(err).
					Int("attempt", attempt).
					Dur("wait", wait).
					Msg("Call failed, retrying")
				c.sleep(wait)
			}
		}
	}

	metrics.LLMRequests.WithLabelValues(string(lastKind)).Inc()
	return nil, &CallError{
		Kind:     lastKind,
		Attempts: c.config.MaxRetries,
		Err:      lastErr,
	}
}

// throttleDelay prefers the provider's suggested wait when present in the
// error message, otherwise falls back to exponential backoff with jitter.
func (c *Caller) throttleDelay(err error, attempt int) time.Duration {
	if wait, ok := parseSuggestedWait(err.Error()); ok {
		buffered := wait + time.Duration(1000+rand.Intn(2000))*time.Millisecond
		return minDuration(buffered, c.config.MaxDelay)
	}

	backoff := c.config.BaseDelay * (1 << attempt)
	jitter := time.Duration(100+rand.Intn(900)) * time.Millisecond
	return minDuration(backoff+jitter, c.config.MaxDelay)
}

// parseSuggestedWait extracts the provider's "try again in <N>s" hint.
func parseSuggestedWait(message string) (time.Duration, bool) {
	match := suggestedWaitPattern.FindStringSubmatch(message)
	if match == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func isThrottle(err error) bool {
	var apiErr *openai.APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
