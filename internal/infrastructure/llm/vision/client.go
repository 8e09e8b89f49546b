// Package vision calls a vision-capable generative model to extract a full
// statement plus an inferred template from raw PDF bytes. It is the fallback
// path when no learned template can handle a document.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
	"github.com/kirillkom/bank-statement-extractor/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	models     []string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	// Models is the ordered fallback list: primary first, then cheaper ones.
	Models []string
	// RequestsPerMinute caps outbound calls across all models.
	RequestsPerMinute int
	Timeout           time.Duration
	Executor          *resilience.Executor
}

func New(baseURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		models:     opts.Models,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		executor:   executor,
	}
}

// Extract walks the model list in order. Rate-limit responses retry the same
// model after a backoff; any other failure abandons that model for the next.
// Exhausting every model is not an error in itself: it returns (nil, err) and
// the orchestrator decides that the request is terminally failed.
func (c *Client) Extract(ctx context.Context, pdfBytes []byte, feedbackHint string) (*ports.VisionResult, error) {
	if len(c.models) == 0 {
		return nil, fmt.Errorf("no vision models configured (set VISION_MODELS)")
	}

	prompt := buildExtractionPrompt(feedbackHint)
	encoded := base64.StdEncoding.EncodeToString(pdfBytes)

	var lastErr error
	for _, model := range c.models {
		raw, err := c.generateWithRetry(ctx, model, prompt, encoded)
		if err != nil {
			slog.Warn("vision_model_failed", "model", model, "error", err)
			lastErr = err
			continue
		}
		result, err := parseVisionResponse(raw)
		if err != nil {
			slog.Warn("vision_response_unparseable", "model", model, "error", err)
			lastErr = err
			continue
		}
		return result, nil
	}
	return nil, fmt.Errorf("all vision models exhausted: %w", lastErr)
}

func (c *Client) generateWithRetry(ctx context.Context, model, prompt, encodedPDF string) (string, error) {
	var raw string
	err := c.executor.Execute(ctx, "vision.generate."+model, func(callCtx context.Context) error {
		if err := c.limiter.Wait(callCtx); err != nil {
			return err
		}
		var err error
		raw, err = c.generate(callCtx, model, prompt, encodedPDF)
		return err
	}, classifyVisionError)
	if err != nil {
		return "", err
	}
	return raw, nil
}

func (c *Client) generate(ctx context.Context, model, prompt, encodedPDF string) (string, error) {
	reqBody := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
		"images": []string{encodedPDF},
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
