package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/retry"
)

// maxResponseBytes bounds how much of a grader response is read.
const maxResponseBytes = 1 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      retry.Config
	log        *logger.Logger
}

// Request is what the grader receives for one submission.
type Request struct {
	SubmissionID  string             `json:"submission_id"`
	ChallengeSlug string             `json:"challenge_slug"`
	Criteria      []models.Criterion `json:"criteria"`
	Payload       json.RawMessage    `json:"payload"`
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
		retry:      retry.DefaultConfig(),
		log:        logger.Default().WithPrefix("evaluator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate posts the submission to the grader and returns the raw breakdown
// body. The body is not interpreted here; callers validate it. Server errors
// are retried, client errors are not.
func (c *Client) Evaluate(ctx context.Context, req Request) ([]byte, error) {
	log := logger.FromContext(ctx).WithPrefix("evaluator").WithField("submission_id", req.SubmissionID)
	url := c.baseURL + "/evaluate"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	cfg := c.retry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("evaluation attempt %d failed, retrying in %v: %v", attempt, delay, err)
	}

	var out []byte
	err = retry.Do(ctx, cfg, func(ctx context.Context) error {
		log.Debug("posting submission to %s", url)
		start := time.Now()

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			log.Error("failed to call evaluator: %v", err)
			return err
		}
		defer resp.Body.Close()

		log.Debug("evaluator responded in %v, status=%d", time.Since(start), resp.StatusCode)

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			out = data
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("evaluator status %d: %s", resp.StatusCode, truncate(data))
		default:
			return retry.Permanent(fmt.Errorf("evaluator status %d: %s", resp.StatusCode, truncate(data)))
		}
	})
	if err != nil {
		log.Error("evaluation request failed: %v", err)
		return nil, err
	}

	log.Info("received evaluation (%d bytes)", len(out))
	return out, nil
}

func truncate(b []byte) string {
	if len(b) > 256 {
		return string(b[:256]) + "..."
	}
	return string(b)
}
