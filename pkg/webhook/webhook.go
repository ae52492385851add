// Package webhook posts chat messages to a Slack incoming webhook.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mosajjal/ecs-events-to-slack/pkg/logging"
	"github.com/mosajjal/ecs-events-to-slack/pkg/models"
)

// Outcome classifies a delivery attempt
type Outcome int

const (
	Delivered Outcome = iota
	Rejected
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Rejected:
		return "rejected"
	default:
		return "transport_error"
	}
}

// Result is the outcome of a single POST
type Result struct {
	Outcome    Outcome
	StatusCode int
	Err        error
}

// OK reports whether the message was delivered
func (r Result) OK() bool {
	return r.Outcome == Delivered
}

// Config holds delivery client configuration
type Config struct {
	Proxy   string
	Timeout time.Duration // zero keeps the transport default
}

// Client delivers messages with a single synchronous POST. It never retries.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a delivery client
func NewClient(cfg Config) (*Client, error) {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		// 3xx counts as delivered, so redirects are not followed
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	return &Client{httpClient: httpClient}, nil
}

// Deliver posts msg as JSON to webhookURL. Failures are reported in the
// Result and logged, never returned as an error.
func (c *Client) Deliver(ctx context.Context, webhookURL string, msg models.ChatMessage) Result {
	res := c.post(ctx, webhookURL, msg)

	logger := logging.FromContext(ctx)
	switch res.Outcome {
	case Delivered:
		logger.Info().Int("status_code", res.StatusCode).Msg("message successfully posted to slack")
	case Rejected:
		logger.Error().Err(res.Err).Int("status_code", res.StatusCode).Msg("slack rejected the message")
	default:
		logger.Error().Err(res.Err).Msg("an error occurred while attempting to post to slack")
	}
	return res
}

func (c *Client) post(ctx context.Context, webhookURL string, msg models.ChatMessage) Result {
	body, err := json.Marshal(msg)
	if err != nil {
		return Result{Outcome: TransportError, Err: fmt.Errorf("marshal message: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return Result{Outcome: TransportError, Err: fmt.Errorf("build request: %w", stripURL(err))}
	}
	req.Header.Set("Content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Outcome: TransportError, Err: fmt.Errorf("post message: %w", stripURL(err))}
	}
	defer func() { _ = resp.Body.Close() }()

	return classify(resp)
}

// stripURL drops the webhook URL, which carries the Slack token, from a *url.Error
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

func classify(resp *http.Response) Result {
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{Outcome: Delivered, StatusCode: resp.StatusCode}
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return Result{
		Outcome:    Rejected,
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("slack webhook %d: %s", resp.StatusCode, string(respBody)),
	}
}
