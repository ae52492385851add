// Package hec forwards delivery records to a Splunk HTTP Event Collector.
package hec

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mosajjal/Go-Splunk-HTTP/splunk/v2"

	"github.com/mosajjal/ecs-events-to-slack/pkg/models"
)

// Config holds HEC client configuration
type Config struct {
	Endpoint      string
	TLSSkipVerify bool
	Proxy         string
	Token         string
	ChannelID     string
	Index         string
	Source        string
	SourceType    string
	Host          string
	Timeout       time.Duration
}

type eventLogger interface {
	LogEvents(events []*splunk.Event) error
}

// Client sends one HEC event per delivery record
type Client struct {
	config Config
	logger eventLogger
}

// NewClient creates a new HEC client
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("no HEC endpoint configured")
	}

	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.TLSSkipVerify}
	transport := &http.Transport{TLSClientConfig: tlsConfig}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	endpoint := cfg.Endpoint
	if !strings.HasSuffix(endpoint, "/services/collector") {
		endpoint = fmt.Sprintf("%s/services/collector", strings.TrimSuffix(endpoint, "/"))
	}

	splunkClient := splunk.NewClient(
		httpClient,
		endpoint,
		cfg.Token,
		channelID(cfg.ChannelID),
		cfg.Source,
		cfg.SourceType,
		cfg.Index,
	)

	return newClient(cfg, splunkClient), nil
}

func newClient(cfg Config, logger eventLogger) *Client {
	return &Client{config: cfg, logger: logger}
}

// channelID returns configured if it is a valid UUID, otherwise a fresh one
func channelID(configured string) string {
	if _, err := uuid.Parse(configured); err == nil {
		return configured
	}
	return uuid.New().String()
}

// Send forwards a delivery record as a single HEC event
func (c *Client) Send(_ context.Context, record models.DeliveryRecord) error {
	event := &splunk.Event{
		Time:       splunk.EventTime{Time: time.Now()},
		Host:       c.config.Host,
		Source:     c.config.Source,
		SourceType: c.config.SourceType,
		Index:      c.config.Index,
		Event:      record,
	}
	if err := c.logger.LogEvents([]*splunk.Event{event}); err != nil {
		return fmt.Errorf("failed to send delivery record to HEC: %w", err)
	}
	return nil
}

// Close closes the client
func (c *Client) Close() error {
	return nil
}
