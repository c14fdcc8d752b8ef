// Package remote fetches the full menu dataset from the remote endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/lemon/internal/menu"
)

const (
	// defaultTimeout is used when the configured timeout is not positive.
	defaultTimeout = 15 * time.Second

	// maxBodyBytes caps the menu document size.
	maxBodyBytes = 4 << 20
)

// Config configures a Client.
type Config struct {
	// URL is the fixed endpoint returning {"menu": [...]}.
	URL string

	// Timeout bounds the whole request.
	Timeout time.Duration

	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client

	// Logger is an optional logger. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client performs the single-shot menu fetch.
type Client struct {
	http   *http.Client
	url    string
	logger *slog.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http:   httpClient,
		url:    strings.TrimSpace(cfg.URL),
		logger: logger.With(slog.String("component", "remote.Client")),
	}
}

// URL returns the endpoint the client fetches from.
func (c *Client) URL() string {
	return c.url
}

// FetchAll performs one request and returns the menu items.
// Failures are logged and reported as an empty list; the next bootstrap
// retries. No retries happen here.
func (c *Client) FetchAll(ctx context.Context) []menu.Item {
	start := time.Now()
	items, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("menu fetch failed",
			slog.String("url", c.url),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)
		return []menu.Item{}
	}

	c.logger.Info("menu fetched",
		slog.String("url", c.url),
		slog.Int("items", len(items)),
		slog.Duration("duration", time.Since(start)),
	)
	return items
}

func (c *Client) fetch(ctx context.Context) ([]menu.Item, error) {
	if c.url == "" {
		return nil, fmt.Errorf("menu url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return decodeMenu(body)
}

// document is the wire shape of the remote payload.
type document struct {
	Menu []wireItem `json:"menu"`
}

type wireItem struct {
	Name        string    `json:"name"`
	Price       textValue `json:"price"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
}

// textValue accepts a JSON string or number and keeps it as text.
type textValue string

func (v *textValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = textValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price must be a string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("price must be a string or number: %w", err)
	}
	*v = textValue(n.String())
	return nil
}

func decodeMenu(body []byte) ([]menu.Item, error) {
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	if doc.Menu == nil {
		return nil, fmt.Errorf("decode menu: missing menu field")
	}

	items := make([]menu.Item, len(doc.Menu))
	for i, w := range doc.Menu {
		items[i] = menu.Item{
			Name:        w.Name,
			Price:       string(w.Price),
			Description: w.Description,
			Category:    w.Category,
			Image:       w.Image,
		}
	}
	return items, nil
}
