package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/tabvault/tabvault/models"
)

// FeedClientConfig configures the websocket change-feed client.
type FeedClientConfig struct {
	// BaseURL is the server base (http/https); the client derives the
	// websocket endpoint from it.
	BaseURL  string
	DeviceID string

	// TokenSource supplies the current bearer token at (re)subscribe time,
	// so reconnects after a token refresh pick up the fresh credential.
	TokenSource func() string
}

type websocketFeedClient struct {
	cfg FeedClientConfig

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebsocketFeedClient builds a FeedClient over coder/websocket.
func NewWebsocketFeedClient(cfg FeedClientConfig) FeedClient {
	return &websocketFeedClient{cfg: cfg}
}

// Subscribe dials the feed endpoint and starts a read loop. Decoded events
// are delivered on the first channel; a read failure or server close is
// reported once on the second channel, after which both channels are
// closed. Cancelling ctx tears the connection down.
func (c *websocketFeedClient) Subscribe(ctx context.Context) (<-chan models.ChangeEvent, <-chan error, error) {
	endpoint := feedEndpoint(c.cfg.BaseURL)

	header := http.Header{}
	if c.cfg.TokenSource != nil {
		if token := c.cfg.TokenSource(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}
	if c.cfg.DeviceID != "" {
		header.Set("X-Device-ID", c.cfg.DeviceID)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, resp, err := websocket.Dial(dialCtx, endpoint, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("%w: dial feed: %w", ErrNetwork, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	events := make(chan models.ChangeEvent)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				errs <- fmt.Errorf("%w: feed read: %w", ErrNetwork, err)
				return
			}

			var ev models.ChangeEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				// A single malformed frame is skipped, not fatal.
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return events, errs, nil
}

// Close shuts the current connection down with a normal closure.
func (c *websocketFeedClient) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "client disabled")
}

func feedEndpoint(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/api/feed"
}
