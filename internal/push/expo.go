package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nutriconsultas/backend/pkg/logger"
	"github.com/nutriconsultas/backend/pkg/metrics"
)

// DefaultEndpoint is the Expo push gateway URL.
const DefaultEndpoint = "https://exp.host/--/api/v2/push/send"

// maxChunkSize is the largest batch the Expo gateway accepts per request.
const maxChunkSize = 100

// Message is a single push message addressed to one or more Expo tokens.
type Message struct {
	To       []string       `json:"to"`
	Title    string         `json:"title,omitempty"`
	Subtitle string         `json:"subtitle,omitempty"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data,omitempty"`
	Priority string         `json:"priority,omitempty"`
	Sound    string         `json:"sound,omitempty"`
}

// Ticket is the per-message receipt returned by the gateway.
type Ticket struct {
	Status  string         `json:"status"`
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type ticketResponse struct {
	Data   []Ticket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Client sends push messages through the Expo gateway.
type Client struct {
	endpoint string
	http     *http.Client
	log      *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithEndpoint overrides the gateway URL, mainly for tests.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient builds an Expo push client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      logger.WithModule("push"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsValidToken reports whether the value looks like an Expo push token.
func IsValidToken(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[") && strings.HasSuffix(token, "]") ||
		strings.HasPrefix(token, "ExpoPushToken[") && strings.HasSuffix(token, "]")
}

// Send splits the message across gateway-sized chunks and posts each one.
// A failing chunk is logged and counted but does not stop the remaining
// chunks; tickets from successful chunks are always returned.
func (c *Client) Send(ctx context.Context, msg Message) ([]Ticket, error) {
	tokens := make([]string, 0, len(msg.To))
	for _, token := range msg.To {
		if IsValidToken(token) {
			tokens = append(tokens, token)
		} else {
			c.log.Warn("skipping invalid push token", zap.String("token", token))
		}
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	var tickets []Ticket
	var failed int
	for start := 0; start < len(tokens); start += maxChunkSize {
		end := start + maxChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		chunk := msg
		chunk.To = tokens[start:end]

		chunkTickets, err := c.sendChunk(ctx, chunk)
		if err != nil {
			failed++
			metrics.PushChunkFailures.Inc()
			c.log.Error("push chunk failed",
				zap.Int("chunk_start", start),
				zap.Int("chunk_size", end-start),
				zap.Error(err))
			continue
		}
		tickets = append(tickets, chunkTickets...)
	}

	if failed > 0 && len(tickets) == 0 {
		return nil, fmt.Errorf("push: all %d chunks failed", failed)
	}
	return tickets, nil
}

func (c *Client) sendChunk(ctx context.Context, msg Message) ([]Ticket, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("push: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("push: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push: post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("push: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push: gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed ticketResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("push: decode response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("push: gateway error %s: %s", parsed.Errors[0].Code, parsed.Errors[0].Message)
	}

	return parsed.Data, nil
}
