// Package transport talks to the help-desk assistant backend over HTTP/JSON.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/comigor/helpdesk-go/internal/config"
	"github.com/comigor/helpdesk-go/internal/logger"
)

type ctxKey string

const ctxKeySessionID ctxKey = "session_id"

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 512

// WithSessionID attaches a session id that is forwarded as X-Session-ID.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, id)
}

// Client is a client for the assistant backend. Each call is attempted exactly once.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new Client from the backend configuration.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// NewClientWithHTTP creates a Client that sends through hc.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: hc}
}

// BaseURL returns the backend root the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Ask submits a question on behalf of userID.
func (c *Client) Ask(ctx context.Context, userID int64, question string) (AskResponse, error) {
	const op = "ask"
	var wire askWire
	if err := c.do(ctx, op, http.MethodPost, "/ask/", AskRequest{UserADID: userID, Question: question}, &wire); err != nil {
		return AskResponse{}, err
	}
	if wire.Answer == nil {
		return AskResponse{}, &Error{Op: op, Err: fmt.Errorf("%w: missing answer", errMalformed)}
	}
	return AskResponse{
		Question:   wire.Question,
		Answer:     *wire.Answer,
		Sources:    wire.Sources,
		ResponseID: wire.ResponseID,
	}, nil
}

// SubmitFeedback rates the answer identified by responseID.
func (c *Client) SubmitFeedback(ctx context.Context, responseID int64, isHelpful bool) error {
	return c.do(ctx, "feedback", http.MethodPost, "/feedback/", FeedbackRequest{ResponseID: responseID, IsValid: isHelpful}, nil)
}

// Stats retrieves the backend's knowledge-base counters.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	if err := c.do(ctx, "stats", http.MethodGet, "/glpi/stats", nil, &out); err != nil {
		return Stats{}, err
	}
	return out, nil
}

// Preview lists sample entries of one kind (tickets, kb_articles, faq).
func (c *Client) Preview(ctx context.Context, kind string) ([]map[string]any, error) {
	var out previewResponse
	if err := c.do(ctx, "preview", http.MethodGet, "/glpi/preview/"+url.PathEscape(kind), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// do performs one request. A nil out means the body is drained and ignored.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid, ok := ctx.Value(ctxKeySessionID).(string); ok && sid != "" {
		req.Header.Set("X-Session-ID", sid)
	}

	log := logger.L.With("op", op, "request_id", requestID)
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn("backend request failed", "error", err)
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()
	log.Debug("backend responded", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(snippet)))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("%w: %v", errMalformed, err)}
	}
	return nil
}
