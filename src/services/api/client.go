// Package api is the HTTP client for the chat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"llmchat/src/models"

	"go.uber.org/zap"
)

// maxErrorBody caps how much of a failed response is read for diagnostics.
const maxErrorBody = 4 << 10

// Client talks to the backend's JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SendMessageRequest is the body of POST /api/chat/send.
type SendMessageRequest struct {
	Content        string `json:"content"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type createConversationRequest struct {
	Title string `json:"title,omitempty"`
}

type conversationEnvelope struct {
	Conversation models.Conversation `json:"conversation"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// Health probes GET /health. Any non-2xx status is an error.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health check", http.MethodGet, "/health", nil, nil, nil)
}

// SendMessage posts a user message. An empty conversationID asks the backend
// to start a new conversation.
func (c *Client) SendMessage(ctx context.Context, content, conversationID string) (*models.SendResult, error) {
	req := SendMessageRequest{Content: content, ConversationID: conversationID}
	var out models.SendResult
	if err := c.do(ctx, "send message", http.MethodPost, "/api/chat/send", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConversations fetches one page of conversations, most recently updated first.
func (c *Client) ListConversations(ctx context.Context, limit, offset int) (*models.ConversationPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var out models.ConversationPage
	if err := c.do(ctx, "list conversations", http.MethodGet, "/api/chat/conversations", q, nil, &out); err != nil {
		return nil, err
	}
	if out.Conversations == nil {
		out.Conversations = []models.Conversation{}
	}
	return &out, nil
}

// GetConversation fetches a conversation with its full message history.
func (c *Client) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var out conversationEnvelope
	path := "/api/chat/conversations/" + url.PathEscape(id)
	if err := c.do(ctx, "get conversation", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Conversation, nil
}

// CreateConversation asks the backend to allocate a conversation. The title
// travels both as body and as query parameter; the reference backend reads the latter.
func (c *Client) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	var q url.Values
	if title != "" {
		q = url.Values{"title": []string{title}}
	}
	var out conversationEnvelope
	body := createConversationRequest{Title: title}
	if err := c.do(ctx, "create conversation", http.MethodPost, "/api/chat/conversations", q, body, &out); err != nil {
		return nil, err
	}
	return &out.Conversation, nil
}

// DeleteConversation removes a conversation on the backend.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	path := "/api/chat/conversations/" + url.PathEscape(id)
	return c.do(ctx, "delete conversation", http.MethodDelete, path, nil, nil, nil)
}

// do performs one JSON round trip. Every failure is returned as *models.APIError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &models.APIError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &models.APIError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", zap.String("op", op), zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &models.APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &models.APIError{Op: op, StatusCode: resp.StatusCode, Detail: parseDetail(raw)}
		c.logger.Debug("backend returned error status", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.String("detail", apiErr.Detail))
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.APIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// parseDetail extracts FastAPI's "detail" field, which is either a string or a
// list of validation errors.
func parseDetail(raw []byte) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err != nil || len(er.Detail) == 0 {
		return strings.TrimSpace(string(raw))
	}
	var s string
	if err := json.Unmarshal(er.Detail, &s); err == nil {
		return s
	}
	return string(er.Detail)
}
