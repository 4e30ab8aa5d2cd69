package remote

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

	"github.com/simvault/orderdesk/internal/dispatch"
	"github.com/simvault/orderdesk/internal/model"
)

// TokenSource supplies a bearer credential. It is consulted fresh on every
// call; a failure here surfaces as an auth error before any request is made.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the remote order service: one POST endpoint per action
// kind, JSON body carrying the remote order id. The client performs no
// retries; the user may re-trigger once the dispatcher is idle again.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger
}

func NewClient(baseURL string, tokens TokenSource, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     tokens,
		logger:     logger,
	}
}

var actionPaths = map[model.ActionKind]string{
	model.ActionCancel:   "/orders/cancel",
	model.ActionActivate: "/orders/activate",
}

type actionRequest struct {
	OrderID string `json:"orderId"`
}

type actionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PerformAction implements dispatch.RemoteClient.
func (c *Client) PerformAction(ctx context.Context, kind model.ActionKind, remoteOrderID string) error {
	if strings.TrimSpace(remoteOrderID) == "" {
		return dispatch.NewError(dispatch.KindValidation, "missing remote order id")
	}
	path, ok := actionPaths[kind]
	if !ok {
		return dispatch.NewError(dispatch.KindValidation, fmt.Sprintf("unsupported action kind %q", kind))
	}

	token, err := c.tokens.Token(ctx)
	if err != nil || token == "" {
		return dispatch.NewError(dispatch.KindAuth, fmt.Sprintf("no credential: %v", err))
	}

	body, err := json.Marshal(actionRequest{OrderID: remoteOrderID})
	if err != nil {
		return dispatch.NewError(dispatch.KindUnknown, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return dispatch.NewError(dispatch.KindUnknown, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("remote order call failed", zap.String("path", path), zap.Error(err))
		return dispatch.NewError(dispatch.KindUnknown, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return dispatch.NewError(dispatch.KindUnknown, err.Error())
	}

	var parsed actionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.logger.Warn("malformed remote response",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return dispatch.NewError(dispatch.KindUnknown, fmt.Sprintf("malformed response (status %d)", resp.StatusCode))
	}
	if parsed.Success {
		return nil
	}
	return dispatch.NewError(classifyMessage(parsed.Message), parsed.Message)
}

// classifyMessage maps the remote service's fixed message vocabulary onto the
// error taxonomy. Comparison is case-insensitive; anything outside the
// vocabulary is unknown.
func classifyMessage(message string) dispatch.ErrorKind {
	switch strings.ToLower(strings.TrimSpace(message)) {
	case "order not found", "invalid order id":
		return dispatch.KindValidation
	case "invalid order status", "order is not active", "order is not inactive":
		return dispatch.KindConflict
	case "provider cancel failed", "provider activation failed":
		return dispatch.KindUpstream
	case "balance update failed":
		return dispatch.KindPersistence
	}
	return dispatch.KindUnknown
}
