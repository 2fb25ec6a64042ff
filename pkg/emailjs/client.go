package emailjs

// MAIL RELAY CLIENT

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const sendPath = "/api/v1.0/email/send"

// StatusError reports a response the relay acknowledged but did not
// accept. It is distinct from transport errors so callers can tell a
// refused request from one that may never have arrived.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay rejected request: status %d: %s", e.Code, e.Body)
}

// Client talks to an EmailJS-compatible mail relay. The three
// credentials are opaque strings issued by the relay.
type Client struct {
	baseURL    string
	serviceID  string
	templateID string
	publicKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, serviceID, templateID, publicKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		serviceID:  serviceID,
		templateID: templateID,
		publicKey:  publicKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams map[string]any `json:"template_params"`
}

// Send submits one templated message. A nil error means the relay
// answered with a success status; retrying after any error may produce
// a duplicate delivery, the relay performs no deduplication.
func (c *Client) Send(ctx context.Context, params map[string]any) error {
	body, err := json.Marshal(sendRequest{
		ServiceID:      c.serviceID,
		TemplateID:     c.templateID,
		UserID:         c.publicKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+sendPath,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Relay refused send",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)))
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	c.logger.Info("Relay accepted send",
		zap.Int("status", resp.StatusCode),
		zap.String("body", string(respBody)))
	return nil
}
