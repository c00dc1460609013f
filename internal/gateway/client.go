package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	errors "github.com/staybook/payment-service/internal"
)

// Client is the payment-gateway boundary. Confirm and Cancel block the
// calling goroutine; timeouts are owned by the underlying HTTP client.
type Client interface {
	Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*ConfirmResult, error)
	Cancel(ctx context.Context, paymentKey string, amount int64, reason string) (*CancelResult, error)
}

type ConfirmResult struct {
	TransactionID string    `json:"transaction_id"`
	Method        string    `json:"method"`
	ApprovedAt    time.Time `json:"approved_at"`
}

type CancelResult struct {
	TransactionID string    `json:"transaction_id"`
	CancelledAt   time.Time `json:"cancelled_at"`
}

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// HTTPClient talks to the provider's REST API.
type HTTPClient struct {
	client    *http.Client
	baseURL   string
	secretKey string
	logger    *slog.Logger
}

func NewHTTPClient(cfg Config, logger *slog.Logger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		logger:    logger,
	}
}

type confirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

type confirmResponse struct {
	TransactionID string    `json:"transactionId"`
	Method        string    `json:"method"`
	ApprovedAt    time.Time `json:"approvedAt"`
}

func (c *HTTPClient) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*ConfirmResult, error) {
	url := fmt.Sprintf("%s/v1/payments/confirm", c.baseURL)

	c.logger.Info("confirming payment with gateway",
		"order_id", orderID,
		"amount", amount)

	var resp confirmResponse
	if err := c.post(ctx, url, confirmRequest{PaymentKey: paymentKey, OrderID: orderID, Amount: amount}, &resp, errors.ErrCodeGatewayConfirmFailed); err != nil {
		return nil, err
	}

	c.logger.Info("gateway confirmed payment",
		"order_id", orderID,
		"transaction_id", resp.TransactionID,
		"method", resp.Method)

	return &ConfirmResult{
		TransactionID: resp.TransactionID,
		Method:        resp.Method,
		ApprovedAt:    resp.ApprovedAt,
	}, nil
}

type cancelRequest struct {
	CancelReason string `json:"cancelReason"`
	CancelAmount int64  `json:"cancelAmount"`
}

type cancelResponse struct {
	TransactionID string    `json:"transactionId"`
	CancelledAt   time.Time `json:"canceledAt"`
}

func (c *HTTPClient) Cancel(ctx context.Context, paymentKey string, amount int64, reason string) (*CancelResult, error) {
	url := fmt.Sprintf("%s/v1/payments/%s/cancel", c.baseURL, paymentKey)

	c.logger.Info("cancelling payment with gateway",
		"payment_key", paymentKey,
		"amount", amount,
		"reason", reason)

	var resp cancelResponse
	if err := c.post(ctx, url, cancelRequest{CancelReason: reason, CancelAmount: amount}, &resp, errors.ErrCodeGatewayCancelFailed); err != nil {
		return nil, err
	}

	c.logger.Info("gateway cancelled payment",
		"payment_key", paymentKey,
		"transaction_id", resp.TransactionID)

	return &CancelResult{
		TransactionID: resp.TransactionID,
		CancelledAt:   resp.CancelledAt,
	}, nil
}

func (c *HTTPClient) post(ctx context.Context, url string, body, out interface{}, code errors.ErrorCode) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return errors.NewInternalError("failed to marshal gateway request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return errors.NewInternalError("failed to build gateway request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.secretKey+":")))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("gateway request failed", "error", err, "url", url)
		return errors.NewGatewayError("payment gateway unreachable", code, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewGatewayError("failed to read gateway response", code, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("gateway returned error",
			"status", resp.StatusCode,
			"response", string(respBody),
			"url", url)
		return errors.NewGatewayError(
			fmt.Sprintf("payment gateway error: status %d", resp.StatusCode), code,
			fmt.Errorf("gateway response: %s", string(respBody)))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.NewGatewayError("failed to decode gateway response", code, err)
	}
	return nil
}
