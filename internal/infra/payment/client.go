package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// プロバイダ側のステータス
const (
	StatusSucceeded             = "succeeded"
	StatusCanceled              = "canceled"
	StatusRequiresPaymentMethod = "requires_payment_method"
)

var ErrGateway = errors.New("payment gateway error")

type Intent struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"client_secret"`
}

type Refund struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type CreateIntentInput struct {
	Amount         int64
	Currency       string
	OrderID        int64
	Email          string
	IdempotencyKey string
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Stripe互換のREST API（form-encoded / Bearer認証）
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      httpClient,
	}
}

func (c *Client) CreateIntent(ctx context.Context, in CreateIntentInput) (Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(in.Amount, 10))
	form.Set("currency", strings.ToLower(in.Currency))
	form.Set("metadata[order_id]", strconv.FormatInt(in.OrderID, 10))
	if in.Email != "" {
		form.Set("receipt_email", in.Email)
	}

	var out Intent
	err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, in.IdempotencyKey, &out)
	return out, err
}

func (c *Client) RetrieveIntent(ctx context.Context, id string) (Intent, error) {
	var out Intent
	err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil, "", &out)
	return out, err
}

func (c *Client) Refund(ctx context.Context, intentID string, idempotencyKey string) (Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", intentID)

	var out Refund
	err := c.do(ctx, http.MethodPost, "/v1/refunds", form, idempotencyKey, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, idemKey string, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
			return fmt.Errorf("%w (%d): %s", ErrGateway, resp.StatusCode, ae.Error.Message)
		}
		return fmt.Errorf("%w (%d)", ErrGateway, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: invalid response: %v", ErrGateway, err)
	}
	return nil
}
