package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kwalram/textile-pos/internal/core/domain"
)

const ordersPath = "/api/transactions"

// OrderClient submits finalized orders to the order service over JSON.
// A circuit breaker shields the checkout flow when the service is down;
// the per-call timeout bounds how long a Submitting state can hang.
type OrderClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.OrderConfirmation]
}

func NewOrderClient(baseURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*domain.OrderConfirmation](gobreaker.Settings{
			Name: "order-service",
		}),
	}
}

type submitOrderRequest struct {
	Items          []domain.OrderItem    `json:"items"`
	TotalAmount    int64                 `json:"totalAmount"`
	PaymentMethod  domain.PaymentMethod  `json:"paymentMethod"`
	PaymentStatus  domain.PaymentStatus  `json:"paymentStatus"`
	OrderStatus    domain.OrderStatus    `json:"orderStatus"`
	PaymentDetails domain.PaymentDetails `json:"paymentDetails"`
	CustomerInfo   domain.CustomerInfo   `json:"customerInfo"`
	OrderDate      time.Time             `json:"orderDate"`
}

type submitOrderResponse struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"orderNumber"`
	Message     string `json:"message"`
}

func (c *OrderClient) SubmitOrder(ctx context.Context, payload domain.OrderPayload) (*domain.OrderConfirmation, error) {
	return c.breaker.Execute(func() (*domain.OrderConfirmation, error) {
		return c.submit(ctx, payload)
	})
}

func (c *OrderClient) submit(ctx context.Context, payload domain.OrderPayload) (*domain.OrderConfirmation, error) {
	body, err := json.Marshal(submitOrderRequest{
		Items:          payload.Items,
		TotalAmount:    payload.TotalAmount,
		PaymentMethod:  payload.PaymentMethod,
		PaymentStatus:  payload.PaymentStatus,
		OrderStatus:    payload.OrderStatus,
		PaymentDetails: payload.PaymentDetails,
		CustomerInfo:   payload.CustomerInfo,
		OrderDate:      payload.OrderDate,
	})
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", payload.IdempotencyKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("order service returned status %d", resp.StatusCode)
	}

	var out submitOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "order rejected"
		}
		return nil, errors.New(msg)
	}

	return &domain.OrderConfirmation{
		OrderNumber: out.OrderNumber,
		Message:     out.Message,
	}, nil
}
