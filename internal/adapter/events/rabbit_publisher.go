package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kwalram/textile-pos/internal/core/domain"
)

const (
	exchangeName = "pos.orders"
	routingKey   = "order.completed"
)

// RabbitOrderEventsPublisher announces completed checkouts on a durable
// topic exchange so downstream consumers (fulfilment, notifications) can
// react without polling the sales archive.
type RabbitOrderEventsPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitOrderEventsPublisher(conn *amqp.Connection) (*RabbitOrderEventsPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &RabbitOrderEventsPublisher{conn: conn, ch: ch}, nil
}

type orderCompletedEvent struct {
	OrderNumber   string             `json:"orderNumber"`
	TotalAmount   int64              `json:"totalAmount"`
	PaymentMethod string             `json:"paymentMethod"`
	CustomerName  string             `json:"customerName"`
	Items         []domain.OrderItem `json:"items"`
	CompletedAt   time.Time          `json:"completedAt"`
}

func (p *RabbitOrderEventsPublisher) PublishOrderCompleted(ctx context.Context, sale domain.Sale, items []domain.OrderItem) error {
	body, err := json.Marshal(orderCompletedEvent{
		OrderNumber:   sale.OrderNumber,
		TotalAmount:   sale.TotalAmount,
		PaymentMethod: string(sale.PaymentMethod),
		CustomerName:  sale.CustomerName,
		Items:         items,
		CompletedAt:   sale.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	return p.ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   sale.ID,
		Timestamp:   sale.CreatedAt,
		Body:        body,
	})
}

func (p *RabbitOrderEventsPublisher) Close() error {
	return p.ch.Close()
}
