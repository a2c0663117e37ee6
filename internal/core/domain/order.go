package domain

import "time"

// PaymentStatus and OrderStatus mirror the order service's status
// vocabulary. Checkouts always submit orders as pending/pending; the
// later transitions (paid, shipped, cancelled) happen on the order
// service side and are listed here for consumers decoding its records.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type OrderItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type CustomerInfo struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// PaymentDetails carries the method-specific fields of a finalized
// payment: cash amounts for cash, the artifact reference for QRIS.
type PaymentDetails struct {
	CashReceived  int64  `json:"cashReceived,omitempty"`
	ChangeDue     int64  `json:"changeDue,omitempty"`
	QrisReference string `json:"qrisReference,omitempty"`
}

// OrderPayload is the finalized order sent to the order service. The
// idempotency key is generated once per checkout session and reused
// across retries so a transient failure cannot create duplicate orders.
type OrderPayload struct {
	IdempotencyKey string
	Items          []OrderItem
	TotalAmount    int64
	PaymentMethod  PaymentMethod
	PaymentStatus  PaymentStatus
	OrderStatus    OrderStatus
	PaymentDetails PaymentDetails
	CustomerInfo   CustomerInfo
	OrderDate      time.Time
}

type OrderConfirmation struct {
	OrderNumber string `json:"orderNumber"`
	Message     string `json:"message,omitempty"`
}

// Sale is the local archive record of a completed checkout, written by
// the archive workers for reporting.
type Sale struct {
	ID            string
	OrderNumber   string
	TotalAmount   int64
	PaymentMethod PaymentMethod
	CustomerName  string
	CreatedAt     time.Time
}

type SalesSummary struct {
	OrderCount   int   `json:"orderCount"`
	TotalRevenue int64 `json:"totalRevenue"`
	CashRevenue  int64 `json:"cashRevenue"`
	QrisRevenue  int64 `json:"qrisRevenue"`
}
