package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kwalram/textile-pos/internal/core/domain"
	"github.com/kwalram/textile-pos/internal/port"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutOpen      = errors.New("checkout already in progress")
	ErrNoActiveCheckout  = errors.New("no active checkout session")
	ErrIllegalTransition = errors.New("illegal checkout state transition")
	ErrInsufficientCash  = errors.New("insufficient cash received")
	ErrArtifactNotReady  = errors.New("payment artifact not ready")
	ErrFlowBusy          = errors.New("another payment operation is in progress")
	ErrUnknownMethod     = errors.New("unknown payment method")
	ErrSubmitFailed      = errors.New("order submission failed")
)

// flow is one payment session. It exists only between OpenCheckout and
// Completed/CloseCheckout, and always nests inside a non-empty cart
// snapshot taken at open time.
type flow struct {
	state        domain.FlowState
	method       domain.PaymentMethod
	items        []domain.OrderItem
	total        int64
	cashReceived int64
	changeDue    int64
	qrisRef      string
	idemKey      string
	customer     domain.CustomerInfo

	// processing guards the single in-flight async operation per flow
	// (artifact generation or order submission).
	processing bool
}

// CheckoutView is a read-only snapshot of a payment session for callers.
type CheckoutView struct {
	State         domain.FlowState     `json:"state"`
	Method        domain.PaymentMethod `json:"method,omitempty"`
	Items         []domain.OrderItem   `json:"items"`
	Total         int64                `json:"total"`
	CashReceived  int64                `json:"cashReceived"`
	ChangeDue     int64                `json:"changeDue"`
	QrisReference string               `json:"qrisReference,omitempty"`
}

func (f *flow) view() *CheckoutView {
	items := make([]domain.OrderItem, len(f.items))
	copy(items, f.items)
	return &CheckoutView{
		State:         f.state,
		Method:        f.method,
		Items:         items,
		Total:         f.total,
		CashReceived:  f.cashReceived,
		ChangeDue:     f.changeDue,
		QrisReference: f.qrisRef,
	}
}

// CheckoutService owns the carts and payment sessions of all browsing
// sessions. Completed checkouts are handed to the sale queue; archive
// workers drain it into the sales repository.
type CheckoutService struct {
	catalog   port.CatalogRepository
	carts     port.CartStore
	gateway   port.OrderGateway
	artifacts port.ArtifactGenerator
	events    port.EventPublisher
	saleQueue chan domain.Sale

	mu    sync.Mutex
	flows map[string]*flow
}

func NewCheckoutService(
	catalog port.CatalogRepository,
	carts port.CartStore,
	gateway port.OrderGateway,
	artifacts port.ArtifactGenerator,
	events port.EventPublisher,
	queueSize int,
) *CheckoutService {
	return &CheckoutService{
		catalog:   catalog,
		carts:     carts,
		gateway:   gateway,
		artifacts: artifacts,
		events:    events,
		saleQueue: make(chan domain.Sale, queueSize),
		flows:     make(map[string]*flow),
	}
}

func (s *CheckoutService) GetSaleQueue() <-chan domain.Sale {
	return s.saleQueue
}

func (s *CheckoutService) Close() {
	close(s.saleQueue)
}

// --- cart operations ---

func (s *CheckoutService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.loadCart(ctx, sessionID)
}

// AddItem resolves the product in the catalog and adds one unit of it to
// the session cart.
func (s *CheckoutService) AddItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	if err := s.ensureNoOpenFlow(sessionID); err != nil {
		return nil, err
	}

	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("lookup product: %w", err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	cart.AddItem(*p)

	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// UpdateQuantity sets the line quantity exactly; zero or negative removes
// the line. An absent line is reported, not silently ignored.
func (s *CheckoutService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	if err := s.ensureNoOpenFlow(sessionID); err != nil {
		return nil, err
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := cart.SetQuantity(productID, quantity); err != nil {
		return nil, err
	}

	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func (s *CheckoutService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	if err := s.ensureNoOpenFlow(sessionID); err != nil {
		return nil, err
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if removed := cart.RemoveItem(productID); !removed {
		return cart, nil
	}

	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func (s *CheckoutService) ClearCart(ctx context.Context, sessionID string) error {
	if err := s.ensureNoOpenFlow(sessionID); err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// --- payment flow ---

// OpenCheckout starts a payment session over the current cart. The cart
// is snapshotted here; cart mutations are rejected until the session
// completes or is closed. An empty cart is rejected outright.
func (s *CheckoutService) OpenCheckout(ctx context.Context, sessionID string, customer domain.CustomerInfo) (*CheckoutView, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, open := s.flows[sessionID]; open {
		return nil, ErrCheckoutOpen
	}

	f := &flow{
		state:    domain.FlowStateMethodSelection,
		items:    snapshotItems(cart),
		total:    cart.Total(),
		idemKey:  uuid.NewString(),
		customer: customer,
	}
	s.flows[sessionID] = f
	return f.view(), nil
}

func (s *CheckoutService) CheckoutView(sessionID string) (*CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[sessionID]
	if !ok {
		return nil, ErrNoActiveCheckout
	}
	return f.view(), nil
}

// SelectMethod moves from method selection into the method-specific input
// state. Selecting QRIS blocks while the artifact is generated; on
// generation failure the flow stays in method selection.
func (s *CheckoutService) SelectMethod(ctx context.Context, sessionID string, method domain.PaymentMethod) (*CheckoutView, error) {
	s.mu.Lock()
	f, ok := s.flows[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoActiveCheckout
	}
	if f.processing {
		s.mu.Unlock()
		return nil, ErrFlowBusy
	}

	switch method {
	case domain.PaymentMethodCash:
		if !domain.CanTransition(f.state, domain.FlowStateCashInput) {
			s.mu.Unlock()
			return nil, ErrIllegalTransition
		}
		f.state = domain.FlowStateCashInput
		f.method = domain.PaymentMethodCash
		f.cashReceived = 0
		f.changeDue = 0
		view := f.view()
		s.mu.Unlock()
		return view, nil

	case domain.PaymentMethodQris:
		if !domain.CanTransition(f.state, domain.FlowStateQrisPending) {
			s.mu.Unlock()
			return nil, ErrIllegalTransition
		}
		f.processing = true
		total := f.total
		s.mu.Unlock()

		ref, err := s.artifacts.Generate(ctx, total)

		s.mu.Lock()
		f.processing = false
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("generate payment artifact: %w", err)
		}
		f.state = domain.FlowStateQrisPending
		f.method = domain.PaymentMethodQris
		f.qrisRef = ref
		view := f.view()
		s.mu.Unlock()
		return view, nil

	default:
		s.mu.Unlock()
		return nil, ErrUnknownMethod
	}
}

// EnterCash records the cash received and recomputes the change due.
// Unparseable or negative input counts as zero, never as an undefined
// value reaching the submission guard.
func (s *CheckoutService) EnterCash(sessionID, input string) (*CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[sessionID]
	if !ok {
		return nil, ErrNoActiveCheckout
	}
	if f.state != domain.FlowStateCashInput {
		return nil, ErrIllegalTransition
	}

	f.cashReceived = parseAmount(input)
	f.changeDue = f.cashReceived - f.total
	return f.view(), nil
}

// Confirm enters Submitting and calls the order service. Success clears
// the cart, archives the sale and discards the session. Failure leaves
// the session intact so Confirm can be retried with the same idempotency
// key, or Cancel can return to method selection.
func (s *CheckoutService) Confirm(ctx context.Context, sessionID string) (*domain.OrderConfirmation, error) {
	s.mu.Lock()
	f, ok := s.flows[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoActiveCheckout
	}
	if f.processing {
		s.mu.Unlock()
		return nil, ErrFlowBusy
	}
	if !domain.CanTransition(f.state, domain.FlowStateSubmitting) {
		s.mu.Unlock()
		return nil, ErrIllegalTransition
	}

	switch f.method {
	case domain.PaymentMethodCash:
		// Gate on the amounts themselves, not the stored changeDue:
		// a flow that never saw a cash entry still holds the initial 0.
		if f.cashReceived-f.total < 0 {
			s.mu.Unlock()
			return nil, ErrInsufficientCash
		}
	case domain.PaymentMethodQris:
		if f.qrisRef == "" {
			s.mu.Unlock()
			return nil, ErrArtifactNotReady
		}
	default:
		s.mu.Unlock()
		return nil, ErrUnknownMethod
	}

	f.state = domain.FlowStateSubmitting
	f.processing = true
	payload := buildPayload(f)
	s.mu.Unlock()

	conf, err := s.gateway.SubmitOrder(ctx, payload)

	s.mu.Lock()
	f.processing = false
	if err != nil {
		f.state = domain.FlowStateFailed
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	f.state = domain.FlowStateCompleted
	delete(s.flows, sessionID)
	s.mu.Unlock()

	if err := s.carts.Delete(ctx, sessionID); err != nil {
		log.Printf("CRITICAL: order %s created but cart for session %s not cleared: %v",
			conf.OrderNumber, sessionID, err)
	}

	sale := domain.Sale{
		ID:            uuid.NewString(),
		OrderNumber:   conf.OrderNumber,
		TotalAmount:   payload.TotalAmount,
		PaymentMethod: payload.PaymentMethod,
		CustomerName:  payload.CustomerInfo.Name,
		CreatedAt:     time.Now(),
	}
	s.saleQueue <- sale

	if s.events != nil {
		if err := s.events.PublishOrderCompleted(ctx, sale, payload.Items); err != nil {
			log.Printf("publish order completed %s: %v", conf.OrderNumber, err)
		}
	}

	return conf, nil
}

// Cancel returns the session to method selection, discarding the
// method-specific fields. The cart is untouched.
func (s *CheckoutService) Cancel(sessionID string) (*CheckoutView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[sessionID]
	if !ok {
		return nil, ErrNoActiveCheckout
	}
	if f.processing {
		return nil, ErrFlowBusy
	}
	if !domain.CanTransition(f.state, domain.FlowStateMethodSelection) {
		return nil, ErrIllegalTransition
	}

	f.state = domain.FlowStateMethodSelection
	f.method = ""
	f.cashReceived = 0
	f.changeDue = 0
	f.qrisRef = ""
	return f.view(), nil
}

// CloseCheckout discards the payment session entirely. The cart is
// preserved. Not allowed while an order submission is in flight.
func (s *CheckoutService) CloseCheckout(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[sessionID]
	if !ok {
		return ErrNoActiveCheckout
	}
	if f.processing {
		return ErrFlowBusy
	}
	if !domain.CanTransition(f.state, domain.FlowStateClosed) {
		return ErrIllegalTransition
	}

	delete(s.flows, sessionID)
	return nil
}

// --- helpers ---

func (s *CheckoutService) loadCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart == nil {
		cart = domain.NewCart()
	}
	return cart, nil
}

func (s *CheckoutService) ensureNoOpenFlow(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, open := s.flows[sessionID]; open {
		return ErrCheckoutOpen
	}
	return nil
}

func snapshotItems(cart *domain.Cart) []domain.OrderItem {
	lines := cart.Items()
	items := make([]domain.OrderItem, 0, len(lines))
	for _, li := range lines {
		items = append(items, domain.OrderItem{
			ProductID: li.ProductID,
			Name:      li.Product.Name,
			UnitPrice: li.Product.UnitPrice,
			Quantity:  li.Quantity,
			Subtotal:  li.Subtotal(),
		})
	}
	return items
}

func buildPayload(f *flow) domain.OrderPayload {
	items := make([]domain.OrderItem, len(f.items))
	copy(items, f.items)

	details := domain.PaymentDetails{}
	if f.method == domain.PaymentMethodCash {
		details.CashReceived = f.cashReceived
		details.ChangeDue = f.changeDue
	} else {
		details.QrisReference = f.qrisRef
	}

	return domain.OrderPayload{
		IdempotencyKey: f.idemKey,
		Items:          items,
		TotalAmount:    f.total,
		PaymentMethod:  f.method,
		PaymentStatus:  domain.PaymentStatusPending,
		OrderStatus:    domain.OrderStatusPending,
		PaymentDetails: details,
		CustomerInfo:   f.customer,
		OrderDate:      time.Now(),
	}
}

// parseAmount turns user cash input into a non-negative whole currency
// amount. Anything unparseable or negative is treated as zero.
func parseAmount(input string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
