package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kwalram/textile-pos/internal/core/domain"
	"github.com/kwalram/textile-pos/internal/core/service"
)

const (
	totalSessions = 50
	queueSize     = 1024
	qrisDelay     = time.Millisecond
)

// In-memory stand-ins so the state machine can be hammered without any
// backing services.

type memCartStore struct {
	mu    sync.Mutex
	carts map[string][]domain.LineItem
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: make(map[string][]domain.LineItem)}
}

func (m *memCartStore) Load(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.carts[sessionID]
	if !ok {
		return nil, nil
	}
	return domain.RestoreCart(items), nil
}

func (m *memCartStore) Save(_ context.Context, sessionID string, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = cart.Items()
	return nil
}

func (m *memCartStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

func (m *memCartStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.carts)
}

type stubCatalog struct {
	products map[string]domain.Product
}

func (s *stubCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *stubCatalog) CreateProduct(_ context.Context, p domain.Product) (string, error) {
	s.products[p.ID] = p
	return p.ID, nil
}

func (s *stubCatalog) UpdateProduct(_ context.Context, id string, p domain.Product) (bool, error) {
	_, ok := s.products[id]
	if ok {
		p.ID = id
		s.products[id] = p
	}
	return ok, nil
}

func (s *stubCatalog) DeleteProduct(_ context.Context, id string) (bool, error) {
	_, ok := s.products[id]
	delete(s.products, id)
	return ok, nil
}

type stubGateway struct {
	submitted atomic.Int32
}

func (g *stubGateway) SubmitOrder(_ context.Context, payload domain.OrderPayload) (*domain.OrderConfirmation, error) {
	n := g.submitted.Add(1)
	return &domain.OrderConfirmation{
		OrderNumber: fmt.Sprintf("ORD-%d-%s", n, payload.IdempotencyKey[:8]),
	}, nil
}

type stubArtifacts struct{}

func (stubArtifacts) Generate(ctx context.Context, amount int64) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(qrisDelay):
	}
	return fmt.Sprintf("KWALRAM-QRIS-%d", amount), nil
}

func main() {
	ctx := context.Background()

	catalog := &stubCatalog{products: map[string]domain.Product{
		"yarn-01":   {ID: "yarn-01", Name: "Cotton Yarn 40s", UnitPrice: 50000, Category: "yarn"},
		"fabric-01": {ID: "fabric-01", Name: "Woven Fabric Roll", UnitPrice: 275000, Category: "fabric"},
	}}
	carts := newMemCartStore()
	gw := &stubGateway{}

	svc := service.NewCheckoutService(catalog, carts, gw, stubArtifacts{}, nil, queueSize)
	defer svc.Close()

	// Drain the sale queue in background
	var archived atomic.Int32
	go func() {
		for range svc.GetSaleQueue() {
			archived.Add(1)
		}
	}()

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalSessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			sessionID := uuid.NewString()
			if err := runCheckout(ctx, svc, sessionID, n%2 == 0); err != nil {
				failCount.Add(1)
				return
			}
			successCount.Add(1)
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== CHECKOUT STRESS RESULTS ==========")
	fmt.Printf("Total Sessions:   %d\n", totalSessions)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Orders Submitted: %d\n", gw.submitted.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("=============================================")

	if successCount.Load() == totalSessions && carts.len() == 0 {
		fmt.Println("PASS: every session completed and every cart was cleared")
	} else {
		fmt.Printf("FAIL: %d sessions succeeded, %d carts left behind\n",
			successCount.Load(), carts.len())
	}
}

func runCheckout(ctx context.Context, svc *service.CheckoutService, sessionID string, useCash bool) error {
	if _, err := svc.AddItem(ctx, sessionID, "yarn-01"); err != nil {
		return err
	}
	if _, err := svc.AddItem(ctx, sessionID, "yarn-01"); err != nil {
		return err
	}
	if _, err := svc.AddItem(ctx, sessionID, "fabric-01"); err != nil {
		return err
	}

	view, err := svc.OpenCheckout(ctx, sessionID, domain.CustomerInfo{Name: "stress"})
	if err != nil {
		return err
	}

	if useCash {
		if _, err := svc.SelectMethod(ctx, sessionID, domain.PaymentMethodCash); err != nil {
			return err
		}
		if _, err := svc.EnterCash(sessionID, fmt.Sprintf("%d", view.Total+5000)); err != nil {
			return err
		}
	} else {
		if _, err := svc.SelectMethod(ctx, sessionID, domain.PaymentMethodQris); err != nil {
			return err
		}
	}

	_, err = svc.Confirm(ctx, sessionID)
	return err
}
