package tests

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kwalram/textile-pos/internal/adapter/gateway"
	"github.com/kwalram/textile-pos/internal/adapter/storage"
	"github.com/kwalram/textile-pos/internal/core/domain"
	"github.com/kwalram/textile-pos/internal/core/service"
	"github.com/kwalram/textile-pos/internal/port"
)

type testEnv struct {
	redis   *redis.Client
	mysql   *sql.DB
	carts   *storage.RedisCartStore
	sales   *storage.MySQLSalesRepository
	cleanup func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/kwalram?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sales (
			id             VARCHAR(36)  NOT NULL PRIMARY KEY,
			order_number   VARCHAR(64)  NOT NULL,
			total_amount   BIGINT       NOT NULL,
			payment_method VARCHAR(16)  NOT NULL,
			customer_name  VARCHAR(255) NOT NULL,
			created_at     DATETIME     NOT NULL
		)`)
	if err != nil {
		t.Fatalf("create sales table: %v", err)
	}

	return &testEnv{
		redis: rdb,
		mysql: db,
		carts: storage.NewRedisCartStore(rdb),
		sales: storage.NewMySQLSalesRepository(db),
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

type memCatalog struct {
	products map[string]domain.Product
}

func (m *memCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memCatalog) CreateProduct(_ context.Context, p domain.Product) (string, error) {
	m.products[p.ID] = p
	return p.ID, nil
}

func (m *memCatalog) UpdateProduct(_ context.Context, id string, p domain.Product) (bool, error) {
	_, ok := m.products[id]
	if ok {
		p.ID = id
		m.products[id] = p
	}
	return ok, nil
}

func (m *memCatalog) DeleteProduct(_ context.Context, id string) (bool, error) {
	_, ok := m.products[id]
	delete(m.products, id)
	return ok, nil
}

// orderServer is a stand-in order service recording every submission.
type orderServer struct {
	mu       sync.Mutex
	idemKeys []string
	failNext int
	orders   int
}

func (o *orderServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		o.idemKeys = append(o.idemKeys, r.Header.Get("Idempotency-Key"))
		fail := o.failNext > 0
		if fail {
			o.failNext--
		} else {
			o.orders++
		}
		n := o.orders
		o.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":     true,
			"orderNumber": fmt.Sprintf("ORD-IT-%03d", n),
		})
	}
}

func (o *orderServer) keys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.idemKeys))
	copy(out, o.idemKeys)
	return out
}

func TestIntegration_FullCashCheckout(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	sessionID := "it-cash-" + uuid.NewString()

	orderSrv := &orderServer{}
	srv := httptest.NewServer(orderSrv.handler())
	defer srv.Close()

	catalog := &memCatalog{products: map[string]domain.Product{
		"yarn-01":   {ID: "yarn-01", Name: "Cotton Yarn 40s", UnitPrice: 50000, Category: "yarn"},
		"fabric-01": {ID: "fabric-01", Name: "Woven Fabric Roll", UnitPrice: 275000, Category: "fabric"},
	}}

	svc := service.NewCheckoutService(
		catalog,
		env.carts,
		gateway.NewOrderClient(srv.URL, 5*time.Second),
		gateway.NewSimulatedQrisGenerator(time.Millisecond),
		nil,
		100,
	)

	// Start archive workers
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			archiveLoop(svc.GetSaleQueue(), env.sales)
		}()
	}

	// Build the cart
	if _, err := svc.AddItem(ctx, sessionID, "yarn-01"); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.AddItem(ctx, sessionID, "yarn-01"); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.AddItem(ctx, sessionID, "fabric-01"); err != nil {
		t.Fatalf("add item: %v", err)
	}

	// Cart survives a reload from Redis
	cart, err := env.carts.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if cart == nil || cart.Total() != 375000 {
		t.Fatalf("expected persisted cart with total 375000, got %+v", cart)
	}

	// Pay with cash
	view, err := svc.OpenCheckout(ctx, sessionID, domain.CustomerInfo{Name: "Budi"})
	if err != nil {
		t.Fatalf("open checkout: %v", err)
	}
	if view.Total != 375000 {
		t.Fatalf("expected checkout total 375000, got %d", view.Total)
	}
	if _, err := svc.SelectMethod(ctx, sessionID, domain.PaymentMethodCash); err != nil {
		t.Fatalf("select cash: %v", err)
	}
	if _, err := svc.EnterCash(sessionID, "400000"); err != nil {
		t.Fatalf("enter cash: %v", err)
	}

	conf, err := svc.Confirm(ctx, sessionID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Close service and wait for the archive workers
	svc.Close()
	wg.Wait()

	// Verify the cart key is gone from Redis
	if n, _ := env.redis.Exists(ctx, "cart:"+sessionID).Result(); n != 0 {
		t.Errorf("expected cart key deleted, still present")
	}

	// Verify the sale landed in MySQL
	var total int64
	var method string
	err = env.mysql.QueryRowContext(ctx,
		`SELECT total_amount, payment_method FROM sales WHERE order_number = ?`,
		conf.OrderNumber,
	).Scan(&total, &method)
	if err != nil {
		t.Fatalf("sale not archived: %v", err)
	}
	if total != 375000 || method != "cash" {
		t.Errorf("archived sale mismatch: total=%d method=%s", total, method)
	}

	// Cleanup
	env.mysql.ExecContext(ctx, `DELETE FROM sales WHERE order_number = ?`, conf.OrderNumber)
}

func TestIntegration_RetryReusesIdempotencyKey(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	sessionID := "it-retry-" + uuid.NewString()

	orderSrv := &orderServer{failNext: 1}
	srv := httptest.NewServer(orderSrv.handler())
	defer srv.Close()

	catalog := &memCatalog{products: map[string]domain.Product{
		"yarn-01": {ID: "yarn-01", Name: "Cotton Yarn 40s", UnitPrice: 50000, Category: "yarn"},
	}}

	svc := service.NewCheckoutService(
		catalog,
		env.carts,
		gateway.NewOrderClient(srv.URL, 5*time.Second),
		gateway.NewSimulatedQrisGenerator(time.Millisecond),
		nil,
		100,
	)
	defer svc.Close()

	go func() {
		for range svc.GetSaleQueue() {
		}
	}()

	if _, err := svc.AddItem(ctx, sessionID, "yarn-01"); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := svc.OpenCheckout(ctx, sessionID, domain.CustomerInfo{}); err != nil {
		t.Fatalf("open checkout: %v", err)
	}
	if _, err := svc.SelectMethod(ctx, sessionID, domain.PaymentMethodQris); err != nil {
		t.Fatalf("select qris: %v", err)
	}

	// First attempt hits the failing order service
	if _, err := svc.Confirm(ctx, sessionID); err == nil {
		t.Fatal("expected first confirm to fail")
	}

	// Retry succeeds
	if _, err := svc.Confirm(ctx, sessionID); err != nil {
		t.Fatalf("retry confirm: %v", err)
	}

	keys := orderSrv.keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(keys))
	}
	if keys[0] == "" || keys[0] != keys[1] {
		t.Errorf("expected identical idempotency keys, got %q and %q", keys[0], keys[1])
	}

	// Cleanup
	env.redis.Del(ctx, "cart:"+sessionID)
}

func archiveLoop(queue <-chan domain.Sale, sales port.SalesRepository) {
	for sale := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		sales.RecordSale(ctx, sale)
		cancel()
	}
}
