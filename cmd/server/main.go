package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kwalram/textile-pos/internal/adapter/events"
	"github.com/kwalram/textile-pos/internal/adapter/gateway"
	"github.com/kwalram/textile-pos/internal/adapter/handler"
	"github.com/kwalram/textile-pos/internal/adapter/storage"
	"github.com/kwalram/textile-pos/internal/core/domain"
	"github.com/kwalram/textile-pos/internal/core/service"
	"github.com/kwalram/textile-pos/internal/port"
)

const (
	defaultHTTPAddr      = ":8080"
	defaultMongoURI      = "mongodb://localhost:27017"
	defaultMongoDatabase = "kwalram"
	defaultMySQLDSN      = "root:root@tcp(localhost:3306)/kwalram?parseTime=true"
	defaultRedisAddr     = "localhost:6379"
	defaultOrderBaseURL  = "http://localhost:9090"

	submitTimeout = 15 * time.Second
	qrisDelay     = 1 * time.Second
	workerCount   = 4
	queueSize     = 1024
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Mongo holds the product catalog
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(getEnv("MONGODB_URI", defaultMongoURI)))
	if err != nil {
		log.Fatalf("failed to connect mongo: %v", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("failed to ping mongo: %v", err)
	}
	log.Println("connected to mongo")
	catalog := storage.NewMongoCatalogRepository(mongoClient.Database(getEnv("MONGODB_DB", defaultMongoDatabase)))

	// Redis holds the per-session carts
	rdb := redis.NewClient(&redis.Options{Addr: getEnv("REDIS_ADDR", defaultRedisAddr)})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")
	carts := storage.NewRedisCartStore(rdb)

	// MySQL holds the sales archive for reporting
	db, err := sql.Open("mysql", getEnv("MYSQL_DSN", defaultMySQLDSN))
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")
	sales := storage.NewMySQLSalesRepository(db)

	orderClient := gateway.NewOrderClient(getEnv("ORDER_SERVICE_URL", defaultOrderBaseURL), submitTimeout)
	qris := gateway.NewSimulatedQrisGenerator(qrisDelay)

	// RabbitMQ is optional: without a broker the service runs with
	// events disabled.
	var publisher *events.RabbitOrderEventsPublisher
	var eventPublisher port.EventPublisher
	if amqpURL := os.Getenv("RABBITMQ_URL"); amqpURL != "" {
		conn, err := amqp.Dial(amqpURL)
		if err != nil {
			log.Fatalf("failed to connect rabbitmq: %v", err)
		}
		defer conn.Close()

		publisher, err = events.NewRabbitOrderEventsPublisher(conn)
		if err != nil {
			log.Fatalf("failed to create order events publisher: %v", err)
		}
		eventPublisher = publisher
		log.Println("connected to rabbitmq")
	} else {
		log.Println("RABBITMQ_URL not set, order events disabled")
	}

	checkout := service.NewCheckoutService(catalog, carts, orderClient, qris, eventPublisher, queueSize)

	// Archive workers drain completed checkouts into MySQL
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			archiveLoop(id, checkout.GetSaleQueue(), sales)
		}(i)
	}
	log.Printf("started %d archive workers", workerCount)

	httpHandler := handler.NewHTTPHandler(checkout, catalog, sales)
	httpServer := &http.Server{
		Addr:         getEnv("HTTP_ADDR", defaultHTTPAddr),
		Handler:      handler.NewRouter(httpHandler),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	// Close the sale queue and wait for the archive workers to drain it
	checkout.Close()
	wg.Wait()
	log.Println("archive workers stopped")

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Printf("publisher close error: %v", err)
		}
	}
	rdb.Close()
	db.Close()
	mongoClient.Disconnect(shutdownCtx)
	log.Println("connections closed")
}

func archiveLoop(id int, queue <-chan domain.Sale, sales port.SalesRepository) {
	for sale := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := sales.RecordSale(ctx, sale); err != nil {
			log.Printf("worker %d: failed to archive sale %s (order %s): %v",
				id, sale.ID, sale.OrderNumber, err)
		} else {
			log.Printf("worker %d: archived order %s", id, sale.OrderNumber)
		}

		cancel()
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
