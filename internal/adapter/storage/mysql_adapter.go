package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kwalram/textile-pos/internal/core/domain"
)

// MySQLSalesRepository archives completed checkouts for reporting.
type MySQLSalesRepository struct {
	db *sql.DB
}

func NewMySQLSalesRepository(db *sql.DB) *MySQLSalesRepository {
	return &MySQLSalesRepository{db: db}
}

func (m *MySQLSalesRepository) RecordSale(ctx context.Context, sale domain.Sale) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO sales (id, order_number, total_amount, payment_method, customer_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.OrderNumber, sale.TotalAmount, sale.PaymentMethod,
		sale.CustomerName, sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (m *MySQLSalesRepository) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, order_number, total_amount, payment_method, customer_name, created_at
		FROM sales ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var s domain.Sale
		if err := rows.Scan(&s.ID, &s.OrderNumber, &s.TotalAmount, &s.PaymentMethod,
			&s.CustomerName, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}

func (m *MySQLSalesRepository) Summarize(ctx context.Context) (*domain.SalesSummary, error) {
	var sum domain.SalesSummary
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_amount), 0),
		       COALESCE(SUM(CASE WHEN payment_method = 'cash' THEN total_amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN payment_method = 'qris' THEN total_amount ELSE 0 END), 0)
		FROM sales`,
	).Scan(&sum.OrderCount, &sum.TotalRevenue, &sum.CashRevenue, &sum.QrisRevenue)
	if err != nil {
		return nil, fmt.Errorf("summarize sales: %w", err)
	}
	return &sum, nil
}
