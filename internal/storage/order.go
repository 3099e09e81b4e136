package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет новый заказ в таблицу orders с использованием транзакции.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error
	// CreateOrderItemsTx сохраняет снимок строк корзины для заказа.
	CreateOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, items []models.OrderItem) error
	// GetOrderByID возвращает заказ без строк.
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// GetOrderItems возвращает строки заказа.
	GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	// ConfirmPayment атомарно переводит заказ pending -> paid, если он принадлежит userID
	// и transaction id ещё не записан.
	ConfirmPayment(ctx context.Context, id uuid.UUID, userID int64, transactionID string) (*models.Order, error)
	// CompleteOrder атомарно переводит заказ paid -> completed.
	CompleteOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// ListOrdersByUserID возвращает заказы пользователя, новые первыми.
	ListOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	// ListOrders возвращает все заказы с необязательным фильтром по статусу.
	ListOrders(ctx context.Context, status *models.OrderStatus) ([]*models.Order, error)
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, billing_name, billing_email, billing_address, billing_city, billing_zip,
	total_amount, transaction_id, status, created_at, paid_at, completed_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	var (
		txID   sql.NullString
		status string
		paid   sql.NullTime
		done   sql.NullTime
	)
	if err := row.Scan(&order.ID, &order.UserID,
		&order.Billing.Name, &order.Billing.Email, &order.Billing.Address, &order.Billing.City, &order.Billing.Zip,
		&order.TotalAmount, &txID, &status, &order.CreatedAt, &paid, &done); err != nil {
		return nil, err
	}

	st, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	order.Status = st

	if txID.Valid {
		order.TransactionID = &txID.String
	}
	if paid.Valid {
		order.PaidAt = &paid.Time
	}
	if done.Valid {
		order.CompletedAt = &done.Time
	}
	return order, nil
}

// CreateOrderTx вставляет новый заказ в статусе pending без transaction id.
func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := `INSERT INTO orders (id, user_id, billing_name, billing_email, billing_address, billing_city, billing_zip,
	          total_amount, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()) RETURNING created_at`
	err := tx.QueryRowContext(ctx, query,
		order.ID, order.UserID,
		order.Billing.Name, order.Billing.Email, order.Billing.Address, order.Billing.City, order.Billing.Zip,
		order.TotalAmount, string(models.OrderStatusPending),
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) CreateOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, items []models.OrderItem) error {
	query := `INSERT INTO order_items (order_id, game_id, title, unit_price, quantity)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for i := range items {
		it := &items[i]
		if err := tx.QueryRowContext(ctx, query, orderID, it.GameID, it.Title, it.UnitPrice, it.Quantity).Scan(&it.ID); err != nil {
			return fmt.Errorf("failed to insert order item %d: %w", i, err)
		}
	}
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, game_id, title, unit_price, quantity FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.GameID, &it.Title, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ConfirmPayment - условный UPDATE: из двух одновременных подтверждений пройдёт только одно.
// Если ни одна строка не обновилась, возвращается ErrOrderNotPending, и вызывающий сам
// перечитывает заказ, чтобы понять причину.
func (r *orderRepository) ConfirmPayment(ctx context.Context, id uuid.UUID, userID int64, transactionID string) (*models.Order, error) {
	query := `UPDATE orders SET transaction_id = $1, status = 'paid', paid_at = NOW()
	          WHERE id = $2 AND user_id = $3 AND status = 'pending' AND transaction_id IS NULL
	          RETURNING ` + orderColumns
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, transactionID, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotPending
		}
		if IsUniqueViolation(err) {
			return nil, ErrTransactionIDInUse
		}
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}
	return order, nil
}

func (r *orderRepository) CompleteOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `UPDATE orders SET status = 'completed', completed_at = NOW()
	          WHERE id = $1 AND status = 'paid'
	          RETURNING ` + orderColumns
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotPaid
		}
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) ListOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	return r.queryOrders(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
}

func (r *orderRepository) ListOrders(ctx context.Context, status *models.OrderStatus) ([]*models.Order, error) {
	if status != nil {
		return r.queryOrders(ctx, "SELECT "+orderColumns+" FROM orders WHERE status = $1 ORDER BY created_at DESC", string(*status))
	}
	return r.queryOrders(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
