package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus - состояние заказа: pending -> paid -> completed
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // заказ создан, оплаты ещё нет
	OrderStatusPaid      OrderStatus = "paid"      // покупатель прислал transaction id
	OrderStatusCompleted OrderStatus = "completed" // оператор проверил перевод и выдал ключи
)

// ErrInvalidOrderStatus - в хранилище лежит статус, которого не существует
var ErrInvalidOrderStatus = errors.New("invalid order status")

// ParseOrderStatus разбирает статус из хранилища. Неизвестное значение - ошибка целостности данных,
// молча подменять его нельзя.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderStatus, s)
	}
}

// Billing - платёжные данные покупателя
type Billing struct {
	Name    string `json:"billing_name"`
	Email   string `json:"billing_email"`
	Address string `json:"billing_address"`
	City    string `json:"billing_city"`
	Zip     string `json:"billing_zip"`
}

// Order - финансовая запись. TotalAmount фиксируется при создании и больше не пересчитывается.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	UserID        int64           `json:"user_id"`
	Billing       Billing         `json:"billing"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	Items         []OrderItem     `json:"items,omitempty"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// OrderItem - снимок строки корзины на момент создания заказа
type OrderItem struct {
	ID        int64           `json:"id"`
	GameID    int64           `json:"game_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// OrderStatusView - публичное представление заказа без платёжных данных и transaction id
type OrderStatusView struct {
	ID          uuid.UUID       `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
}

// StatusView возвращает публичное представление заказа
func (o *Order) StatusView() OrderStatusView {
	return OrderStatusView{
		ID:          o.ID,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
	}
}
