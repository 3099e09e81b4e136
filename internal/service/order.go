package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/pricing"
	"github.com/linemk/gamekeys-shop/internal/storage"
	"github.com/shopspring/decimal"
)

// DefaultMinTransactionIDLength - минимальная длина UPI transaction id
const DefaultMinTransactionIDLength = 12

// Notifier - канал связи с оператором, который вручную проверяет перевод
type Notifier interface {
	NotifyHuman(ctx context.Context, message string) error
	// Link - ссылка, по которой клиент может сам отправить сообщение оператору
	Link(message string) string
}

// StatusPublisher получает изменения статусов заказов
type StatusPublisher interface {
	Publish(view models.OrderStatusView)
}

// Confirmation - результат подтверждения оплаты
type Confirmation struct {
	Order     *models.Order
	Message   string
	NotifyURL string
	// Replayed - повторная отправка того же transaction id, ничего не изменилось
	Replayed bool
}

type OrderService interface {
	// CreateOrder фиксирует заказ по переданному снимку корзины.
	CreateOrder(ctx context.Context, sess *models.Session, billing models.Billing, cart models.Cart, clientTotal *decimal.Decimal) (*models.Order, error)
	// Checkout загружает корзину сессии и создаёт по ней заказ.
	Checkout(ctx context.Context, sess *models.Session, billing models.Billing, clientTotal *decimal.Decimal) (*models.Order, error)
	ConfirmPayment(ctx context.Context, sess *models.Session, orderID uuid.UUID, transactionID string) (*Confirmation, error)
	ListOrders(ctx context.Context, sess *models.Session) ([]*models.Order, error)
}

type orderService struct {
	log       *slog.Logger
	db        *sql.DB
	orderRepo storage.OrderStorage
	cartRepo  storage.CartStorage
	notifier  Notifier
	publisher StatusPublisher
	minTxLen  int
}

func NewOrderService(
	log *slog.Logger,
	db *sql.DB,
	orderRepo storage.OrderStorage,
	cartRepo storage.CartStorage,
	notifier Notifier,
	publisher StatusPublisher,
	minTxLen int,
) OrderService {
	if minTxLen <= 0 {
		minTxLen = DefaultMinTransactionIDLength
	}
	return &orderService{
		log:       log,
		db:        db,
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		notifier:  notifier,
		publisher: publisher,
		minTxLen:  minTxLen,
	}
}

// CreateOrder создаёт заказ в статусе pending.
// Сумма заказа считается на сервере и больше никогда не пересчитывается.
// Корзина не очищается: брошенный заказ не должен терять корзину.
func (s *orderService) CreateOrder(ctx context.Context, sess *models.Session, billing models.Billing, cart models.Cart, clientTotal *decimal.Decimal) (*models.Order, error) {
	const op = "service.OrderService.CreateOrder"
	if sess == nil {
		return nil, ErrUnauthenticated
	}
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", sess.UserID))

	if cart.IsEmpty() {
		logger.Warn("attempt to create order from empty cart")
		return nil, ErrEmptyCart
	}

	total := pricing.CartTotals(pricingLines(cart.Items)).Subtotal
	if clientTotal != nil && !clientTotal.Equal(total) {
		logger.Warn("client total differs from cart",
			slog.String("client_total", clientTotal.String()),
			slog.String("total", total.String()))
		return nil, fmt.Errorf("%s: %w: expected %s", op, ErrTotalMismatch, total.String())
	}

	order := &models.Order{
		ID:          uuid.New(),
		UserID:      sess.UserID,
		Billing:     billing,
		TotalAmount: total,
		Status:      models.OrderStatusPending,
		Items:       orderItems(cart.Items),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}

	if err := s.orderRepo.CreateOrderTx(ctx, tx, order); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}

	if err := s.orderRepo.CreateOrderItemsTx(ctx, tx, order.ID, order.Items); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order items", slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}

	logger.Info("order created", slog.String("orderID", order.ID.String()), slog.String("total", total.String()))
	return order, nil
}

func (s *orderService) Checkout(ctx context.Context, sess *models.Session, billing models.Billing, clientTotal *decimal.Decimal) (*models.Order, error) {
	store := NewCartStore(s.log, s.db, s.cartRepo, sess)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	return s.CreateOrder(ctx, sess, billing, store.Snapshot(), clientTotal)
}

// ConfirmPayment записывает transaction id и переводит заказ pending -> paid.
// Первое подтверждение побеждает. Повтор с тем же id - не ошибка, с другим - ErrAlreadyConfirmed.
func (s *orderService) ConfirmPayment(ctx context.Context, sess *models.Session, orderID uuid.UUID, transactionID string) (*Confirmation, error) {
	const op = "service.OrderService.ConfirmPayment"
	if sess == nil {
		return nil, ErrUnauthenticated
	}

	transactionID = strings.TrimSpace(transactionID)
	if utf8.RuneCountInString(transactionID) < s.minTxLen {
		return nil, fmt.Errorf("%s: %w: must be at least %d characters", op, ErrInvalidTransactionID, s.minTxLen)
	}

	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("userID", sess.UserID),
		slog.String("orderID", orderID.String()),
	)

	order, err := s.orderRepo.ConfirmPayment(ctx, orderID, sess.UserID, transactionID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrOrderNotPending):
		return s.resolveConfirmed(ctx, logger, sess, orderID, transactionID)
	case errors.Is(err, storage.ErrTransactionIDInUse):
		logger.Warn("transaction id already used by another order")
		return nil, ErrTransactionIDInUse
	default:
		logger.Error("failed to confirm payment", slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}

	// заказ уже paid; сбои ниже не откатывают подтверждение, только логируются
	if err := NewCartStore(s.log, s.db, s.cartRepo, sess).ClearCart(ctx); err != nil {
		logger.Error("failed to clear cart after payment", slog.Any("error", err))
	}

	message := paymentMessage(order)
	if err := s.notifier.NotifyHuman(ctx, message); err != nil {
		logger.Error("failed to notify operator", slog.Any("error", err))
	}

	if s.publisher != nil {
		s.publisher.Publish(order.StatusView())
	}

	logger.Info("payment submitted")
	return &Confirmation{
		Order:     order,
		Message:   message,
		NotifyURL: s.notifier.Link(message),
	}, nil
}

// resolveConfirmed разбирает, почему условный UPDATE ничего не обновил
func (s *orderService) resolveConfirmed(ctx context.Context, logger *slog.Logger, sess *models.Session, orderID uuid.UUID, transactionID string) (*Confirmation, error) {
	const op = "service.OrderService.ConfirmPayment"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("failed to read order", slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}

	// чужой заказ не отличаем от несуществующего
	if order.UserID != sess.UserID {
		logger.Warn("attempt to confirm foreign order")
		return nil, ErrOrderNotFound
	}

	if order.TransactionID == nil {
		logger.Error("order is not pending but has no transaction id", slog.String("status", string(order.Status)))
		return nil, persistenceErr(op, errors.New("order state is inconsistent"))
	}

	if *order.TransactionID != transactionID {
		logger.Warn("order already confirmed with another transaction id")
		return nil, ErrAlreadyConfirmed
	}

	logger.Info("repeated payment confirmation ignored")
	message := paymentMessage(order)
	return &Confirmation{
		Order:     order,
		Message:   message,
		NotifyURL: s.notifier.Link(message),
		Replayed:  true,
	}, nil
}

func (s *orderService) ListOrders(ctx context.Context, sess *models.Session) ([]*models.Order, error) {
	const op = "service.OrderService.ListOrders"
	if sess == nil {
		return nil, ErrUnauthenticated
	}

	orders, err := s.orderRepo.ListOrdersByUserID(ctx, sess.UserID)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}
	return orders, nil
}

// paymentMessage - сообщение оператору для ручной сверки перевода
func paymentMessage(order *models.Order) string {
	txID := ""
	if order.TransactionID != nil {
		txID = *order.TransactionID
	}
	return fmt.Sprintf("Payment Submitted\nOrder ID: %s\nName: %s\nEmail: %s\nTransaction ID: %s\nAmount: ₹%s",
		order.ID, order.Billing.Name, order.Billing.Email, txID, order.TotalAmount.String())
}

func orderItems(lines []models.CartLine) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.OrderItem{
			GameID:    l.GameID,
			Title:     l.Game.Title,
			UnitPrice: l.Game.Price,
			Quantity:  l.Quantity,
		})
	}
	return items
}
