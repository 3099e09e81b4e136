package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/storage"
)

// AdminService - операции оператора магазина над заказами
type AdminService interface {
	ListOrders(ctx context.Context, sess *models.Session, status *models.OrderStatus) ([]*models.Order, error)
	// CompleteOrder переводит оплаченный заказ в completed после ручной проверки перевода.
	CompleteOrder(ctx context.Context, sess *models.Session, orderID uuid.UUID) (*models.Order, error)
}

type adminService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
	publisher StatusPublisher
}

func NewAdminService(log *slog.Logger, orderRepo storage.OrderStorage, publisher StatusPublisher) AdminService {
	return &adminService{log: log, orderRepo: orderRepo, publisher: publisher}
}

func requireAdmin(sess *models.Session) error {
	if sess == nil {
		return ErrUnauthenticated
	}
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (s *adminService) ListOrders(ctx context.Context, sess *models.Session, status *models.OrderStatus) ([]*models.Order, error) {
	const op = "service.AdminService.ListOrders"
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListOrders(ctx, status)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}
	return orders, nil
}

func (s *adminService) CompleteOrder(ctx context.Context, sess *models.Session, orderID uuid.UUID) (*models.Order, error) {
	const op = "service.AdminService.CompleteOrder"
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	logger := s.log.With(slog.String("op", op), slog.String("orderID", orderID.String()), slog.Int64("adminID", sess.UserID))

	order, err := s.orderRepo.CompleteOrder(ctx, orderID)
	if err != nil {
		if !errors.Is(err, storage.ErrOrderNotPaid) {
			logger.Error("failed to complete order", slog.Any("error", err))
			return nil, persistenceErr(op, err)
		}

		existing, getErr := s.orderRepo.GetOrderByID(ctx, orderID)
		if getErr != nil {
			if errors.Is(getErr, storage.ErrOrderNotFound) {
				return nil, ErrOrderNotFound
			}
			logger.Error("failed to read order", slog.Any("error", getErr))
			return nil, persistenceErr(op, getErr)
		}
		logger.Warn("order cannot be completed", slog.String("status", string(existing.Status)))
		return nil, ErrInvalidTransition
	}

	if s.publisher != nil {
		s.publisher.Publish(order.StatusView())
	}

	logger.Info("order completed")
	return order, nil
}
