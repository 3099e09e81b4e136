package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/storage"
)

// StatusFeed - подписка на изменения статусов заказов
type StatusFeed interface {
	StatusPublisher
	Subscribe(orderID uuid.UUID) (<-chan models.OrderStatusView, func())
}

// StatusService - публичный просмотр статуса заказа без авторизации.
// Наружу отдаются только id, сумма и статус.
type StatusService interface {
	GetStatus(ctx context.Context, orderID uuid.UUID) (*models.OrderStatusView, error)
	// Subscribe возвращает текущий статус и канал последующих изменений.
	// cancel нужно вызвать всегда, когда подписка больше не нужна.
	Subscribe(ctx context.Context, orderID uuid.UUID) (current *models.OrderStatusView, updates <-chan models.OrderStatusView, cancel func(), err error)
}

type statusService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
	feed      StatusFeed
}

func NewStatusService(log *slog.Logger, orderRepo storage.OrderStorage, feed StatusFeed) StatusService {
	return &statusService{log: log, orderRepo: orderRepo, feed: feed}
}

func (s *statusService) GetStatus(ctx context.Context, orderID uuid.UUID) (*models.OrderStatusView, error) {
	const op = "service.StatusService.GetStatus"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		s.log.Error("failed to get order", slog.String("op", op), slog.String("orderID", orderID.String()), slog.Any("error", err))
		return nil, persistenceErr(op, err)
	}

	view := order.StatusView()
	return &view, nil
}

func (s *statusService) Subscribe(ctx context.Context, orderID uuid.UUID) (*models.OrderStatusView, <-chan models.OrderStatusView, func(), error) {
	// подписываемся до чтения, чтобы не пропустить изменение между ними
	updates, cancel := s.feed.Subscribe(orderID)

	view, err := s.GetStatus(ctx, orderID)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return view, updates, cancel, nil
}
