package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = &models.Session{UserID: 100, Role: models.RoleAdmin}

func seedPaid(repo *fakeOrderRepo, userID int64, createdAt time.Time) *models.Order {
	tx := uuid.NewString()
	o := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		TotalAmount:   dec("499"),
		TransactionID: &tx,
		Status:        models.OrderStatusPaid,
		CreatedAt:     createdAt,
	}
	repo.seed(o)
	return o
}

func TestAdminService_RequiresAdmin(t *testing.T) {
	svc := service.NewAdminService(testLogger(), newFakeOrderRepo(), nil)
	ctx := context.Background()

	_, err := svc.ListOrders(ctx, nil, nil)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	_, err = svc.ListOrders(ctx, buyer, nil)
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = svc.CompleteOrder(ctx, buyer, uuid.New())
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestAdminService_ListOrders_FilterByStatus(t *testing.T) {
	repo := newFakeOrderRepo()
	now := time.Now()
	seedPaid(repo, 1, now.Add(-time.Hour))
	latest := seedPaid(repo, 2, now)
	repo.seed(&models.Order{ID: uuid.New(), UserID: 3, Status: models.OrderStatusPending, CreatedAt: now})

	svc := service.NewAdminService(testLogger(), repo, nil)

	all, err := svc.ListOrders(context.Background(), admin, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	paid := models.OrderStatusPaid
	onlyPaid, err := svc.ListOrders(context.Background(), admin, &paid)
	require.NoError(t, err)
	require.Len(t, onlyPaid, 2)
	assert.Equal(t, latest.ID, onlyPaid[0].ID, "newest first")
}

func TestAdminService_CompleteOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	order := seedPaid(repo, 1, time.Now())
	publisher := &fakePublisher{}

	svc := service.NewAdminService(testLogger(), repo, publisher)
	completed, err := svc.CompleteOrder(context.Background(), admin, order.ID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	assert.Equal(t, *order.TransactionID, *completed.TransactionID)
	require.Len(t, publisher.views, 1)
	assert.Equal(t, models.OrderStatusCompleted, publisher.views[0].Status)
}

func TestAdminService_CompleteOrder_InvalidTransition(t *testing.T) {
	repo := newFakeOrderRepo()
	pending := &models.Order{ID: uuid.New(), UserID: 1, Status: models.OrderStatusPending}
	repo.seed(pending)
	done := seedPaid(repo, 1, time.Now())

	svc := service.NewAdminService(testLogger(), repo, nil)
	ctx := context.Background()

	_, err := svc.CompleteOrder(ctx, admin, pending.ID)
	assert.ErrorIs(t, err, service.ErrInvalidTransition, "pending orders cannot skip payment")

	_, err = svc.CompleteOrder(ctx, admin, done.ID)
	require.NoError(t, err)
	_, err = svc.CompleteOrder(ctx, admin, done.ID)
	assert.ErrorIs(t, err, service.ErrInvalidTransition, "completed is terminal")

	_, err = svc.CompleteOrder(ctx, admin, uuid.New())
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}
