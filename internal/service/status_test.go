package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/service"
	"github.com/linemk/gamekeys-shop/internal/statusfeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusService_GetStatus(t *testing.T) {
	orders := newFakeOrderRepo()
	tx := "UPI2024110599"
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        1,
		Billing:       billing,
		TotalAmount:   dec("499"),
		TransactionID: &tx,
		Status:        models.OrderStatusPaid,
	}
	orders.seed(order)

	svc := service.NewStatusService(testLogger(), orders, statusfeed.NewHub())

	view, err := svc.GetStatus(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusView{ID: order.ID, TotalAmount: dec("499"), Status: models.OrderStatusPaid}, *view)
}

func TestStatusService_GetStatus_NotFound(t *testing.T) {
	svc := service.NewStatusService(testLogger(), newFakeOrderRepo(), statusfeed.NewHub())

	_, err := svc.GetStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}

func TestStatusService_GetStatus_StorageFailure(t *testing.T) {
	orders := newFakeOrderRepo()
	orders.getErr = errors.New("connection reset")
	svc := service.NewStatusService(testLogger(), orders, statusfeed.NewHub())

	_, err := svc.GetStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrPersistence)
}

func TestStatusService_Subscribe_ReceivesPaymentAndCompletion(t *testing.T) {
	f := newOrderFixture(t)
	hub := statusfeed.NewHub()
	f.svc = service.NewOrderService(testLogger(), nil, f.orders, f.carts, f.notifier, hub, 12)

	order := &models.Order{ID: uuid.New(), UserID: buyer.UserID, TotalAmount: dec("499"), Status: models.OrderStatusPending}
	f.orders.seed(order)

	statusSvc := service.NewStatusService(testLogger(), f.orders, hub)
	ctx := context.Background()

	current, updates, cancel, err := statusSvc.Subscribe(ctx, order.ID)
	require.NoError(t, err)
	defer cancel()
	assert.Equal(t, models.OrderStatusPending, current.Status)

	_, err = f.svc.ConfirmPayment(ctx, buyer, order.ID, "UPI2024110599")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, (<-updates).Status)

	_, err = service.NewAdminService(testLogger(), f.orders, hub).CompleteOrder(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, (<-updates).Status)
}

func TestStatusService_Subscribe_NotFoundUnsubscribes(t *testing.T) {
	hub := statusfeed.NewHub()
	svc := service.NewStatusService(testLogger(), newFakeOrderRepo(), hub)
	id := uuid.New()

	_, _, _, err := svc.Subscribe(context.Background(), id)
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
	assert.Equal(t, 0, hub.Subscribers(id))
}
