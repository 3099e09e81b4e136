package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/linemk/gamekeys-shop/internal/config"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/service"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest - платёжные данные и сумма, которую видел покупатель
type CreateOrderRequest struct {
	BillingName    string           `json:"billing_name" validate:"required,max=200"`
	BillingEmail   string           `json:"billing_email" validate:"required,email"`
	BillingAddress string           `json:"billing_address" validate:"required,max=500"`
	BillingCity    string           `json:"billing_city" validate:"required,max=100"`
	BillingZip     string           `json:"billing_zip" validate:"required,max=20"`
	TotalPrice     *decimal.Decimal `json:"total_price"`
}

// PaymentInstructions - куда переводить деньги через UPI
type PaymentInstructions struct {
	UPIID    string          `json:"upi_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type CreateOrderResponse struct {
	*models.Order
	Payment PaymentInstructions `json:"payment"`
}

type ConfirmPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required,max=64"`
}

type ConfirmPaymentResponse struct {
	ID            uuid.UUID          `json:"id"`
	Status        models.OrderStatus `json:"status"`
	TransactionID string             `json:"transaction_id"`
	NotifyURL     string             `json:"notify_url"`
	Message       string             `json:"message"`
	Replayed      bool               `json:"replayed"`
}

func orderID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// CreateOrderHandler обрабатывает POST /api/orders
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService, payment config.PaymentConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		var req CreateOrderRequest
		if !decodeAndValidate(logger, w, r, &req) {
			return
		}

		billing := models.Billing{
			Name:    req.BillingName,
			Email:   req.BillingEmail,
			Address: req.BillingAddress,
			City:    req.BillingCity,
			Zip:     req.BillingZip,
		}

		order, err := orderService.Checkout(r.Context(), sessionFrom(r), billing, req.TotalPrice)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateOrderResponse{
			Order: order,
			Payment: PaymentInstructions{
				UPIID:    payment.UPIID,
				Amount:   order.TotalAmount,
				Currency: payment.Currency,
			},
		})
	}
}

// ConfirmPaymentHandler обрабатывает PUT /api/orders/{id}
func ConfirmPaymentHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ConfirmPaymentHandler"
		logger := log.With(slog.String("op", op))

		id, ok := orderID(r)
		if !ok {
			writeError(w, http.StatusNotFound, "order_not_found", service.ErrOrderNotFound.Error())
			return
		}

		var req ConfirmPaymentRequest
		if !decodeAndValidate(logger, w, r, &req) {
			return
		}

		conf, err := orderService.ConfirmPayment(r.Context(), sessionFrom(r), id, req.TransactionID)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}

		resp := ConfirmPaymentResponse{
			ID:        conf.Order.ID,
			Status:    conf.Order.Status,
			NotifyURL: conf.NotifyURL,
			Message:   conf.Message,
			Replayed:  conf.Replayed,
		}
		if conf.Order.TransactionID != nil {
			resp.TransactionID = *conf.Order.TransactionID
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ListOrdersHandler обрабатывает GET /api/orders - заказы текущего пользователя
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		orders, err := orderService.ListOrders(r.Context(), sessionFrom(r))
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

// OrderStatusHandler обрабатывает GET /api/orders/{id} без авторизации
func OrderStatusHandler(log *slog.Logger, statusService service.StatusService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrderStatusHandler"
		logger := log.With(slog.String("op", op))

		id, ok := orderID(r)
		if !ok {
			writeError(w, http.StatusNotFound, "order_not_found", service.ErrOrderNotFound.Error())
			return
		}

		view, err := statusService.GetStatus(r.Context(), id)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
