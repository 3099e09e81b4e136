package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/pricing"
	"github.com/linemk/gamekeys-shop/internal/service"
	"github.com/shopspring/decimal"
)

// AddToCartRequest - quantity по умолчанию 1
type AddToCartRequest struct {
	GameID   int64 `json:"game_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"gte=0,lte=100"`
}

// UpdateCartItemRequest - quantity 0 удаляет строку
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=100"`
}

type CartLineResponse struct {
	models.CartLine
	pricing.Discount
}

type CartResponse struct {
	Items          []CartLineResponse `json:"items"`
	Count          int                `json:"count"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	ReferenceTotal decimal.Decimal    `json:"reference_total"`
	Savings        decimal.Decimal    `json:"savings"`
}

func newCartResponse(cart *models.Cart) CartResponse {
	items := make([]CartLineResponse, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, CartLineResponse{
			CartLine: line,
			Discount: pricing.DiscountOfPtr(line.Game.ReferencePrice, line.Game.Price),
		})
	}
	return CartResponse{
		Items:          items,
		Count:          cart.Count,
		Subtotal:       cart.Subtotal,
		ReferenceTotal: cart.ReferenceTotal,
		Savings:        cart.Savings,
	}
}

func cartItemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// GetCartHandler обрабатывает GET /api/cart
func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		cart, err := cartService.GetCart(r.Context(), sessionFrom(r))
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCartResponse(cart))
	}
}

// AddToCartHandler обрабатывает POST /api/cart
func AddToCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		var req AddToCartRequest
		if !decodeAndValidate(logger, w, r, &req) {
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}

		cart, err := cartService.AddToCart(r.Context(), sessionFrom(r), req.GameID, req.Quantity)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCartResponse(cart))
	}
}

// UpdateCartItemHandler обрабатывает PUT /api/cart/{id}
func UpdateCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCartItemHandler"
		logger := log.With(slog.String("op", op))

		id, ok := cartItemID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid cart item id")
			return
		}

		var req UpdateCartItemRequest
		if !decodeAndValidate(logger, w, r, &req) {
			return
		}

		cart, err := cartService.UpdateCartItem(r.Context(), sessionFrom(r), id, req.Quantity)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCartResponse(cart))
	}
}

// RemoveFromCartHandler обрабатывает DELETE /api/cart/{id}
func RemoveFromCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveFromCartHandler"
		logger := log.With(slog.String("op", op))

		id, ok := cartItemID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid cart item id")
			return
		}

		cart, err := cartService.RemoveFromCart(r.Context(), sessionFrom(r), id)
		if err != nil {
			writeServiceError(logger, w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCartResponse(cart))
	}
}

// ClearCartHandler обрабатывает DELETE /api/cart
func ClearCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ClearCartHandler"
		logger := log.With(slog.String("op", op))

		if err := cartService.ClearCart(r.Context(), sessionFrom(r)); err != nil {
			writeServiceError(logger, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
