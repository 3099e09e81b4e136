package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/gamekeys-shop/internal/domain/models"
	"github.com/linemk/gamekeys-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/gamekeys-shop/internal/service"
)

var validate = validator.New()

// ErrorResponse - тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// порядок важен: первое совпадение по errors.Is
var serviceErrors = []errorMapping{
	{service.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{service.ErrInvalidTransactionID, http.StatusBadRequest, "invalid_transaction_id"},
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{service.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrAlreadyConfirmed, http.StatusConflict, "already_confirmed"},
	{service.ErrTransactionIDInUse, http.StatusConflict, "transaction_id_in_use"},
	{service.ErrTotalMismatch, http.StatusConflict, "total_mismatch"},
	{service.ErrUserExists, http.StatusConflict, "user_exists"},
	{service.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{service.ErrPersistence, http.StatusServiceUnavailable, "persistence"},
}

// writeServiceError переводит ошибку сервиса в HTTP-ответ.
// Клиенту уходит только текст sentinel-ошибки, без внутренних подробностей.
func writeServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				logger.Error("request failed", slog.Any("error", err))
			} else {
				logger.Warn("request rejected", slog.String("code", m.code), slog.Any("error", err))
			}
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}

	logger.Error("unexpected error", slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, "internal", "internal server error")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeAndValidate читает JSON-тело и проверяет его тегами validate
func decodeAndValidate(logger *slog.Logger, w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Error("invalid request: decoding error", slog.Any("error", err))
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		logger.Error("invalid request: validation error", slog.Any("error", err))
		writeError(w, http.StatusBadRequest, "validation_error", "validation error")
		return false
	}
	return true
}

// sessionFrom возвращает сессию из контекста или nil.
// nil дальше превращается в ErrUnauthenticated на уровне сервиса.
func sessionFrom(r *http.Request) *models.Session {
	sess, ok := jwtmiddleware.SessionFromContext(r.Context())
	if !ok {
		return nil
	}
	return sess
}
