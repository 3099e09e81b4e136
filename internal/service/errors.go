package service

import (
	"errors"
	"fmt"
)

// Ошибки сервисного слоя. Хендлеры переводят их в HTTP-статусы.
var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidInput         = errors.New("invalid input")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidTransactionID = errors.New("invalid transaction id")
	ErrNotFound             = errors.New("not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrAlreadyConfirmed     = errors.New("order already confirmed")
	ErrTransactionIDInUse   = errors.New("transaction id already used")
	ErrTotalMismatch        = errors.New("order total does not match cart")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrPersistence          = errors.New("persistence error")
)

// persistenceErr помечает сбой хранилища, сохраняя исходную ошибку в цепочке
func persistenceErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
