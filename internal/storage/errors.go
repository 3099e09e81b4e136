package storage

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrGameNotFound       = errors.New("game not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrCartItemExists     = errors.New("cart item already exists")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderNotPending    = errors.New("order is not pending")
	ErrOrderNotPaid       = errors.New("order is not paid")
	ErrTransactionIDInUse = errors.New("transaction id already used")
)

// коды ошибок postgres
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func isPQCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

// IsUniqueViolation проверяет, что ошибка - нарушение уникального индекса
func IsUniqueViolation(err error) bool {
	return isPQCode(err, pqUniqueViolation)
}
