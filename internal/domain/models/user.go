package models

import "time"

// роли пользователей
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет покупателя или администратора магазина
type User struct {
	ID        int64
	Email     string
	FullName  string
	PassHash  []byte
	Role      string
	CreatedAt time.Time
}
