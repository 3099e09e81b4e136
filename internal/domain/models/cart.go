package models

import "github.com/shopspring/decimal"

// CartItem - строка корзины в хранилище, уникальна по (UserID, GameID)
type CartItem struct {
	ID       int64 `json:"id"`
	UserID   int64 `json:"user_id"`
	GameID   int64 `json:"game_id"`
	Quantity int   `json:"quantity"`
}

// GameSnapshot - поля игры, подтянутые JOIN'ом при чтении корзины
type GameSnapshot struct {
	ID             int64            `json:"id"`
	Title          string           `json:"title"`
	Price          decimal.Decimal  `json:"price"`
	ReferencePrice *decimal.Decimal `json:"steam_price"`
	ImageURL       string           `json:"image_url"`
}

// CartLine - строка корзины вместе со снимком игры
type CartLine struct {
	ID       int64        `json:"id"`
	GameID   int64        `json:"game_id"`
	Quantity int          `json:"quantity"`
	Game     GameSnapshot `json:"games"`
}

// Cart - производное представление корзины, не хранится
type Cart struct {
	Items          []CartLine      `json:"items"`
	Count          int             `json:"count"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ReferenceTotal decimal.Decimal `json:"reference_total"`
	Savings        decimal.Decimal `json:"savings"`
}

// IsEmpty сообщает, пуста ли корзина
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
