package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game - игра из каталога. Для ядра корзины и заказов только читается.
type Game struct {
	ID             int64            `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	ReferencePrice *decimal.Decimal `json:"steam_price"` // "якорная" цена до скидки, может отсутствовать
	ImageURL       string           `json:"image_url"`
	CategoryID     int64            `json:"category_id"`
	Rating         decimal.Decimal  `json:"rating"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Category - категория каталога
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
