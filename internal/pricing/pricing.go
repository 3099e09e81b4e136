// Package pricing считает скидки и итоги корзины. Чистые функции без ввода-вывода.
package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount - скидка относительно "якорной" цены
type Discount struct {
	Percentage  int  `json:"discount_percentage"`
	HasDiscount bool `json:"has_discount"`
}

// DiscountOf считает процент скидки цены price относительно reference.
// Скидка есть только при reference > 0 и reference > price.
// Процент округляется половиной вверх и не ограничивается сверху: отрицательная цена -
// ошибка данных, которую здесь не маскируем.
func DiscountOf(reference, price decimal.Decimal) Discount {
	if !reference.IsPositive() || !reference.GreaterThan(price) {
		return Discount{}
	}

	// для положительных значений Round(0) - это округление half-up
	pct := reference.Sub(price).Div(reference).Mul(hundred).Round(0)

	return Discount{
		Percentage:  int(pct.IntPart()),
		HasDiscount: true,
	}
}

// DiscountOfPtr - то же, что DiscountOf, для отсутствующей якорной цены
func DiscountOfPtr(reference *decimal.Decimal, price decimal.Decimal) Discount {
	if reference == nil {
		return Discount{}
	}
	return DiscountOf(*reference, price)
}

// Line - строка для расчёта итогов
type Line struct {
	Price     decimal.Decimal
	Reference *decimal.Decimal // nil - берём Price, экономии нет
	Quantity  int
}

// Totals - итоги корзины
type Totals struct {
	Subtotal       decimal.Decimal
	ReferenceTotal decimal.Decimal
	Savings        decimal.Decimal
}

// CartTotals суммирует цены строк. Экономия никогда не отрицательна,
// даже если у какой-то строки якорная цена ниже цены продажи.
func CartTotals(lines []Line) Totals {
	subtotal := decimal.Zero
	referenceTotal := decimal.Zero

	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		subtotal = subtotal.Add(l.Price.Mul(qty))

		ref := l.Price
		if l.Reference != nil {
			ref = *l.Reference
		}
		referenceTotal = referenceTotal.Add(ref.Mul(qty))
	}

	savings := referenceTotal.Sub(subtotal)
	if savings.IsNegative() {
		savings = decimal.Zero
	}

	return Totals{
		Subtotal:       subtotal,
		ReferenceTotal: referenceTotal,
		Savings:        savings,
	}
}
