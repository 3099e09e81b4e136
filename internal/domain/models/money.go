package models

import "github.com/shopspring/decimal"

func init() {
	// цены отдаются клиенту числами, как в исходном API: {"total_amount": 499}
	decimal.MarshalJSONWithoutQuotes = true
}
