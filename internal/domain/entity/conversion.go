package entity

import "github.com/shopspring/decimal"

// ConvertedAmount is a line amount expressed in the advance currency
type ConvertedAmount struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}

// Conversion is the converter's answer for one amount
type Conversion struct {
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
}
