package handlers

import (
	"errors"

	"chipsms/internal/money"

	"github.com/shopspring/decimal"
)

var errInvalidAmount = errors.New("invalid amount")
var errInvalidPrice = errors.New("invalid price")

func parseAmountMinor(raw string) (int64, error) {
	amount, err := money.ParseMinor(raw)
	if err != nil || amount <= 0 {
		return 0, errInvalidAmount
	}
	return amount, nil
}

// parsePriceMinor accepts a positive decimal price with at most two decimal
// places and converts it to minor units.
func parsePriceMinor(raw string) (int64, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return 0, errInvalidPrice
	}
	if price.Exponent() < -2 {
		return 0, errInvalidPrice
	}
	return price.Mul(decimal.NewFromInt(100)).IntPart(), nil
}
