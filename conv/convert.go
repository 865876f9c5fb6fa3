package conv

import "github.com/ericlagergren/decimal"

// MoneyScale is the number of decimal places every monetary amount is kept at.
const MoneyScale = 2

var zeroMoney decimal.Big

func init() {
	zeroMoney = decimal.Big{}
	zeroMoney.Context = decimal.Context128
	zeroMoney.Context.RoundingMode = decimal.ToNearestAway
	zeroMoney.Quantize(MoneyScale)
}

// NewMoney returns a zero amount with the money context attached (half-up rounding)
func NewMoney() *decimal.Big {
	z := zeroMoney
	return &z
}

// NewMoneyFromString parses a monetary amount, returns nil on invalid input
func NewMoneyFromString(s string) *decimal.Big {
	d, ok := NewMoney().SetString(s)
	if !ok {
		return nil
	}
	return RoundToMoney(d)
}

// NewMoneyFromFloat converts a float into a rounded monetary amount
func NewMoneyFromFloat(f float64) *decimal.Big {
	return RoundToMoney(NewMoney().SetFloat64(f))
}

// RoundToMoney rounds the given amount half-up to the money scale in place
func RoundToMoney(d *decimal.Big) *decimal.Big {
	d.Context = decimal.Context128
	d.Context.RoundingMode = decimal.ToNearestAway
	d.Quantize(MoneyScale)
	return d
}

// CloneToMoney copies the given amount and rounds the copy to the money scale
func CloneToMoney(d *decimal.Big) *decimal.Big {
	dec := NewMoney()
	dec.Copy(d)
	dec.Quantize(MoneyScale)
	return dec
}

// Fmt renders an amount with the fixed money scale for json/log output
func Fmt(d *decimal.Big) string {
	if d == nil {
		return "0.00"
	}
	return CloneToMoney(d).String()
}

// IsNegative reports whether the amount is below zero
func IsNegative(d *decimal.Big) bool {
	return d.Sign() < 0
}
