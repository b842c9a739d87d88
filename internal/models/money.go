package models

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the ISO code used when none is configured
const DefaultCurrency = money.INR

// FormatMoney renders an amount in the given currency, e.g. "₹1,250.00".
// Unknown currency codes fall back to DefaultCurrency.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		cur = money.GetCurrency(DefaultCurrency)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	if !minor.BigInt().IsInt64() {
		return formatLarge(minor, cur)
	}
	return money.New(minor.IntPart(), cur.Code).Display()
}

// formatLarge lays out minor units that do not fit in an int64 the same way
// go-money's Formatter does.
func formatLarge(minor decimal.Decimal, cur *money.Currency) string {
	sa := minor.BigInt()
	neg := sa.Sign() < 0
	digits := sa.Abs(sa).String()

	if len(digits) <= cur.Fraction {
		digits = strings.Repeat("0", cur.Fraction-len(digits)+1) + digits
	}
	if cur.Thousand != "" {
		for i := len(digits) - cur.Fraction - 3; i > 0; i -= 3 {
			digits = digits[:i] + cur.Thousand + digits[i:]
		}
	}
	if cur.Fraction > 0 {
		digits = digits[:len(digits)-cur.Fraction] + cur.Decimal + digits[len(digits)-cur.Fraction:]
	}

	out := strings.Replace(cur.Template, "1", digits, 1)
	out = strings.Replace(out, "$", cur.Grapheme, 1)
	if neg {
		out = "-" + out
	}
	return out
}

// FormatSignedMoney prefixes income with "+" and expenses with "-"
func FormatSignedMoney(t Transaction, currency string) string {
	sign := "-"
	if t.Kind.IsIncome() {
		sign = "+"
	}
	return sign + FormatMoney(t.Amount, currency)
}

// ParseAmount parses a decimal amount from user input
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Invalid("amount", "invalid amount %q", s)
	}
	return d, nil
}
