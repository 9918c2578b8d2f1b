package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with tr-TR separators and exactly two
// fraction digits, e.g. 1234.5 -> "1.234,50". Currency precision is ignored
// on purpose: JPY is shown with two decimals as well.
func FormatAmount(amount decimal.Decimal) string {
	fixed := amount.Round(2).StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// FormatMoney renders an amount followed by the currency symbol.
func FormatMoney(amount decimal.Decimal, code string) string {
	return FormatAmount(amount) + " " + Symbol(code)
}
