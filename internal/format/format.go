// Package format renders amounts the way the ledger shows them to people:
// Brazilian real, two decimals, "." for thousands and "," for decimals.
package format

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	brl = money.GetCurrency(money.BRL)

	plain  = money.NewFormatter(brl.Fraction, brl.Decimal, brl.Thousand, brl.Grapheme, "1")
	symbol = money.NewFormatter(brl.Fraction, brl.Decimal, brl.Thousand, brl.Grapheme, "$ 1")
)

func minorUnits(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Shift(int32(brl.Fraction)).Round(0).IntPart()
}

// Currency formats v as "1.234,56", or "R$ 1.234,56" with showSymbol.
func Currency(v float64, showSymbol bool) string {
	if showSymbol {
		return symbol.Format(minorUnits(v))
	}
	return plain.Format(minorUnits(v))
}

// Value is a signed transaction amount ready for display.
type Value struct {
	Formatted string // absolute amount, "1.234,56"
	Sign      string // "+" or "-"
	Class     string // "income" or "expense"
	IsIncome  bool
	Display   string // "+ R$ 1.234,56"
}

// TransactionValue formats a transaction amount with its sign. Zero counts
// as income.
func TransactionValue(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}

	out := Value{
		Formatted: Currency(math.Abs(v), false),
		Sign:      "+",
		Class:     "income",
		IsIncome:  v >= 0,
	}
	if !out.IsIncome {
		out.Sign = "-"
		out.Class = "expense"
	}
	out.Display = out.Sign + " " + brl.Grapheme + " " + out.Formatted
	return out
}

// Balance formats a total, "1.234,56" or "- 1.234,56".
func Balance(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	formatted := Currency(math.Abs(v), false)
	if v < 0 {
		return "- " + formatted
	}
	return formatted
}
