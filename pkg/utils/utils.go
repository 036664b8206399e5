package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// SplitAmount splits a total into n installment amounts rounded to 2 decimal
// places. The last installment absorbs any rounding remainder so the parts
// always sum to the total exactly.
func SplitAmount(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}

	base := total.Div(decimal.NewFromInt(int64(n))).Round(2)

	amounts := make([]decimal.Decimal, n)
	running := decimal.Zero
	for i := 0; i < n-1; i++ {
		amounts[i] = base
		running = running.Add(base)
	}
	amounts[n-1] = total.Sub(running)

	return amounts
}

// CeilDaysBetween returns the number of whole days from `from` to `to`,
// rounding any partial day up. Returns 0 when `to` is not after `from`.
func CeilDaysBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}

	hours := to.Sub(from).Hours()
	days := int(hours / 24)
	if hours > float64(days)*24 {
		days++
	}

	return days
}

// IsOverdue checks if a due date has passed relative to the given instant.
func IsOverdue(dueDate, now time.Time) bool {
	return dueDate.Before(now)
}

// Percentage returns part/total*100 rounded to 2 decimal places, or zero when
// the total is zero.
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
