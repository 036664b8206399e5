package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flexipay/installment-engine/internal/domain"
	"github.com/flexipay/installment-engine/pkg/utils"
)

// Sort keys and orders for installment ordering.
const (
	SortByHybrid            = "hybrid"
	SortByInstallmentNumber = "installmentNumber"
	SortByDueDate           = "dueDate"

	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

type SortOptions struct {
	SortBy string
	Order  string
}

// Progress summarizes how far a payment schedule has advanced.
type Progress struct {
	TotalAmount        decimal.Decimal `json:"total_amount"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	TotalPayments      int             `json:"total_payments"`
	CompletedPayments  int             `json:"completed_payments"`
	ProgressPercentage decimal.Decimal `json:"progress_percentage"`
}

// NextPaymentInfo partitions scheduled installments around an evaluation
// instant. Overdue means strictly before `now`; there is no grace period at
// this layer.
type NextPaymentInfo struct {
	NextPayment      *domain.Payment   `json:"next_payment"`
	UpcomingPayments []*domain.Payment `json:"upcoming_payments"`
	OverduePayments  []*domain.Payment `json:"overdue_payments"`
	DaysUntilNext    *int              `json:"days_until_next"`
}

// ValidationResult reports structural problems with a schedule. Errors make
// the schedule invalid; warnings flag temporal inconsistencies the caller may
// choose to surface without blocking.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// SortPayments returns a new ordered slice; the input is never mutated. The
// hybrid key orders by installment number with due date as tie-break. DESC
// inverts the final comparison uniformly, it does not swap the hybrid keys.
func SortPayments(payments []*domain.Payment, opts SortOptions) []*domain.Payment {
	sorted := make([]*domain.Payment, len(payments))
	copy(sorted, payments)

	less := paymentLess(opts.SortBy)

	sort.SliceStable(sorted, func(i, j int) bool {
		if opts.Order == OrderDesc {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})

	return sorted
}

func paymentLess(sortBy string) func(a, b *domain.Payment) bool {
	switch sortBy {
	case SortByInstallmentNumber:
		return func(a, b *domain.Payment) bool {
			return a.InstallmentNumber < b.InstallmentNumber
		}
	case SortByDueDate:
		return func(a, b *domain.Payment) bool {
			return a.DueDate.Before(b.DueDate)
		}
	default: // hybrid
		return func(a, b *domain.Payment) bool {
			if a.InstallmentNumber != b.InstallmentNumber {
				return a.InstallmentNumber < b.InstallmentNumber
			}
			return a.DueDate.Before(b.DueDate)
		}
	}
}

// SortTransactionsWithPayments sorts each transaction's payments, then orders
// the transactions themselves by their earliest payment due date. Transactions
// without payments sort last regardless of order. Input slices are not
// mutated; shallow transaction copies carry the sorted payment lists.
func SortTransactionsWithPayments(txns []*domain.Transaction, opts SortOptions) []*domain.Transaction {
	sorted := make([]*domain.Transaction, len(txns))
	for i, t := range txns {
		c := *t
		c.Payments = SortPayments(t.Payments, opts)
		sorted[i] = &c
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, aOK := earliestDueDate(sorted[i])
		b, bOK := earliestDueDate(sorted[j])
		if !aOK || !bOK {
			// Payment-less transactions go last either way.
			return aOK
		}
		if opts.Order == OrderDesc {
			return b.Before(a)
		}
		return a.Before(b)
	})

	return sorted
}

func earliestDueDate(t *domain.Transaction) (time.Time, bool) {
	if len(t.Payments) == 0 {
		return time.Time{}, false
	}
	earliest := t.Payments[0].DueDate
	for _, p := range t.Payments[1:] {
		if p.DueDate.Before(earliest) {
			earliest = p.DueDate
		}
	}
	return earliest, true
}

// GetProgress computes paid/remaining totals over all installments regardless
// of status; only completed installments count as paid.
func GetProgress(payments []*domain.Payment) Progress {
	progress := Progress{
		TotalAmount:        decimal.Zero,
		PaidAmount:         decimal.Zero,
		TotalPayments:      len(payments),
		ProgressPercentage: decimal.Zero,
	}

	for _, p := range payments {
		progress.TotalAmount = progress.TotalAmount.Add(p.Amount)
		if p.Status == domain.PaymentStatusCompleted {
			progress.PaidAmount = progress.PaidAmount.Add(p.Amount)
			progress.CompletedPayments++
		}
	}

	progress.RemainingAmount = progress.TotalAmount.Sub(progress.PaidAmount)
	progress.ProgressPercentage = utils.Percentage(progress.PaidAmount, progress.TotalAmount)

	return progress
}

// GetNextPaymentInfo classifies scheduled installments relative to `now`.
// DaysUntilNext rounds partial days up, so anything still in the future is at
// least one day away.
func GetNextPaymentInfo(payments []*domain.Payment, now time.Time) NextPaymentInfo {
	info := NextPaymentInfo{
		UpcomingPayments: []*domain.Payment{},
		OverduePayments:  []*domain.Payment{},
	}

	for _, p := range payments {
		if p.Status != domain.PaymentStatusScheduled {
			continue
		}
		if utils.IsOverdue(p.DueDate, now) {
			info.OverduePayments = append(info.OverduePayments, p)
		} else {
			info.UpcomingPayments = append(info.UpcomingPayments, p)
		}
	}

	info.UpcomingPayments = SortPayments(info.UpcomingPayments, SortOptions{SortBy: SortByDueDate, Order: OrderAsc})

	if len(info.UpcomingPayments) > 0 {
		info.NextPayment = info.UpcomingPayments[0]
		days := utils.CeilDaysBetween(now, info.NextPayment.DueDate)
		info.DaysUntilNext = &days
	}

	return info
}

// ValidateSequence checks structural integrity of a schedule: installment
// numbers must be exactly 1..N with no duplicates or gaps, and every amount
// must be positive. Non-increasing due dates are reported as warnings only.
// An empty schedule is valid.
func ValidateSequence(payments []*domain.Payment) ValidationResult {
	result := ValidationResult{
		IsValid:  true,
		Errors:   []string{},
		Warnings: []string{},
	}

	if len(payments) == 0 {
		return result
	}

	n := len(payments)
	seen := make(map[int]int, n)
	for _, p := range payments {
		seen[p.InstallmentNumber]++
		if p.Amount.LessThanOrEqual(decimal.Zero) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("installment %d has non-positive amount %s", p.InstallmentNumber, p.Amount))
		}
	}

	for num, count := range seen {
		if count > 1 {
			result.Errors = append(result.Errors,
				fmt.Sprintf("duplicate installment number %d", num))
		}
	}
	for num := 1; num <= n; num++ {
		if seen[num] == 0 {
			result.Errors = append(result.Errors,
				fmt.Sprintf("missing installment number %d", num))
		}
	}

	ordered := SortPayments(payments, SortOptions{SortBy: SortByInstallmentNumber, Order: OrderAsc})
	for i := 1; i < len(ordered); i++ {
		if !ordered[i].DueDate.After(ordered[i-1].DueDate) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("installment %d is not due strictly after installment %d",
					ordered[i].InstallmentNumber, ordered[i-1].InstallmentNumber))
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// ValidateTransaction runs sequence validation and additionally checks that
// the installments sum to the transaction amount within the rounding
// tolerance (one minor unit per installment by default). Drift within the
// tolerance is expected from installment rounding; drift beyond it is a
// warning so downstream views can flag the schedule without blocking it.
func ValidateTransaction(t *domain.Transaction, toleranceCents int64) ValidationResult {
	result := ValidateSequence(t.Payments)

	if len(t.Payments) == 0 {
		return result
	}

	sum := decimal.Zero
	for _, p := range t.Payments {
		sum = sum.Add(p.Amount)
	}

	tolerance := decimal.New(toleranceCents*int64(len(t.Payments)), -2)
	if sum.Sub(t.Amount).Abs().GreaterThan(tolerance) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("installments sum to %s but transaction amount is %s", sum, t.Amount))
	}

	return result
}
