package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/flexipay/installment-engine/internal/domain"
)

func newPayment(installment int, amount int64, due time.Time, status string) *domain.Payment {
	return &domain.Payment{
		ID:                uuid.New(),
		TransactionID:     "TXN123",
		InstallmentNumber: installment,
		Amount:            decimal.NewFromInt(amount),
		DueDate:           due,
		Status:            status,
	}
}

func testSchedule() []*domain.Payment {
	return []*domain.Payment{
		newPayment(1, 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusCompleted),
		newPayment(2, 100, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusScheduled),
		newPayment(3, 100, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusScheduled),
	}
}

func TestSortPayments(t *testing.T) {
	due1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	due2 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	due3 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		payments []*domain.Payment
		opts     SortOptions
		expected []int
	}{
		{
			name: "hybrid ascending",
			payments: []*domain.Payment{
				newPayment(3, 100, due3, domain.PaymentStatusScheduled),
				newPayment(1, 100, due1, domain.PaymentStatusScheduled),
				newPayment(2, 100, due2, domain.PaymentStatusScheduled),
			},
			opts:     SortOptions{SortBy: SortByHybrid, Order: OrderAsc},
			expected: []int{1, 2, 3},
		},
		{
			name: "hybrid descending inverts uniformly",
			payments: []*domain.Payment{
				newPayment(1, 100, due1, domain.PaymentStatusScheduled),
				newPayment(3, 100, due3, domain.PaymentStatusScheduled),
				newPayment(2, 100, due2, domain.PaymentStatusScheduled),
			},
			opts:     SortOptions{SortBy: SortByHybrid, Order: OrderDesc},
			expected: []int{3, 2, 1},
		},
		{
			name: "hybrid tie-break on due date",
			payments: []*domain.Payment{
				newPayment(1, 100, due2, domain.PaymentStatusScheduled),
				newPayment(1, 100, due1, domain.PaymentStatusScheduled),
			},
			opts:     SortOptions{SortBy: SortByHybrid, Order: OrderAsc},
			expected: []int{1, 1},
		},
		{
			name: "by due date",
			payments: []*domain.Payment{
				newPayment(2, 100, due3, domain.PaymentStatusScheduled),
				newPayment(3, 100, due1, domain.PaymentStatusScheduled),
				newPayment(1, 100, due2, domain.PaymentStatusScheduled),
			},
			opts:     SortOptions{SortBy: SortByDueDate, Order: OrderAsc},
			expected: []int{3, 1, 2},
		},
		{
			name: "by installment number descending",
			payments: []*domain.Payment{
				newPayment(2, 100, due2, domain.PaymentStatusScheduled),
				newPayment(1, 100, due1, domain.PaymentStatusScheduled),
			},
			opts:     SortOptions{SortBy: SortByInstallmentNumber, Order: OrderDesc},
			expected: []int{2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sorted := SortPayments(tt.payments, tt.opts)

			numbers := make([]int, len(sorted))
			for i, p := range sorted {
				numbers[i] = p.InstallmentNumber
			}
			assert.Equal(t, tt.expected, numbers)
		})
	}
}

func TestSortPayments_DoesNotMutateInput(t *testing.T) {
	due1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	due2 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	payments := []*domain.Payment{
		newPayment(2, 100, due2, domain.PaymentStatusScheduled),
		newPayment(1, 100, due1, domain.PaymentStatusScheduled),
	}

	SortPayments(payments, SortOptions{SortBy: SortByHybrid, Order: OrderAsc})

	assert.Equal(t, 2, payments[0].InstallmentNumber)
	assert.Equal(t, 1, payments[1].InstallmentNumber)
}

func TestSortPayments_Idempotent(t *testing.T) {
	opts := SortOptions{SortBy: SortByHybrid, Order: OrderAsc}

	once := SortPayments(testSchedule(), opts)
	twice := SortPayments(once, opts)

	assert.Equal(t, once, twice)
}

func TestSortPayments_StableForEqualKeys(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := newPayment(1, 100, due, domain.PaymentStatusScheduled)
	b := newPayment(1, 100, due, domain.PaymentStatusScheduled)

	sorted := SortPayments([]*domain.Payment{a, b}, SortOptions{SortBy: SortByHybrid, Order: OrderAsc})

	assert.Same(t, a, sorted[0])
	assert.Same(t, b, sorted[1])
}

func TestSortTransactionsWithPayments(t *testing.T) {
	early := &domain.Transaction{
		TransactionID: "EARLY",
		Payments: []*domain.Payment{
			newPayment(2, 100, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusScheduled),
			newPayment(1, 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusScheduled),
		},
	}
	late := &domain.Transaction{
		TransactionID: "LATE",
		Payments: []*domain.Payment{
			newPayment(1, 100, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusScheduled),
		},
	}
	empty := &domain.Transaction{TransactionID: "EMPTY"}

	sorted := SortTransactionsWithPayments(
		[]*domain.Transaction{empty, late, early},
		SortOptions{SortBy: SortByHybrid, Order: OrderAsc},
	)

	assert.Equal(t, "EARLY", sorted[0].TransactionID)
	assert.Equal(t, "LATE", sorted[1].TransactionID)
	assert.Equal(t, "EMPTY", sorted[2].TransactionID)

	// Per-transaction payments come back sorted too.
	assert.Equal(t, 1, sorted[0].Payments[0].InstallmentNumber)
	assert.Equal(t, 2, sorted[0].Payments[1].InstallmentNumber)

	// Originals untouched.
	assert.Equal(t, 2, early.Payments[0].InstallmentNumber)
}

func TestSortTransactionsWithPayments_EmptyAlwaysLast(t *testing.T) {
	withPayments := &domain.Transaction{
		TransactionID: "HAS",
		Payments: []*domain.Payment{
			newPayment(1, 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusScheduled),
		},
	}
	empty := &domain.Transaction{TransactionID: "EMPTY"}

	for _, order := range []string{OrderAsc, OrderDesc} {
		sorted := SortTransactionsWithPayments(
			[]*domain.Transaction{empty, withPayments},
			SortOptions{SortBy: SortByHybrid, Order: order},
		)
		assert.Equal(t, "HAS", sorted[0].TransactionID, "order %s", order)
		assert.Equal(t, "EMPTY", sorted[1].TransactionID, "order %s", order)
	}
}

func TestGetProgress(t *testing.T) {
	progress := GetProgress(testSchedule())

	assert.True(t, progress.TotalAmount.Equal(decimal.NewFromInt(300)))
	assert.True(t, progress.PaidAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, progress.RemainingAmount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 3, progress.TotalPayments)
	assert.Equal(t, 1, progress.CompletedPayments)
	assert.True(t, progress.ProgressPercentage.Equal(decimal.NewFromFloat(33.33)))

	// paid + remaining == total exactly
	assert.True(t, progress.PaidAmount.Add(progress.RemainingAmount).Equal(progress.TotalAmount))
}

func TestGetProgress_Empty(t *testing.T) {
	progress := GetProgress(nil)

	assert.True(t, progress.TotalAmount.IsZero())
	assert.True(t, progress.ProgressPercentage.IsZero())
	assert.Equal(t, 0, progress.TotalPayments)
}

func TestGetNextPaymentInfo(t *testing.T) {
	payments := []*domain.Payment{
		newPayment(1, 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusCompleted),
		newPayment(2, 100, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusCompleted),
		newPayment(3, 100, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusScheduled),
	}

	// Between installment 2 and installment 3 due dates.
	now := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	info := GetNextPaymentInfo(payments, now)

	assert.NotNil(t, info.NextPayment)
	assert.Equal(t, 3, info.NextPayment.InstallmentNumber)
	assert.Len(t, info.OverduePayments, 0)
	assert.Len(t, info.UpcomingPayments, 1)
	assert.NotNil(t, info.DaysUntilNext)
	assert.Equal(t, 15, *info.DaysUntilNext)
}

func TestGetNextPaymentInfo_PartialDayCountsAsOne(t *testing.T) {
	due := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	payments := []*domain.Payment{
		newPayment(1, 100, due, domain.PaymentStatusScheduled),
	}

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	info := GetNextPaymentInfo(payments, now)

	assert.NotNil(t, info.DaysUntilNext)
	assert.Equal(t, 1, *info.DaysUntilNext)
}

func TestGetNextPaymentInfo_OverduePartition(t *testing.T) {
	now := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	payments := []*domain.Payment{
		newPayment(1, 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusScheduled),
		newPayment(2, 100, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusProcessing),
		newPayment(3, 100, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusScheduled),
	}

	info := GetNextPaymentInfo(payments, now)

	// Only scheduled payments are candidates; the processing one is ignored.
	assert.Len(t, info.OverduePayments, 1)
	assert.Equal(t, 1, info.OverduePayments[0].InstallmentNumber)
	assert.Len(t, info.UpcomingPayments, 1)
	assert.Equal(t, 3, info.NextPayment.InstallmentNumber)
}

func TestGetNextPaymentInfo_NoScheduled(t *testing.T) {
	payments := []*domain.Payment{
		newPayment(1, 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), domain.PaymentStatusCompleted),
	}

	info := GetNextPaymentInfo(payments, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	assert.Nil(t, info.NextPayment)
	assert.Nil(t, info.DaysUntilNext)
	assert.Empty(t, info.UpcomingPayments)
	assert.Empty(t, info.OverduePayments)
}

func TestValidateSequence(t *testing.T) {
	due1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	due2 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	due3 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		payments     []*domain.Payment
		wantValid    bool
		wantErrors   int
		wantWarnings int
	}{
		{
			name: "valid schedule",
			payments: []*domain.Payment{
				newPayment(1, 100, due1, domain.PaymentStatusScheduled),
				newPayment(2, 100, due2, domain.PaymentStatusScheduled),
				newPayment(3, 100, due3, domain.PaymentStatusScheduled),
			},
			wantValid: true,
		},
		{
			name: "duplicate and gap",
			payments: []*domain.Payment{
				newPayment(1, 100, due1, domain.PaymentStatusScheduled),
				newPayment(1, 100, due2, domain.PaymentStatusScheduled),
				newPayment(3, 100, due3, domain.PaymentStatusScheduled),
			},
			wantValid:  false,
			wantErrors: 2, // duplicate 1, missing 2
		},
		{
			name: "starts at zero",
			payments: []*domain.Payment{
				newPayment(0, 100, due1, domain.PaymentStatusScheduled),
				newPayment(1, 100, due2, domain.PaymentStatusScheduled),
			},
			wantValid:  false,
			wantErrors: 1, // missing 2
		},
		{
			name: "non-positive amount",
			payments: []*domain.Payment{
				newPayment(1, 0, due1, domain.PaymentStatusScheduled),
				newPayment(2, 100, due2, domain.PaymentStatusScheduled),
			},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name: "due dates not strictly increasing is warning only",
			payments: []*domain.Payment{
				newPayment(1, 100, due2, domain.PaymentStatusScheduled),
				newPayment(2, 100, due1, domain.PaymentStatusScheduled),
			},
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name:      "empty is valid",
			payments:  nil,
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSequence(tt.payments)

			assert.Equal(t, tt.wantValid, result.IsValid)
			assert.Len(t, result.Errors, tt.wantErrors)
			assert.Len(t, result.Warnings, tt.wantWarnings)
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	txn := &domain.Transaction{
		TransactionID: "TXN123",
		Amount:        decimal.NewFromInt(300),
		Payments:      testSchedule(),
	}

	result := ValidateTransaction(txn, 1)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Warnings)

	// Drift beyond one cent per installment is flagged.
	txn.Amount = decimal.NewFromFloat(300.10)
	result = ValidateTransaction(txn, 1)
	assert.True(t, result.IsValid)
	assert.Len(t, result.Warnings, 1)
}
