package settlement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/flexipay/installment-engine/internal/domain"
	customError "github.com/flexipay/installment-engine/pkg/errors"
)

var (
	testNow    = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tenPercent = RateDiscountPolicy{Rate: decimal.NewFromFloat(0.10)}
)

func remainingSchedule() []*domain.Payment {
	return []*domain.Payment{
		{
			ID:                uuid.New(),
			TransactionID:     "TXN123",
			InstallmentNumber: 1,
			Amount:            decimal.NewFromInt(100),
			DueDate:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Status:            domain.PaymentStatusCompleted,
		},
		{
			ID:                uuid.New(),
			TransactionID:     "TXN123",
			InstallmentNumber: 2,
			Amount:            decimal.NewFromInt(100),
			DueDate:           time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Status:            domain.PaymentStatusScheduled,
		},
		{
			ID:                uuid.New(),
			TransactionID:     "TXN123",
			InstallmentNumber: 3,
			Amount:            decimal.NewFromInt(100),
			DueDate:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Status:            domain.PaymentStatusScheduled,
		},
	}
}

func TestFullQuote(t *testing.T) {
	payments := remainingSchedule()

	option, err := FullQuote(payments, tenPercent, testNow)

	assert.NoError(t, err)
	assert.Equal(t, domain.EarlyPaymentTypeFull, option.PaymentType)
	assert.True(t, option.OriginalAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, option.DiscountAmount.Equal(decimal.NewFromInt(20)))
	assert.True(t, option.FinalAmount.Equal(decimal.NewFromInt(180)))
	assert.True(t, option.NetSavings.Equal(decimal.NewFromInt(20)))
	assert.Len(t, option.CoveredInstallmentIDs, 2)
}

func TestFullQuote_NoScheduledInstallments(t *testing.T) {
	payments := []*domain.Payment{
		{InstallmentNumber: 1, Amount: decimal.NewFromInt(100), Status: domain.PaymentStatusCompleted},
	}

	option, err := FullQuote(payments, tenPercent, testNow)

	assert.Nil(t, option)
	assert.ErrorIs(t, err, customError.ErrNoScheduledInstallments)
}

func TestFullQuote_DiscountClamped(t *testing.T) {
	over := RateDiscountPolicy{Rate: decimal.NewFromInt(2)}
	under := RateDiscountPolicy{Rate: decimal.NewFromInt(-1)}

	option, err := FullQuote(remainingSchedule(), over, testNow)
	assert.NoError(t, err)
	assert.True(t, option.DiscountAmount.Equal(option.OriginalAmount))
	assert.True(t, option.FinalAmount.IsZero())

	option, err = FullQuote(remainingSchedule(), under, testNow)
	assert.NoError(t, err)
	assert.True(t, option.DiscountAmount.IsZero())
	assert.True(t, option.FinalAmount.Equal(option.OriginalAmount))
}

func TestPartialQuote(t *testing.T) {
	payments := remainingSchedule()
	selected := []uuid.UUID{payments[1].ID}

	aggregate, options, err := PartialQuote(payments, selected, tenPercent, testNow)

	assert.NoError(t, err)
	assert.Equal(t, domain.EarlyPaymentTypePartial, aggregate.PaymentType)
	assert.True(t, aggregate.OriginalAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, aggregate.DiscountAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, aggregate.FinalAmount.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, selected, aggregate.CoveredInstallmentIDs)

	assert.Len(t, options, 1)
	assert.Equal(t, payments[1].ID, options[0].InstallmentID)
	assert.True(t, options[0].Selected)
	assert.True(t, options[0].NetSavings.Equal(decimal.NewFromInt(10)))
}

func TestPartialQuote_AggregateMatchesFullWhenAllSelected(t *testing.T) {
	payments := remainingSchedule()
	selected := []uuid.UUID{payments[1].ID, payments[2].ID}

	aggregate, _, err := PartialQuote(payments, selected, tenPercent, testNow)
	assert.NoError(t, err)

	full, err := FullQuote(payments, tenPercent, testNow)
	assert.NoError(t, err)

	assert.True(t, aggregate.OriginalAmount.Equal(full.OriginalAmount))
	assert.True(t, aggregate.DiscountAmount.Equal(full.DiscountAmount))
	assert.True(t, aggregate.FinalAmount.Equal(full.FinalAmount))
}

func TestPartialQuote_InvalidSelection(t *testing.T) {
	payments := remainingSchedule()

	tests := []struct {
		name     string
		selected []uuid.UUID
	}{
		{"unknown id", []uuid.UUID{uuid.New()}},
		{"completed installment", []uuid.UUID{payments[0].ID}},
		{"empty selection", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggregate, options, err := PartialQuote(payments, tt.selected, tenPercent, testNow)

			assert.Nil(t, aggregate)
			assert.Nil(t, options)
			assert.ErrorIs(t, err, customError.ErrInvalidSelection)
		})
	}
}

func TestCustomQuote(t *testing.T) {
	payments := remainingSchedule()

	option, err := CustomQuote(payments, decimal.NewFromInt(150), tenPercent, testNow)

	assert.NoError(t, err)
	assert.True(t, option.OriginalAmount.Equal(decimal.NewFromInt(150)))
	assert.True(t, option.DiscountAmount.Equal(decimal.NewFromInt(15)))
	assert.True(t, option.FinalAmount.Equal(decimal.NewFromInt(135)))
}

func TestCustomQuote_CappedAtScheduledBalance(t *testing.T) {
	payments := remainingSchedule()

	option, err := CustomQuote(payments, decimal.NewFromInt(1000), tenPercent, testNow)

	assert.NoError(t, err)
	assert.True(t, option.OriginalAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, option.FinalAmount.LessThanOrEqual(option.OriginalAmount))
	assert.True(t, option.DiscountAmount.LessThanOrEqual(decimal.NewFromInt(1000)))
}

func TestCustomQuote_NonPositiveAmount(t *testing.T) {
	payments := remainingSchedule()

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-50)} {
		option, err := CustomQuote(payments, amount, tenPercent, testNow)

		assert.Nil(t, option)
		assert.ErrorIs(t, err, customError.ErrInvalidPaymentAmount)
	}
}

func TestBestOption(t *testing.T) {
	full := &domain.EarlyPaymentOption{
		PaymentType: domain.EarlyPaymentTypeFull,
		NetSavings:  decimal.NewFromInt(20),
	}
	partial := &domain.EarlyPaymentOption{
		PaymentType: domain.EarlyPaymentTypePartial,
		NetSavings:  decimal.NewFromInt(12),
	}

	assert.Same(t, full, BestOption([]*domain.EarlyPaymentOption{partial, full}))

	// Tie prefers full regardless of position.
	tiedPartial := &domain.EarlyPaymentOption{
		PaymentType: domain.EarlyPaymentTypePartial,
		NetSavings:  decimal.NewFromInt(20),
	}
	assert.Same(t, full, BestOption([]*domain.EarlyPaymentOption{tiedPartial, full}))
	assert.Same(t, full, BestOption([]*domain.EarlyPaymentOption{full, tiedPartial}))

	assert.Nil(t, BestOption(nil))
}

func TestSimulate(t *testing.T) {
	payments := remainingSchedule()
	amount := decimal.NewFromInt(50)

	scenarios := []domain.PayoffScenario{
		{PaymentType: domain.EarlyPaymentTypeFull},
		{PaymentType: domain.EarlyPaymentTypePartial, InstallmentIDs: []uuid.UUID{payments[1].ID}},
		{PaymentType: domain.EarlyPaymentTypePartial, Amount: &amount},
	}

	results, err := Simulate(payments, scenarios, tenPercent, testNow)

	assert.NoError(t, err)
	assert.Len(t, results, 3)

	// Scores order by net savings: full (20) > one installment (10) > custom (5).
	assert.True(t, results[0].RecommendationScore.GreaterThan(results[1].RecommendationScore))
	assert.True(t, results[1].RecommendationScore.GreaterThan(results[2].RecommendationScore))
}

func TestSimulate_FullWinsSavingsTie(t *testing.T) {
	payments := remainingSchedule()

	// Selecting every scheduled installment yields the same savings as full.
	scenarios := []domain.PayoffScenario{
		{PaymentType: domain.EarlyPaymentTypePartial, InstallmentIDs: []uuid.UUID{payments[1].ID, payments[2].ID}},
		{PaymentType: domain.EarlyPaymentTypeFull},
	}

	results, err := Simulate(payments, scenarios, tenPercent, testNow)

	assert.NoError(t, err)
	assert.True(t, results[0].Option.NetSavings.Equal(results[1].Option.NetSavings))
	assert.True(t, results[1].RecommendationScore.GreaterThan(results[0].RecommendationScore))
}

func TestSimulate_InvalidScenario(t *testing.T) {
	payments := remainingSchedule()

	results, err := Simulate(payments, []domain.PayoffScenario{
		{PaymentType: domain.EarlyPaymentTypePartial},
	}, tenPercent, testNow)

	assert.Nil(t, results)
	assert.ErrorIs(t, err, customError.ErrInvalidSelection)
}

func TestSortHistory(t *testing.T) {
	older := &domain.EarlyPaymentRecord{
		ID:          uuid.New(),
		ProcessedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := &domain.EarlyPaymentRecord{
		ID:          uuid.New(),
		ProcessedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	input := []*domain.EarlyPaymentRecord{older, newer}
	sorted := SortHistory(input)

	assert.Same(t, newer, sorted[0])
	assert.Same(t, older, sorted[1])

	// Input untouched, repeated calls identical.
	assert.Same(t, older, input[0])
	assert.Equal(t, sorted, SortHistory(input))
}

func TestSummarize(t *testing.T) {
	records := []*domain.EarlyPaymentRecord{
		{
			Status:         domain.EarlyPaymentStatusCompleted,
			OriginalAmount: decimal.NewFromInt(300),
			Savings:        decimal.NewFromInt(30),
		},
		{
			Status:         domain.EarlyPaymentStatusCompleted,
			OriginalAmount: decimal.NewFromInt(200),
			Savings:        decimal.NewFromInt(20),
		},
		{
			Status:         domain.EarlyPaymentStatusFailed,
			OriginalAmount: decimal.NewFromInt(999),
			Savings:        decimal.NewFromInt(99),
		},
	}

	summary := Summarize(records)

	assert.Equal(t, 2, summary.Count)
	assert.True(t, summary.TotalOriginalAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, summary.TotalSavings.Equal(decimal.NewFromInt(50)))
	assert.True(t, summary.SavingsRate.Equal(decimal.NewFromInt(10)))
	assert.True(t, summary.AverageSavings.Equal(decimal.NewFromInt(25)))
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.Count)
	assert.True(t, summary.SavingsRate.IsZero())
	assert.True(t, summary.AverageSavings.IsZero())
}

func TestTimeDecayDiscountPolicy(t *testing.T) {
	policy := TimeDecayDiscountPolicy{
		Rate:        decimal.NewFromFloat(0.10),
		HorizonDays: 90,
	}
	principal := decimal.NewFromInt(100)

	// 45 of 90 days remaining halves the discount.
	assert.True(t, policy.Discount(principal, 45).Equal(decimal.NewFromInt(5)))

	// More than a horizon remaining caps at the full rate.
	assert.True(t, policy.Discount(principal, 180).Equal(decimal.NewFromInt(10)))

	// Nothing remaining earns nothing.
	assert.True(t, policy.Discount(principal, 0).IsZero())
}
