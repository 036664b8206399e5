package settlement

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flexipay/installment-engine/internal/domain"
	customError "github.com/flexipay/installment-engine/pkg/errors"
	"github.com/flexipay/installment-engine/pkg/utils"
)

// fullTieBreak is added to the recommendation score of full payoffs. It is
// smaller than one cent of savings, so it only ever decides ties.
var fullTieBreak = decimal.New(1, -3)

// ScheduledPayments filters a payment list down to installments still in the
// scheduled state, the only ones an early payoff can cover.
func ScheduledPayments(payments []*domain.Payment) []*domain.Payment {
	scheduled := make([]*domain.Payment, 0, len(payments))
	for _, p := range payments {
		if p.Status == domain.PaymentStatusScheduled {
			scheduled = append(scheduled, p)
		}
	}
	return scheduled
}

// FullQuote computes the payoff option covering every scheduled installment.
func FullQuote(payments []*domain.Payment, policy DiscountPolicy, now time.Time) (*domain.EarlyPaymentOption, error) {
	scheduled := ScheduledPayments(payments)
	if len(scheduled) == 0 {
		return nil, customError.ErrNoScheduledInstallments
	}

	original := decimal.Zero
	ids := make([]uuid.UUID, 0, len(scheduled))
	for _, p := range scheduled {
		original = original.Add(p.Amount)
		ids = append(ids, p.ID)
	}

	discount := clampDiscount(policy.Discount(original, daysRemaining(scheduled, now)), original)

	return &domain.EarlyPaymentOption{
		PaymentType:           domain.EarlyPaymentTypeFull,
		OriginalAmount:        original,
		DiscountAmount:        discount,
		FinalAmount:           original.Sub(discount),
		NetSavings:            discount,
		CoveredInstallmentIDs: ids,
	}, nil
}

// PartialQuote computes per-installment options for a selected subset of
// scheduled installments plus the aggregate across the selection. Selection
// ids that do not name a scheduled installment of this schedule are an
// InvalidSelection error.
func PartialQuote(payments []*domain.Payment, selected []uuid.UUID, policy DiscountPolicy, now time.Time) (*domain.EarlyPaymentOption, []domain.PartialPaymentOption, error) {
	scheduled := ScheduledPayments(payments)
	if len(scheduled) == 0 {
		return nil, nil, customError.ErrNoScheduledInstallments
	}
	if len(selected) == 0 {
		return nil, nil, customError.WrapInvalidSelection("no installments selected")
	}

	byID := make(map[uuid.UUID]*domain.Payment, len(scheduled))
	for _, p := range scheduled {
		byID[p.ID] = p
	}

	options := make([]domain.PartialPaymentOption, 0, len(selected))
	aggregate := &domain.EarlyPaymentOption{
		PaymentType:    domain.EarlyPaymentTypePartial,
		OriginalAmount: decimal.Zero,
		DiscountAmount: decimal.Zero,
	}

	for _, id := range selected {
		p, ok := byID[id]
		if !ok {
			return nil, nil, customError.WrapInvalidSelection(
				fmt.Sprintf("installment %s is not a scheduled installment of this transaction", id))
		}

		days := utils.CeilDaysBetween(now, p.DueDate)
		discount := clampDiscount(policy.Discount(p.Amount, days), p.Amount)

		options = append(options, domain.PartialPaymentOption{
			InstallmentID:  p.ID,
			Selected:       true,
			OriginalAmount: p.Amount,
			DiscountAmount: discount,
			FinalAmount:    p.Amount.Sub(discount),
			NetSavings:     discount,
		})

		aggregate.OriginalAmount = aggregate.OriginalAmount.Add(p.Amount)
		aggregate.DiscountAmount = aggregate.DiscountAmount.Add(discount)
		aggregate.CoveredInstallmentIDs = append(aggregate.CoveredInstallmentIDs, p.ID)
	}

	aggregate.FinalAmount = aggregate.OriginalAmount.Sub(aggregate.DiscountAmount)
	aggregate.NetSavings = aggregate.DiscountAmount

	return aggregate, options, nil
}

// CustomQuote quotes an arbitrary payoff amount not tied to installment
// boundaries. The quoted principal is capped at the scheduled balance and the
// discount never exceeds the proposed amount.
func CustomQuote(payments []*domain.Payment, amount decimal.Decimal, policy DiscountPolicy, now time.Time) (*domain.EarlyPaymentOption, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, customError.WrapInvalidPaymentAmount(amount.String())
	}

	scheduled := ScheduledPayments(payments)
	if len(scheduled) == 0 {
		return nil, customError.ErrNoScheduledInstallments
	}

	balance := decimal.Zero
	for _, p := range scheduled {
		balance = balance.Add(p.Amount)
	}

	principal := amount
	if principal.GreaterThan(balance) {
		principal = balance
	}

	discount := clampDiscount(policy.Discount(principal, daysRemaining(scheduled, now)), principal)

	return &domain.EarlyPaymentOption{
		PaymentType:    domain.EarlyPaymentTypePartial,
		OriginalAmount: principal,
		DiscountAmount: discount,
		FinalAmount:    principal.Sub(discount),
		NetSavings:     discount,
	}, nil
}

// BestOption picks the option with the greatest net savings. Ties prefer a
// full payoff over a partial one. Returns nil for an empty list.
func BestOption(options []*domain.EarlyPaymentOption) *domain.EarlyPaymentOption {
	var best *domain.EarlyPaymentOption
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if best == nil {
			best = opt
			continue
		}
		if opt.NetSavings.GreaterThan(best.NetSavings) {
			best = opt
			continue
		}
		if opt.NetSavings.Equal(best.NetSavings) &&
			opt.PaymentType == domain.EarlyPaymentTypeFull &&
			best.PaymentType != domain.EarlyPaymentTypeFull {
			best = opt
		}
	}
	return best
}

// Simulate quotes each hypothetical scenario against the same schedule. The
// recommendation score equals the net savings, with a sub-cent bonus for full
// payoffs so that ordering by savings is preserved and ties go to full.
func Simulate(payments []*domain.Payment, scenarios []domain.PayoffScenario, policy DiscountPolicy, now time.Time) ([]domain.ScenarioResult, error) {
	results := make([]domain.ScenarioResult, 0, len(scenarios))

	for _, sc := range scenarios {
		at := now
		if sc.PaymentDate != nil {
			at = *sc.PaymentDate
		}

		var (
			option *domain.EarlyPaymentOption
			err    error
		)

		switch {
		case sc.PaymentType == domain.EarlyPaymentTypeFull:
			option, err = FullQuote(payments, policy, at)
		case len(sc.InstallmentIDs) > 0:
			option, _, err = PartialQuote(payments, sc.InstallmentIDs, policy, at)
		case sc.Amount != nil:
			option, err = CustomQuote(payments, *sc.Amount, policy, at)
		default:
			err = customError.WrapInvalidSelection("partial scenario needs installment ids or an amount")
		}
		if err != nil {
			return nil, err
		}

		score := option.NetSavings
		if option.PaymentType == domain.EarlyPaymentTypeFull {
			score = score.Add(fullTieBreak)
		}

		results = append(results, domain.ScenarioResult{
			Option:              *option,
			RecommendationScore: score,
		})
	}

	return results, nil
}

// SortHistory returns the records ordered by processing time, newest first.
// The sort is stable, so identical input always yields identical output.
func SortHistory(records []*domain.EarlyPaymentRecord) []*domain.EarlyPaymentRecord {
	sorted := make([]*domain.EarlyPaymentRecord, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].ProcessedAt.Before(sorted[i].ProcessedAt)
	})

	return sorted
}

// Summarize aggregates completed early-payment records. Degenerate inputs
// produce defined zeros rather than errors.
func Summarize(records []*domain.EarlyPaymentRecord) domain.EarlyPaymentSummary {
	summary := domain.EarlyPaymentSummary{
		TotalOriginalAmount: decimal.Zero,
		TotalSavings:        decimal.Zero,
		SavingsRate:         decimal.Zero,
		AverageSavings:      decimal.Zero,
	}

	for _, r := range records {
		if r.Status != domain.EarlyPaymentStatusCompleted {
			continue
		}
		summary.Count++
		summary.TotalOriginalAmount = summary.TotalOriginalAmount.Add(r.OriginalAmount)
		summary.TotalSavings = summary.TotalSavings.Add(r.Savings)
	}

	summary.SavingsRate = utils.Percentage(summary.TotalSavings, summary.TotalOriginalAmount)
	if summary.Count > 0 {
		summary.AverageSavings = summary.TotalSavings.Div(decimal.NewFromInt(int64(summary.Count))).Round(2)
	}

	return summary
}

// daysRemaining measures the ceiling day distance from now to the last
// scheduled due date, the "time remaining" input to discount policies.
func daysRemaining(scheduled []*domain.Payment, now time.Time) int {
	var last time.Time
	for _, p := range scheduled {
		if p.DueDate.After(last) {
			last = p.DueDate
		}
	}
	return utils.CeilDaysBetween(now, last)
}
