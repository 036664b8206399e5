package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flexipay/installment-engine/internal/config"
	"github.com/flexipay/installment-engine/internal/domain"
	"github.com/flexipay/installment-engine/internal/processor"
	"github.com/flexipay/installment-engine/internal/repository"
	"github.com/flexipay/installment-engine/internal/schedule"
	"github.com/flexipay/installment-engine/internal/settlement"
	customError "github.com/flexipay/installment-engine/pkg/errors"
	"github.com/flexipay/installment-engine/pkg/utils"
)

type SettlementService struct {
	TxnRepo   repository.TransactionRepository
	EarlyRepo repository.EarlyPaymentRepository
	Processor processor.SettlementProcessor
	redis     *redis.Client
	config    *config.Config
}

func NewSettlementService(
	txnRepo repository.TransactionRepository,
	earlyRepo repository.EarlyPaymentRepository,
	proc processor.SettlementProcessor,
	redisClient *redis.Client,
	cfg *config.Config,
) *SettlementService {
	return &SettlementService{
		TxnRepo:   txnRepo,
		EarlyRepo: earlyRepo,
		Processor: proc,
		redis:     redisClient,
		config:    cfg,
	}
}

// CreateTransaction creates a new transaction with its installment schedule.
// Installments split the total evenly (last one absorbs rounding), the first
// due at checkout and the rest at monthly intervals.
func (s *SettlementService) CreateTransaction(ctx context.Context, request *domain.CreateTransactionRequest) (*domain.Transaction, error) {
	if !domain.ValidPaymentPlan(request.PaymentPlan) {
		return nil, customError.WrapInvalidPaymentPlan(request.PaymentPlan)
	}
	if request.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, customError.WrapInvalidPaymentAmount(request.Amount.String())
	}

	existing, err := s.TxnRepo.GetByTransactionID(ctx, request.TransactionID)
	if err == nil && existing != nil {
		return nil, customError.WrapTransactionExists(request.TransactionID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	now := time.Now()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: request.TransactionID,
		Amount:        request.Amount,
		PaymentPlan:   request.PaymentPlan,
		Status:        domain.TransactionStatusActive,
		Items:         request.Items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	amounts := utils.SplitAmount(request.Amount, request.PaymentPlan)
	startDate := now.Truncate(24 * time.Hour)

	payments := make([]*domain.Payment, 0, request.PaymentPlan)
	for i, amount := range amounts {
		payments = append(payments, &domain.Payment{
			ID:                uuid.New(),
			TransactionID:     request.TransactionID,
			InstallmentNumber: i + 1,
			Amount:            amount,
			DueDate:           startDate.AddDate(0, i, 0),
			Status:            domain.PaymentStatusScheduled,
			CreatedAt:         now,
		})
	}
	txn.Payments = payments

	if err = s.TxnRepo.Create(ctx, txn); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if err = s.TxnRepo.CreatePayments(ctx, payments); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return txn, nil
}

// GetSchedule returns a transaction's installments in the requested order
// along with the structural validation report.
func (s *SettlementService) GetSchedule(ctx context.Context, transactionID string, opts schedule.SortOptions) ([]*domain.Payment, schedule.ValidationResult, error) {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return nil, schedule.ValidationResult{}, err
	}

	report := schedule.ValidateTransaction(txn, s.config.Business.RoundingToleranceCents)
	sorted := schedule.SortPayments(txn.Payments, opts)

	return sorted, report, nil
}

// GetProgress returns the paid/remaining breakdown for a transaction,
// serving from cache when a fresh snapshot exists.
func (s *SettlementService) GetProgress(ctx context.Context, transactionID string) (schedule.Progress, error) {
	cacheKey := fmt.Sprintf("txn:progress:%s", transactionID)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var progress schedule.Progress
			if err := json.Unmarshal([]byte(cached), &progress); err == nil {
				return progress, nil
			}
		}
	}

	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return schedule.Progress{}, err
	}

	progress := schedule.GetProgress(txn.Payments)

	if s.redis != nil {
		if data, err := json.Marshal(progress); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, s.config.GetQuoteCacheTTL()).Err(); err != nil {
				log.Printf("cache progress for %s: %v", transactionID, err)
			}
		}
	}

	return progress, nil
}

// GetNextPayment classifies a transaction's scheduled installments around the
// given instant.
func (s *SettlementService) GetNextPayment(ctx context.Context, transactionID string, now time.Time) (schedule.NextPaymentInfo, error) {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return schedule.NextPaymentInfo{}, err
	}

	return schedule.GetNextPaymentInfo(txn.Payments, now), nil
}

// QuoteFull quotes paying off every remaining scheduled installment.
func (s *SettlementService) QuoteFull(ctx context.Context, transactionID string, now time.Time) (*domain.EarlyPaymentOption, error) {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	option, err := settlement.FullQuote(txn.Payments, s.discountPolicy(), now)
	if err != nil {
		return nil, s.mapCalculatorError(err, transactionID)
	}

	return option, nil
}

// QuotePartial quotes paying off a selected subset of scheduled installments.
func (s *SettlementService) QuotePartial(ctx context.Context, transactionID string, installmentIDs []uuid.UUID, now time.Time) (*domain.EarlyPaymentOption, []domain.PartialPaymentOption, error) {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}

	aggregate, options, err := settlement.PartialQuote(txn.Payments, installmentIDs, s.discountPolicy(), now)
	if err != nil {
		return nil, nil, s.mapCalculatorError(err, transactionID)
	}

	return aggregate, options, nil
}

// QuoteCustom quotes an arbitrary payoff amount against the remaining
// scheduled balance.
func (s *SettlementService) QuoteCustom(ctx context.Context, transactionID string, amount decimal.Decimal, now time.Time) (*domain.EarlyPaymentOption, error) {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	option, err := settlement.CustomQuote(txn.Payments, amount, s.discountPolicy(), now)
	if err != nil {
		return nil, s.mapCalculatorError(err, transactionID)
	}

	return option, nil
}

// Simulate quotes a list of hypothetical payoff scenarios.
func (s *SettlementService) Simulate(ctx context.Context, transactionID string, scenarios []domain.PayoffScenario, now time.Time) ([]domain.ScenarioResult, error) {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	results, err := settlement.Simulate(txn.Payments, scenarios, s.discountPolicy(), now)
	if err != nil {
		return nil, s.mapCalculatorError(err, transactionID)
	}

	return results, nil
}

// SubmitPayoff recomputes a fresh quote for the requested selection, submits
// it to the external processor, persists the returned record and, when the
// processor reports completion, marks the covered installments completed.
func (s *SettlementService) SubmitPayoff(ctx context.Context, transactionID string, request *domain.SubmitPayoffRequest) (*domain.EarlyPaymentRecord, error) {
	txn, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var option *domain.EarlyPaymentOption

	if request.PaymentType == domain.EarlyPaymentTypeFull {
		option, err = settlement.FullQuote(txn.Payments, s.discountPolicy(), now)
	} else {
		var ids []uuid.UUID
		ids, err = parseInstallmentIDs(request.InstallmentIDs)
		if err == nil {
			option, _, err = settlement.PartialQuote(txn.Payments, ids, s.discountPolicy(), now)
		}
	}
	if err != nil {
		return nil, s.mapCalculatorError(err, transactionID)
	}

	record, err := s.Processor.SubmitPayoff(ctx, &processor.PayoffRequest{
		TransactionID:   transactionID,
		PaymentType:     option.PaymentType,
		OriginalAmount:  option.OriginalAmount,
		FinalAmount:     option.FinalAmount,
		Savings:         option.NetSavings,
		InstallmentIDs:  option.CoveredInstallmentIDs,
		PaymentMethodID: request.PaymentMethodID,
	})
	if err != nil {
		return nil, customError.WrapProcessorError(err)
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.TransactionID = transactionID
	record.CoveredInstallmentIDs = option.CoveredInstallmentIDs

	if err = s.EarlyRepo.Create(ctx, record); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if record.Status == domain.EarlyPaymentStatusCompleted {
		if err = s.settleInstallments(ctx, txn, option.CoveredInstallmentIDs, record.ProcessedAt); err != nil {
			return nil, err
		}
	}

	s.invalidateCache(ctx, transactionID)

	return record, nil
}

// CancelEarlyPayment asks the processor to cancel an executed payoff and
// reflects the status it reports. The engine never initiates refund logic of
// its own.
func (s *SettlementService) CancelEarlyPayment(ctx context.Context, recordID uuid.UUID) (*domain.EarlyPaymentRecord, error) {
	record, err := s.EarlyRepo.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapRecordNotFound(recordID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	status, err := s.Processor.CancelPayoff(ctx, recordID)
	if err != nil {
		return nil, customError.WrapProcessorError(err)
	}

	if err = s.EarlyRepo.UpdateStatus(ctx, recordID, status); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	record.Status = status
	s.invalidateCache(ctx, record.TransactionID)

	return record, nil
}

// GetHistory returns a transaction's early payment records newest first,
// together with the completed-only summary.
func (s *SettlementService) GetHistory(ctx context.Context, transactionID string) ([]*domain.EarlyPaymentRecord, domain.EarlyPaymentSummary, error) {
	records, err := s.EarlyRepo.ListByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, domain.EarlyPaymentSummary{}, customError.WrapDatabaseError(err)
	}

	sorted := settlement.SortHistory(records)
	return sorted, settlement.Summarize(sorted), nil
}

// ListOverduePayments reports scheduled installments already past due at the
// given instant. Classification only; the engine drives no transitions.
func (s *SettlementService) ListOverduePayments(ctx context.Context, now time.Time) ([]*domain.Payment, error) {
	payments, err := s.TxnRepo.GetOverduePayments(ctx, now)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

func (s *SettlementService) getTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.TxnRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapTransactionNotFound(transactionID)
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return txn, nil
}

func (s *SettlementService) settleInstallments(ctx context.Context, txn *domain.Transaction, ids []uuid.UUID, paidAt time.Time) error {
	for _, id := range ids {
		if err := s.TxnRepo.UpdatePaymentStatus(ctx, id, domain.PaymentStatusCompleted, &paidAt); err != nil {
			return customError.WrapDatabaseError(err)
		}
	}

	covered := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		covered[id] = true
	}

	allDone := true
	for _, p := range txn.Payments {
		if covered[p.ID] {
			continue
		}
		if p.Status != domain.PaymentStatusCompleted {
			allDone = false
			break
		}
	}

	if allDone {
		if err := s.TxnRepo.UpdateStatus(ctx, txn.TransactionID, domain.TransactionStatusCompleted); err != nil {
			return customError.WrapDatabaseError(err)
		}
	}

	return nil
}

// discountPolicy builds the configured policy: time-decayed when a horizon is
// set, flat rate otherwise.
func (s *SettlementService) discountPolicy() settlement.DiscountPolicy {
	rate := s.config.GetDefaultDiscountRate()
	if s.config.Business.DiscountHorizonDays > 0 {
		return settlement.TimeDecayDiscountPolicy{
			Rate:        rate,
			HorizonDays: s.config.Business.DiscountHorizonDays,
		}
	}
	return settlement.RateDiscountPolicy{Rate: rate}
}

func (s *SettlementService) invalidateCache(ctx context.Context, transactionID string) {
	if s.redis == nil {
		return
	}
	cacheKey := fmt.Sprintf("txn:progress:%s", transactionID)
	if err := s.redis.Del(ctx, cacheKey).Err(); err != nil {
		log.Printf("invalidate cache for %s: %v", transactionID, err)
	}
}

func (s *SettlementService) mapCalculatorError(err error, transactionID string) error {
	if errors.Is(err, customError.ErrNoScheduledInstallments) {
		return customError.WrapNoScheduledInstallments(transactionID)
	}
	return err
}

func parseInstallmentIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, customError.WrapInvalidSelection(fmt.Sprintf("invalid installment id %q", v))
		}
		ids = append(ids, id)
	}
	return ids, nil
}
