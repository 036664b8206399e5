package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Early payment types.
const (
	EarlyPaymentTypeFull    = "full"
	EarlyPaymentTypePartial = "partial"
)

// EarlyPaymentRecord statuses.
const (
	EarlyPaymentStatusCompleted       = "completed"
	EarlyPaymentStatusProcessing      = "processing"
	EarlyPaymentStatusFailed          = "failed"
	EarlyPaymentStatusPendingApproval = "pending_approval"
	EarlyPaymentStatusRefunded        = "refunded"
	EarlyPaymentStatusDisputed        = "disputed"
)

// EarlyPaymentOption is a computed payoff quote. Options are ephemeral and
// never persisted; a fresh call supersedes any earlier quote.
type EarlyPaymentOption struct {
	PaymentType           string          `json:"payment_type"`
	OriginalAmount        decimal.Decimal `json:"original_amount"`
	DiscountAmount        decimal.Decimal `json:"discount_amount"`
	FinalAmount           decimal.Decimal `json:"final_amount"`
	NetSavings            decimal.Decimal `json:"net_savings"`
	CoveredInstallmentIDs []uuid.UUID     `json:"covered_installment_ids,omitempty"`
}

// PartialPaymentOption is a per-installment payoff candidate.
type PartialPaymentOption struct {
	InstallmentID  uuid.UUID       `json:"installment_id"`
	Selected       bool            `json:"selected"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	NetSavings     decimal.Decimal `json:"net_savings"`
}

// EarlyPaymentRecord is the durable outcome of an executed early payment.
// It references installments by id and never holds live Payment objects.
type EarlyPaymentRecord struct {
	ID                    uuid.UUID       `json:"id" db:"id"`
	TransactionID         string          `json:"transaction_id" db:"transaction_id"`
	OriginalAmount        decimal.Decimal `json:"original_amount" db:"original_amount"`
	FinalAmount           decimal.Decimal `json:"final_amount" db:"final_amount"`
	Savings               decimal.Decimal `json:"savings" db:"savings"`
	ProcessedAt           time.Time       `json:"processed_at" db:"processed_at"`
	Status                string          `json:"status" db:"status"`
	PaymentMethodBrand    string          `json:"payment_method_brand" db:"payment_method_brand"`
	PaymentMethodLast4    string          `json:"payment_method_last4" db:"payment_method_last4"`
	CoveredInstallmentIDs []uuid.UUID     `json:"covered_installment_ids,omitempty" db:"-"`
}

// PayoffScenario describes one hypothetical early payment for simulation.
// Exactly one of InstallmentIDs or Amount drives a partial scenario; a full
// scenario ignores both.
type PayoffScenario struct {
	PaymentType    string           `json:"payment_type"`
	InstallmentIDs []uuid.UUID      `json:"installment_ids,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	PaymentDate    *time.Time       `json:"payment_date,omitempty"`
}

// ScenarioResult carries the quote for one simulated scenario. The score is
// monotonic in net savings and is the only ranking signal.
type ScenarioResult struct {
	Option              EarlyPaymentOption `json:"option"`
	RecommendationScore decimal.Decimal    `json:"recommendation_score"`
}

// EarlyPaymentSummary aggregates completed early-payment records.
type EarlyPaymentSummary struct {
	Count               int             `json:"count"`
	TotalOriginalAmount decimal.Decimal `json:"total_original_amount"`
	TotalSavings        decimal.Decimal `json:"total_savings"`
	SavingsRate         decimal.Decimal `json:"savings_rate"`
	AverageSavings      decimal.Decimal `json:"average_savings"`
}

// DTOs for requests and responses

type PartialQuoteRequest struct {
	InstallmentIDs []string `json:"installment_ids" validate:"required,min=1,dive,uuid"`
}

type CustomAmountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type SimulateRequest struct {
	Scenarios []PayoffScenario `json:"scenarios" validate:"required,min=1"`
}

type SubmitPayoffRequest struct {
	PaymentType     string   `json:"payment_type" validate:"required,oneof=full partial"`
	InstallmentIDs  []string `json:"installment_ids" validate:"omitempty,dive,uuid"`
	PaymentMethodID string   `json:"payment_method_id" validate:"required"`
}

type QuoteResponse struct {
	TransactionID string                 `json:"transaction_id"`
	Option        *EarlyPaymentOption    `json:"option"`
	Installments  []PartialPaymentOption `json:"installments,omitempty"`
}

type HistoryResponse struct {
	TransactionID string                `json:"transaction_id"`
	Records       []*EarlyPaymentRecord `json:"records"`
	Summary       *EarlyPaymentSummary  `json:"summary"`
}
