package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionStatusActive    = "active"
	TransactionStatusCompleted = "completed"
	TransactionStatusCancelled = "cancelled"
)

// Payment statuses. A payment moves scheduled -> processing -> completed,
// processing -> failed, failed -> scheduled on retry. An early payoff may
// move scheduled -> completed directly.
const (
	PaymentStatusScheduled  = "scheduled"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
)

// Supported installment plans (number of installments).
const (
	PaymentPlanTwo   = 2
	PaymentPlanThree = 3
	PaymentPlanFour  = 4
)

// Transaction represents one BNPL purchase and owns its installment payments.
type Transaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaymentPlan   int             `json:"payment_plan" db:"payment_plan"`
	Status        string          `json:"status" db:"status"`
	Items         []Item          `json:"items" db:"-"`
	Payments      []*Payment      `json:"payments" db:"-"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Item is a purchase line item. The engine never inspects these beyond
// carrying them through.
type Item struct {
	ID       uuid.UUID       `json:"id" db:"id"`
	Name     string          `json:"name" db:"name"`
	Quantity int             `json:"quantity" db:"quantity"`
	Price    decimal.Decimal `json:"price" db:"price"`
}

// Payment represents one scheduled installment within a transaction.
type Payment struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	TransactionID     string          `json:"transaction_id" db:"transaction_id"`
	InstallmentNumber int             `json:"installment_number" db:"installment_number"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	DueDate           time.Time       `json:"due_date" db:"due_date"`
	Status            string          `json:"status" db:"status"`
	PaymentDate       *time.Time      `json:"payment_date,omitempty" db:"payment_date"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// IsTerminal reports whether the payment has reached a state this engine
// treats as final. A failed payment may still be rescheduled by external
// retry policy.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed
}

// ValidPaymentPlan reports whether n is a supported installment count.
func ValidPaymentPlan(n int) bool {
	return n == PaymentPlanTwo || n == PaymentPlanThree || n == PaymentPlanFour
}

// DTOs for requests and responses

type CreateTransactionRequest struct {
	TransactionID string          `json:"transaction_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	PaymentPlan   int             `json:"payment_plan" validate:"required,oneof=2 3 4"`
	Items         []Item          `json:"items"`
}

type TransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type ScheduleResponse struct {
	TransactionID string     `json:"transaction_id"`
	Payments      []*Payment `json:"payments"`
}
