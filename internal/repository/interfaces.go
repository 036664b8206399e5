package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flexipay/installment-engine/internal/domain"
)

// TransactionRepository defines the interface for transaction data operations
type TransactionRepository interface {
	// Create creates a new transaction
	Create(ctx context.Context, txn *domain.Transaction) error

	// GetByTransactionID retrieves a transaction with its payments
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// UpdateStatus updates a transaction's status
	UpdateStatus(ctx context.Context, transactionID string, status string) error

	// CreatePayments creates installment payment rows
	CreatePayments(ctx context.Context, payments []*domain.Payment) error

	// GetPaymentsByTransactionID retrieves all installments for a transaction
	GetPaymentsByTransactionID(ctx context.Context, transactionID string) ([]*domain.Payment, error)

	// UpdatePaymentStatus updates the status of a single installment
	UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status string, paymentDate *time.Time) error

	// GetOverduePayments gets scheduled installments due before currentDate
	GetOverduePayments(ctx context.Context, currentDate time.Time) ([]*domain.Payment, error)
}

// EarlyPaymentRepository defines the interface for early payment record operations
type EarlyPaymentRepository interface {
	// Create persists a new early payment record
	Create(ctx context.Context, record *domain.EarlyPaymentRecord) error

	// GetByID retrieves a record by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.EarlyPaymentRecord, error)

	// ListByTransactionID retrieves all records for a transaction
	ListByTransactionID(ctx context.Context, transactionID string) ([]*domain.EarlyPaymentRecord, error)

	// UpdateStatus updates a record's status
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
