package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/flexipay/installment-engine/internal/domain"
)

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, transaction_id, amount, payment_plan, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		txn.ID,
		txn.TransactionID,
		txn.Amount,
		txn.PaymentPlan,
		txn.Status,
		txn.CreatedAt,
		txn.UpdatedAt,
	)

	return err
}

func (r *transactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `
		SELECT id, transaction_id, amount, payment_plan, status, created_at, updated_at
		FROM transactions
		WHERE transaction_id = $1
	`

	var txn domain.Transaction
	if err := r.db.GetContext(ctx, &txn, query, transactionID); err != nil {
		return nil, err
	}

	payments, err := r.GetPaymentsByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	txn.Payments = payments

	return &txn, nil
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, transactionID string, status string) error {
	query := `
		UPDATE transactions
		SET status = $2, updated_at = $3
		WHERE transaction_id = $1
	`

	_, err := r.db.ExecContext(ctx, query, transactionID, status, time.Now())
	return err
}

func (r *transactionRepository) CreatePayments(ctx context.Context, payments []*domain.Payment) error {
	query := `
		INSERT INTO payments (id, transaction_id, installment_number, amount, due_date, status, payment_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, payment := range payments {
		_, err = tx.ExecContext(ctx, query,
			payment.ID,
			payment.TransactionID,
			payment.InstallmentNumber,
			payment.Amount,
			payment.DueDate,
			payment.Status,
			payment.PaymentDate,
			payment.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *transactionRepository) GetPaymentsByTransactionID(ctx context.Context, transactionID string) ([]*domain.Payment, error) {
	query := `
		SELECT id, transaction_id, installment_number, amount, due_date, status, payment_date, created_at
		FROM payments
		WHERE transaction_id = $1
		ORDER BY installment_number
	`

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query, transactionID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *transactionRepository) UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status string, paymentDate *time.Time) error {
	query := `
		UPDATE payments
		SET status = $2, payment_date = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, paymentID, status, paymentDate)
	return err
}

func (r *transactionRepository) GetOverduePayments(ctx context.Context, currentDate time.Time) ([]*domain.Payment, error) {
	query := `
		SELECT id, transaction_id, installment_number, amount, due_date, status, payment_date, created_at
		FROM payments
		WHERE status = 'scheduled' AND due_date < $1
		ORDER BY due_date
	`

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query, currentDate); err != nil {
		return nil, err
	}

	return payments, nil
}
