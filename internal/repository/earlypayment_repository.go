package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/flexipay/installment-engine/internal/domain"
)

type earlyPaymentRepository struct {
	db *sqlx.DB
}

func NewEarlyPaymentRepository(db *sqlx.DB) EarlyPaymentRepository {
	return &earlyPaymentRepository{db: db}
}

func (r *earlyPaymentRepository) Create(ctx context.Context, record *domain.EarlyPaymentRecord) error {
	query := `
		INSERT INTO early_payments (id, transaction_id, original_amount, final_amount, savings,
			processed_at, status, payment_method_brand, payment_method_last4, covered_installment_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	covered := make([]string, 0, len(record.CoveredInstallmentIDs))
	for _, id := range record.CoveredInstallmentIDs {
		covered = append(covered, id.String())
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.TransactionID,
		record.OriginalAmount,
		record.FinalAmount,
		record.Savings,
		record.ProcessedAt,
		record.Status,
		record.PaymentMethodBrand,
		record.PaymentMethodLast4,
		pq.Array(covered),
	)

	return err
}

func (r *earlyPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EarlyPaymentRecord, error) {
	query := `
		SELECT id, transaction_id, original_amount, final_amount, savings,
			processed_at, status, payment_method_brand, payment_method_last4, covered_installment_ids
		FROM early_payments
		WHERE id = $1
	`

	var record domain.EarlyPaymentRecord
	var covered pq.StringArray
	row := r.db.QueryRowxContext(ctx, query, id)
	err := row.Scan(
		&record.ID,
		&record.TransactionID,
		&record.OriginalAmount,
		&record.FinalAmount,
		&record.Savings,
		&record.ProcessedAt,
		&record.Status,
		&record.PaymentMethodBrand,
		&record.PaymentMethodLast4,
		&covered,
	)
	if err != nil {
		return nil, err
	}

	record.CoveredInstallmentIDs, err = parseUUIDs(covered)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *earlyPaymentRepository) ListByTransactionID(ctx context.Context, transactionID string) ([]*domain.EarlyPaymentRecord, error) {
	query := `
		SELECT id, transaction_id, original_amount, final_amount, savings,
			processed_at, status, payment_method_brand, payment_method_last4, covered_installment_ids
		FROM early_payments
		WHERE transaction_id = $1
		ORDER BY processed_at DESC
	`

	rows, err := r.db.QueryxContext(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.EarlyPaymentRecord
	for rows.Next() {
		var record domain.EarlyPaymentRecord
		var covered pq.StringArray
		err = rows.Scan(
			&record.ID,
			&record.TransactionID,
			&record.OriginalAmount,
			&record.FinalAmount,
			&record.Savings,
			&record.ProcessedAt,
			&record.Status,
			&record.PaymentMethodBrand,
			&record.PaymentMethodLast4,
			&covered,
		)
		if err != nil {
			return nil, err
		}

		record.CoveredInstallmentIDs, err = parseUUIDs(covered)
		if err != nil {
			return nil, err
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

func (r *earlyPaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE early_payments
		SET status = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, status)
	return err
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
