package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/flexipay/installment-engine/internal/domain"
	"github.com/flexipay/installment-engine/internal/processor"
)

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, transactionID string, status string) error {
	args := m.Called(ctx, transactionID, status)
	return args.Error(0)
}

func (m *MockTransactionRepository) CreatePayments(ctx context.Context, payments []*domain.Payment) error {
	args := m.Called(ctx, payments)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetPaymentsByTransactionID(ctx context.Context, transactionID string) ([]*domain.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockTransactionRepository) UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status string, paymentDate *time.Time) error {
	args := m.Called(ctx, paymentID, status, paymentDate)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetOverduePayments(ctx context.Context, currentDate time.Time) ([]*domain.Payment, error) {
	args := m.Called(ctx, currentDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

type MockEarlyPaymentRepository struct {
	mock.Mock
}

func (m *MockEarlyPaymentRepository) Create(ctx context.Context, record *domain.EarlyPaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockEarlyPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EarlyPaymentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EarlyPaymentRecord), args.Error(1)
}

func (m *MockEarlyPaymentRepository) ListByTransactionID(ctx context.Context, transactionID string) ([]*domain.EarlyPaymentRecord, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EarlyPaymentRecord), args.Error(1)
}

func (m *MockEarlyPaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockSettlementProcessor struct {
	mock.Mock
}

func (m *MockSettlementProcessor) SubmitPayoff(ctx context.Context, req *processor.PayoffRequest) (*domain.EarlyPaymentRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EarlyPaymentRecord), args.Error(1)
}

func (m *MockSettlementProcessor) CancelPayoff(ctx context.Context, recordID uuid.UUID) (string, error) {
	args := m.Called(ctx, recordID)
	return args.String(0), args.Error(1)
}
