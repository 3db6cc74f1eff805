package mocks

import (
	"context"
	"time"

	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

// MockMerchantDirectory mocks ports.MerchantDirectory
type MockMerchantDirectory struct {
	mock.Mock
}

func (m *MockMerchantDirectory) Lookup(ctx context.Context, posCode string) (*ports.MerchantBanking, error) {
	args := m.Called(ctx, posCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.MerchantBanking), args.Error(1)
}

// MockPaymentProcessor mocks ports.PaymentProcessor
type MockPaymentProcessor struct {
	mock.Mock
}

func (m *MockPaymentProcessor) Authorize(ctx context.Context, req *ports.AuthorizationRequest) (*ports.AuthorizationOutcome, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.AuthorizationOutcome), args.Error(1)
}

// MockRecurringBilling mocks ports.RecurringBilling
type MockRecurringBilling struct {
	mock.Mock
}

func (m *MockRecurringBilling) Register(ctx context.Context, reg *ports.RecurringRegistration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockRecurringBilling) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockMetrics mocks ports.MetricsRecorder
type MockMetrics struct {
	mock.Mock
}

// NewPermissiveMetrics returns a MockMetrics that accepts any call.
func NewPermissiveMetrics() *MockMetrics {
	m := new(MockMetrics)
	m.On("RecordSubmission", mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("RecordMerchantLookup", mock.Anything, mock.Anything).Maybe()
	m.On("RecordProcessorCall", mock.Anything, mock.Anything).Maybe()
	m.On("RecordRecurringRegistration", mock.Anything).Maybe()
	m.On("RecordReconciled", mock.Anything).Maybe()
	return m
}

func (m *MockMetrics) RecordSubmission(channel, outcome string, duration time.Duration) {
	m.Called(channel, outcome, duration)
}

func (m *MockMetrics) RecordMerchantLookup(success bool, duration time.Duration) {
	m.Called(success, duration)
}

func (m *MockMetrics) RecordProcessorCall(outcome string, duration time.Duration) {
	m.Called(outcome, duration)
}

func (m *MockMetrics) RecordRecurringRegistration(success bool) {
	m.Called(success)
}

func (m *MockMetrics) RecordReconciled(count int) {
	m.Called(count)
}
