package testutil

import (
	"context"
	"time"

	"gigsbot/internal/domain"
	"gigsbot/internal/gateway"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock for UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) EnsureUserExists(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepository) GetUser(userID int64) (*domain.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) LinkExternalID(userID int64, externalID string) (bool, error) {
	args := m.Called(userID, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SaveReferral(userID int64, code string, organic bool) error {
	args := m.Called(userID, code, organic)
	return args.Error(0)
}

// MockAttemptRepository is a mock for AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) CreateAttempt(attempt *domain.PaymentAttempt) error {
	args := m.Called(attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) FinishAttempt(trackingID string, status domain.PaymentStatus) error {
	args := m.Called(trackingID, status)
	return args.Error(0)
}

func (m *MockAttemptRepository) ExpirePendingAttempts(olderThan time.Duration) (int64, error) {
	args := m.Called(olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) CleanOldAttempts(days int) (int64, error) {
	args := m.Called(days)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentGateway is a mock for the push-payment endpoints
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) InitiatePush(ctx context.Context, req gateway.InitiateRequest) (gateway.InitiateResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(gateway.InitiateResult), args.Error(1)
}

func (m *MockPaymentGateway) PaymentStatus(ctx context.Context, trackingID string) (domain.PaymentStatus, error) {
	args := m.Called(trackingID)
	return args.Get(0).(domain.PaymentStatus), args.Error(1)
}

// MockReferralGateway is a mock for the referral endpoints
type MockReferralGateway struct {
	mock.Mock
}

func (m *MockReferralGateway) VerifyReferralCode(ctx context.Context, code string) (gateway.VerifyResult, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(gateway.VerifyResult), args.Error(1)
}

func (m *MockReferralGateway) ConfirmReferral(ctx context.Context, req gateway.ConfirmRequest) error {
	args := m.Called(req)
	return args.Error(0)
}
