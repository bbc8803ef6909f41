package mocks

import "github.com/stretchr/testify/mock"

// MockMailManager records outbound mail instead of sending it.
type MockMailManager struct {
	mock.Mock
}

func (m *MockMailManager) SendActivationMail(email, name, token string, userId int64) error {
	args := m.Called(email, name, token, userId)
	return args.Error(0)
}

func (m *MockMailManager) SendPasswordResetMail(email, name, token string, userId int64) error {
	args := m.Called(email, name, token, userId)
	return args.Error(0)
}

func (m *MockMailManager) SendConfirmationMail(email, name string) error {
	args := m.Called(email, name)
	return args.Error(0)
}
