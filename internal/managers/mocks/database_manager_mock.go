package mocks

import (
	"github.com/stretchr/testify/mock"

	"microblog/internal/interfaces"
)

// MockDatabaseManager hands out a pgxmock pool in place of the real one.
type MockDatabaseManager struct {
	mock.Mock
}

func (m *MockDatabaseManager) GetPool() interfaces.PgxPoolIface {
	args := m.Called()
	return args.Get(0).(interfaces.PgxPoolIface)
}
