package payment

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// MockGateway — конфигурируемая заглушка PaymentGateway для тестов.
type MockGateway struct {
	mu          sync.Mutex
	Instruction domain.PaymentInstruction
	Err         error
	calls       []string
}

// NewMockGateway возвращает mock с успешным сценарием по умолчанию.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Initiate возвращает заранее настроенный результат и запоминает коды заказов.
func (m *MockGateway) Initiate(_ context.Context, order domain.Order) (domain.PaymentInstruction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, order.OrderCode)
	if m.Err != nil {
		return domain.PaymentInstruction{}, m.Err
	}
	out := m.Instruction
	if out.Method == "" {
		out.Method = order.PaymentMethod
	}
	if out.Reference == "" {
		out.Reference = order.OrderCode
	}
	return out, nil
}

// Calls возвращает коды заказов, для которых вызывался Initiate.
func (m *MockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
