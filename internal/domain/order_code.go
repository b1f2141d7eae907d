package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// MaxOrderCodeAttempts ограничивает число перегенераций при коллизии кода.
const MaxOrderCodeAttempts = 5

// OrderCodeGenerator выдаёт коды вида ORD + 8 последних цифр unix-ms + 4 случайные цифры.
type OrderCodeGenerator struct {
	now  func() time.Time
	rand func(n int) int
}

// NewOrderCodeGenerator создаёт генератор на системных часах.
func NewOrderCodeGenerator() *OrderCodeGenerator {
	return &OrderCodeGenerator{now: time.Now, rand: rand.IntN}
}

// NewOrderCodeGeneratorWith создаёт генератор с подменёнными часами и источником случайности.
func NewOrderCodeGeneratorWith(now func() time.Time, randIntN func(n int) int) *OrderCodeGenerator {
	g := NewOrderCodeGenerator()
	if now != nil {
		g.now = now
	}
	if randIntN != nil {
		g.rand = randIntN
	}
	return g
}

// Next возвращает очередной кандидат кода.
func (g *OrderCodeGenerator) Next() string {
	ms := g.now().UnixMilli() % 100_000_000
	return fmt.Sprintf("ORD%08d%04d", ms, 1000+g.rand(9000))
}

// Unique перебирает кандидатов, пока exists не скажет, что код свободен.
func (g *OrderCodeGenerator) Unique(exists func(code string) (bool, error)) (string, error) {
	for attempt := 0; attempt < MaxOrderCodeAttempts; attempt++ {
		code := g.Next()
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: no free code after %d attempts", ErrDuplicateOrderCode, MaxOrderCodeAttempts)
}
