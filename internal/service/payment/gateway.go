package payment

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Config — параметры заглушки платёжного шлюза.
type Config struct {
	// RedirectBaseURL — адрес страницы оплаты для momo и vnpay.
	RedirectBaseURL string
	// BankAccount — реквизиты для перевода.
	BankAccount string
}

// StubGateway выдаёт инструкции по оплате без обращения к реальным провайдерам.
type StubGateway struct {
	cfg Config
}

// NewStubGateway создаёт заглушку шлюза.
func NewStubGateway(cfg Config) *StubGateway {
	cfg.RedirectBaseURL = strings.TrimRight(strings.TrimSpace(cfg.RedirectBaseURL), "/")
	return &StubGateway{cfg: cfg}
}

// Initiate возвращает инструкцию для способа оплаты заказа.
func (g *StubGateway) Initiate(ctx context.Context, order domain.Order) (domain.PaymentInstruction, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentInstruction{}, err
	}

	out := domain.PaymentInstruction{Method: order.PaymentMethod, Reference: order.OrderCode}
	switch order.PaymentMethod {
	case domain.PaymentMethodCOD:
		out.Instructions = fmt.Sprintf("Thanh toán %d VND khi nhận hàng", order.Total)
	case domain.PaymentMethodBankTransfer:
		out.Instructions = fmt.Sprintf("Chuyển khoản %d VND tới %s với nội dung %s", order.Total, g.cfg.BankAccount, order.OrderCode)
	case domain.PaymentMethodMomo, domain.PaymentMethodVNPay:
		if g.cfg.RedirectBaseURL == "" {
			return domain.PaymentInstruction{}, fmt.Errorf("payment redirect url is not configured for %s", order.PaymentMethod)
		}
		q := url.Values{}
		q.Set("orderCode", order.OrderCode)
		q.Set("amount", strconv.FormatInt(order.Total, 10))
		out.RedirectURL = g.cfg.RedirectBaseURL + "/" + string(order.PaymentMethod) + "?" + q.Encode()
	default:
		return domain.PaymentInstruction{}, fmt.Errorf("%w: %q", domain.ErrPaymentMethodInvalid, order.PaymentMethod)
	}
	return out, nil
}

var _ domain.PaymentGateway = (*StubGateway)(nil)
