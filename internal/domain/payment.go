package domain

// PaymentInstruction — что показать покупателю после оформления заказа.
type PaymentInstruction struct {
	Method       PaymentMethod
	Reference    string
	RedirectURL  string
	Instructions string
}
