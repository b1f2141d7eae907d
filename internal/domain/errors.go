package domain

import "errors"

// Ошибки валидации входных данных.
var (
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQuantityInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка некорректной позиции заказа (товар не найден, снят с продажи и т.п.).
	ErrInvalidOrderItem = errors.New("invalid order item")
	// Ошибка, если идентификатор не является ObjectID.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrShippingAddressIncomplete — в адресе доставки нет обязательного поля.
	ErrShippingAddressIncomplete = errors.New("shipping address is incomplete")
	// Ошибка неподдерживаемого способа оплаты.
	ErrPaymentMethodInvalid = errors.New("payment method is not supported")
	// Ошибка неизвестного статуса заказа.
	ErrOrderStatusInvalid = errors.New("order status is not recognized")
	// Ошибка неизвестного статуса оплаты.
	ErrPaymentStatusInvalid = errors.New("payment status is not recognized")
	// Ошибка отрицательной суммы (скидка, доставка, цена).
	ErrAmountNegative = errors.New("amount must be non-negative")
	// ErrTotalNegative — итог заказа после скидки ушёл в минус.
	ErrTotalNegative = errors.New("order total must be non-negative")
	// ErrInsufficientStock — на складе меньше единиц, чем запрошено.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderNotCancellable — пользователь не может отменить заказ в текущем статусе.
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled, please contact support")
	// ErrOrderNotDeletable — удалять можно только отменённые заказы.
	ErrOrderNotDeletable = errors.New("only cancelled orders can be deleted")
	// Ошибка пустого наименования товара/категории/бренда.
	ErrNameRequired = errors.New("name is required")
	// Ошибка отрицательного остатка.
	ErrStockNegative = errors.New("stock must be non-negative")
	// Ошибка оценки вне диапазона 1..5.
	ErrRatingInvalid = errors.New("rating must be between 1 and 5")
	// Ошибка неизвестного статуса модерации отзыва.
	ErrReviewStatusInvalid = errors.New("review status is not recognized")
	// ErrReviewTextInvalid — пустой ответ администратора или слишком длинный отзыв.
	ErrReviewTextInvalid = errors.New("review text is invalid")
	// Ошибка пустого ключа поиска заказа.
	ErrLookupKeyInvalid = errors.New("lookup key is too short")
)

// Ошибки отсутствующих сущностей.
var (
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound возвращается, если категория не найдена.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrBrandNotFound возвращается, если бренд не найден.
	ErrBrandNotFound = errors.New("brand not found")
	// ErrReviewNotFound возвращается, если отзыв не найден.
	ErrReviewNotFound = errors.New("review not found")
	// ErrCartItemNotFound возвращается, если позиции нет в корзине.
	ErrCartItemNotFound = errors.New("cart item not found")
)

// Ошибки доступа.
var (
	// ErrUnauthorized — запрос без валидного токена.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden — у пользователя нет прав на операцию.
	ErrForbidden = errors.New("forbidden")
)

// Конфликты состояния.
var (
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrInvalidTransition — переход статуса запрещён без admin override.
	ErrInvalidTransition = errors.New("order status transition is not allowed")
	// ErrDuplicateOrderCode — код заказа уже занят.
	ErrDuplicateOrderCode = errors.New("order code already exists")
	// ErrSlugTaken — slug уже используется другой сущностью.
	ErrSlugTaken = errors.New("slug already exists")
	// ErrReviewExists — пользователь уже оставил отзыв на товар.
	ErrReviewExists = errors.New("review for this product already exists")
)

// Ошибки инфраструктуры.
var (
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsValidation сообщает, что ошибка вызвана некорректными входными данными.
func IsValidation(err error) bool {
	return isAny(err, validationErrors)
}

// IsNotFound сообщает, что запрошенной сущности нет.
func IsNotFound(err error) bool {
	return isAny(err, notFoundErrors)
}

// IsConflict сообщает о конфликте с текущим состоянием данных.
func IsConflict(err error) bool {
	return isAny(err, conflictErrors)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var notFoundErrors = []error{
	ErrOrderNotFound,
	ErrProductNotFound,
	ErrCategoryNotFound,
	ErrBrandNotFound,
	ErrReviewNotFound,
	ErrCartItemNotFound,
}

var conflictErrors = []error{
	ErrOrderVersionConflict,
	ErrInvalidTransition,
	ErrDuplicateOrderCode,
	ErrSlugTaken,
	ErrReviewExists,
}

var validationErrors = []error{
	ErrItemsRequired,
	ErrItemQuantityInvalid,
	ErrInvalidOrderItem,
	ErrInvalidID,
	ErrShippingAddressIncomplete,
	ErrPaymentMethodInvalid,
	ErrOrderStatusInvalid,
	ErrPaymentStatusInvalid,
	ErrAmountNegative,
	ErrTotalNegative,
	ErrInsufficientStock,
	ErrOrderNotCancellable,
	ErrOrderNotDeletable,
	ErrNameRequired,
	ErrStockNegative,
	ErrRatingInvalid,
	ErrReviewStatusInvalid,
	ErrReviewTextInvalid,
	ErrLookupKeyInvalid,
	ErrIdempotencyKeyRequired,
	ErrIdempotencyRequestHashRequired,
}
