package domain

import (
	"context"
	"time"
)

// ProductRepository описывает хранилище товаров.
type ProductRepository interface {
	// Create сохраняет товар. ErrSlugTaken, если slug занят.
	Create(ctx context.Context, product Product) error
	// Get возвращает товар или ErrProductNotFound.
	Get(ctx context.Context, id string) (Product, error)
	// GetBySlug возвращает товар по slug или ErrProductNotFound.
	GetBySlug(ctx context.Context, slug string) (Product, error)
	// Update перезаписывает редактируемые поля товара.
	Update(ctx context.Context, product Product) error
	// List возвращает страницу товаров и общее число совпадений.
	List(ctx context.Context, filter ProductFilter) ([]Product, int, error)
	// DecrementStock атомарно уменьшает остаток, только если stock >= qty.
	// Возвращает товар после списания, ErrProductNotFound или ErrInsufficientStock.
	DecrementStock(ctx context.Context, id string, qty int) (Product, error)
	// IncrementStock возвращает qty единиц на склад.
	IncrementStock(ctx context.Context, id string, qty int) error
	// IncrementSold увеличивает счётчик продаж.
	IncrementSold(ctx context.Context, id string, qty int) error
	// SetRating полностью перезаписывает агрегат отзывов товара.
	SetRating(ctx context.Context, id string, rating float64, reviews int) error
}

// CategoryRepository описывает хранилище категорий.
type CategoryRepository interface {
	Create(ctx context.Context, category Category) error
	Get(ctx context.Context, id string) (Category, error)
	Update(ctx context.Context, category Category) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, includeInactive bool) ([]Category, error)
}

// BrandRepository описывает хранилище брендов.
type BrandRepository interface {
	Create(ctx context.Context, brand Brand) error
	Get(ctx context.Context, id string) (Brand, error)
	Update(ctx context.Context, brand Brand) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, includeInactive bool) ([]Brand, error)
}

// OrderFilter — параметры выборки заказов.
type OrderFilter struct {
	// UserID пустой только для администраторской выборки.
	UserID string
	Status OrderStatus
	Page   PageRequest
}

// ShippingSearch — поиск заказа по подстроке адреса доставки или кода.
type ShippingSearch struct {
	Text string
	// Phone, если задан, оставляет только заказы, в телефоне которых
	// (без пробелов) есть эта подстрока.
	Phone string
	Limit int
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. ErrDuplicateOrderCode, если код занят.
	Create(ctx context.Context, order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(ctx context.Context, order Order) error
	// Delete удаляет заказ.
	Delete(ctx context.Context, id string) error
	// List возвращает страницу заказов, новые первыми.
	List(ctx context.Context, filter OrderFilter) ([]Order, int, error)
	// CodeExists проверяет занятость кода заказа.
	CodeExists(ctx context.Context, code string) (bool, error)
	// FindByCode ищет заказ по коду без учёта регистра.
	FindByCode(ctx context.Context, code string) (Order, error)
	// FindByIDSuffix ищет заказы по окончанию идентификатора, новые первыми.
	FindByIDSuffix(ctx context.Context, suffix string) ([]Order, error)
	// SearchShipping ищет подстроку в адресе доставки и коде заказа, новые первыми.
	// Фильтр по телефону применяется до ограничения Limit.
	SearchShipping(ctx context.Context, q ShippingSearch) ([]Order, error)
	// HasDeliveredProduct проверяет, получал ли пользователь товар.
	HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error)
}

// CartRepository хранит корзины пользователей.
type CartRepository interface {
	// Get возвращает корзину; если её нет, пустую корзину без ID.
	Get(ctx context.Context, userID string) (Cart, error)
	// Save создаёт или перезаписывает корзину пользователя.
	Save(ctx context.Context, cart Cart) error
}

// ReviewFilter — параметры выборки отзывов.
type ReviewFilter struct {
	ProductID string
	UserID    string
	Status    ReviewStatus
	Page      PageRequest
}

// ReviewRepository хранит отзывы.
type ReviewRepository interface {
	// Create сохраняет отзыв. ErrReviewExists для повторной пары пользователь/товар.
	Create(ctx context.Context, review Review) error
	Get(ctx context.Context, id string) (Review, error)
	Update(ctx context.Context, review Review) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ReviewFilter) ([]Review, int, error)
	// ApprovedStats возвращает сумму и количество одобренных оценок товара.
	ApprovedStats(ctx context.Context, productID string) (RatingStats, error)
}

// WishlistRepository хранит избранное.
type WishlistRepository interface {
	// Get возвращает избранное; если его нет, пустое без ID.
	Get(ctx context.Context, userID string) (Wishlist, error)
	Save(ctx context.Context, wishlist Wishlist) error
}

// StockMovementRepository — журнал складских движений.
type StockMovementRepository interface {
	Append(ctx context.Context, movements ...StockMovement) error
	ListByOrder(ctx context.Context, orderID string) ([]StockMovement, error)
	ListByProduct(ctx context.Context, productID string, limit int) ([]StockMovement, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(ctx context.Context, key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(ctx context.Context, key string) (IdempotencyRecord, error)
	MarkDone(ctx context.Context, key string, responseBody []byte, httpStatus int) error
	MarkFailed(ctx context.Context, key string, responseBody []byte, httpStatus int) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}

// PaymentGateway выдаёт инструкции по оплате заказа.
type PaymentGateway interface {
	Initiate(ctx context.Context, order Order) (PaymentInstruction, error)
}

// Repositories — набор репозиториев, работающих в одной транзакции.
type Repositories struct {
	Products       ProductRepository
	Categories     CategoryRepository
	Brands         BrandRepository
	Orders         OrderRepository
	Carts          CartRepository
	Reviews        ReviewRepository
	Wishlists      WishlistRepository
	StockMovements StockMovementRepository
	Outbox         OutboxRepository
	Timeline       TimelineRepository
}

// UnitOfWork даёт доступ к репозиториям вне и внутри транзакции.
type UnitOfWork interface {
	// Repos возвращает репозитории, где каждая операция выполняется отдельно.
	Repos() Repositories
	// WithinTx выполняет fn в одной транзакции: ошибка fn откатывает все изменения.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
