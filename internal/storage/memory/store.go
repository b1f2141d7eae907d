package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// state — всё содержимое in-memory хранилища.
// Значения в картах не мутируются на месте, только заменяются,
// поэтому для транзакции достаточно поверхностной копии карт.
type state struct {
	products   map[string]domain.Product
	categories map[string]domain.Category
	brands     map[string]domain.Brand
	orders     map[string]domain.Order
	carts      map[string]domain.Cart
	reviews    map[string]domain.Review
	wishlists  map[string]domain.Wishlist
	movements  []domain.StockMovement
	outbox     map[string]outboxRecord
	outboxSeq  int64
	timeline   map[string][]domain.TimelineEvent
}

func newState() *state {
	return &state{
		products:   make(map[string]domain.Product),
		categories: make(map[string]domain.Category),
		brands:     make(map[string]domain.Brand),
		orders:     make(map[string]domain.Order),
		carts:      make(map[string]domain.Cart),
		reviews:    make(map[string]domain.Review),
		wishlists:  make(map[string]domain.Wishlist),
		outbox:     make(map[string]outboxRecord),
		timeline:   make(map[string][]domain.TimelineEvent),
	}
}

func (s *state) clone() *state {
	return &state{
		products:   maps.Clone(s.products),
		categories: maps.Clone(s.categories),
		brands:     maps.Clone(s.brands),
		orders:     maps.Clone(s.orders),
		carts:      maps.Clone(s.carts),
		reviews:    maps.Clone(s.reviews),
		wishlists:  maps.Clone(s.wishlists),
		movements:  append([]domain.StockMovement(nil), s.movements...),
		outbox:     maps.Clone(s.outbox),
		outboxSeq:  s.outboxSeq,
		timeline:   maps.Clone(s.timeline),
	}
}

// Store — in-memory хранилище магазина для локальной разработки и тестов.
// Транзакция держит эксклюзивную блокировку и работает с копией состояния,
// которая подменяет живое состояние только при успешном завершении.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Repos возвращает репозитории вне транзакции.
// Их нельзя вызывать изнутри WithinTx: блокировка уже захвачена.
func (s *Store) Repos() domain.Repositories {
	return (&session{store: s}).repos()
}

// WithinTx выполняет fn атомарно.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.st.clone()
	sess := &session{store: s, tx: draft}
	if err := fn(ctx, sess.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st = draft
	return nil
}

// Ping всегда успешен: хранилище живёт в памяти процесса.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close ничего не освобождает.
func (s *Store) Close() error {
	return nil
}

// session выбирает, с каким состоянием работают репозитории.
type session struct {
	store *Store
	tx    *state
}

func (s *session) read(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return fn(s.store.st)
}

func (s *session) write(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return fn(s.store.st)
}

func (s *session) repos() domain.Repositories {
	return domain.Repositories{
		Products:       &productRepository{s},
		Categories:     &categoryRepository{s},
		Brands:         &brandRepository{s},
		Orders:         &orderRepository{s},
		Carts:          &cartRepository{s},
		Reviews:        &reviewRepository{s},
		Wishlists:      &wishlistRepository{s},
		StockMovements: &stockMovementRepository{s},
		Outbox:         &outboxRepository{s},
		Timeline:       &timelineRepository{s},
	}
}

var _ domain.UnitOfWork = (*Store)(nil)
