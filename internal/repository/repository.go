package repository

import (
	"context"
	"errors"

	"barkeep/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// ErrPendingOrderExists возвращается, когда у клиента уже есть невыполненный заказ
var ErrPendingOrderExists = errors.New("customer already has a pending order")

// DrinkRepository интерфейс репозитория каталога напитков
type DrinkRepository interface {
	Create(ctx context.Context, d *domain.Drink) error
	GetByID(ctx context.Context, id int64) (*domain.Drink, error)
	Update(ctx context.Context, d *domain.Drink) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Drink, error)
}

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	// Create сохраняет заказ вместе со всеми позициями
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	// List — все заказы, новые сначала, без позиций
	List(ctx context.Context) ([]domain.Order, error)
	// ListPending — невыполненные заказы, старые сначала, с позициями
	ListPending(ctx context.Context) ([]domain.Order, error)
	// PendingByCustomer — последний невыполненный заказ клиента, с позициями
	PendingByCustomer(ctx context.Context, name string) (*domain.Order, error)
}

// TxManager абстракция транзакции. Для SQLite — sql.Tx в контексте,
// для in-memory — глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
