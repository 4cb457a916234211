package service

import (
	"context"
	"errors"

	"barkeep/internal/domain"
	"barkeep/internal/repository"
)

// OrderService реализует логику заказов: создание, очередь бармена, завершение
type OrderService struct {
	orders repository.OrderRepository
	tx     repository.TxManager
}

func NewOrderService(orders repository.OrderRepository, tx repository.TxManager) *OrderService {
	return &OrderService{orders: orders, tx: tx}
}

// CreateOrder атомарно создаёт заказ со всеми позициями. У клиента может быть
// не больше одного невыполненного заказа: проверка выполняется в транзакции,
// а гонку параллельных запросов закрывает уникальный индекс хранилища.
func (s *OrderService) CreateOrder(ctx context.Context, customer string, items []domain.OrderItem) (*domain.Order, error) {
	if customer == "" || len(items) == 0 {
		return nil, ErrInvalidInput
	}
	// validate items
	for _, it := range items {
		if it.DrinkID <= 0 || it.Quantity <= 0 {
			return nil, ErrInvalidInput
		}
	}

	var created *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := s.orders.PendingByCustomer(ctx, customer)
		if err == nil {
			return repository.ErrPendingOrderExists
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		o := domain.Order{
			CustomerName: customer,
			Status:       domain.OrderStatusPending,
			Items:        items,
		}
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}
		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	// перечитываем заказ, чтобы позиции вернулись с названиями напитков
	return s.orders.GetByID(ctx, created.ID)
}

// PendingOrders возвращает очередь бармена: невыполненные заказы, старые сначала
func (s *OrderService) PendingOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListPending(ctx)
}

// ListOrders возвращает все заказы, новые сначала, без позиций
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

// OrderByCustomer возвращает последний невыполненный заказ клиента
func (s *OrderService) OrderByCustomer(ctx context.Context, name string) (*domain.Order, error) {
	if name == "" {
		return nil, ErrInvalidInput
	}
	return s.orders.PendingByCustomer(ctx, name)
}

// CompleteOrder переводит заказ в completed. Повторный вызов — no-op:
// завершённый заказ никогда не возвращается в pending.
func (s *OrderService) CompleteOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o.Status == domain.OrderStatusCompleted {
			updated = o
			return nil
		}
		o.Status = domain.OrderStatusCompleted
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
