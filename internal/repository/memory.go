package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"barkeep/internal/domain"
)

// MemoryStore объединённое in-memory хранилище и простой генератор ID.
// Используется в тестах сервисов и хендлеров вместо SQLite.
type MemoryStore struct {
	mu          sync.RWMutex
	nextDrinkID int64
	nextOrderID int64
	nextItemID  int64
	drinksByID  map[int64]domain.Drink
	ordersByID  map[int64]domain.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextDrinkID: 1,
		nextOrderID: 1,
		nextItemID:  1,
		drinksByID:  make(map[int64]domain.Drink),
		ordersByID:  make(map[int64]domain.Order),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// Ensure interfaces
var _ DrinkRepository = (*MemoryStore)(nil)

// DrinkRepository implementation
func (m *MemoryStore) Create(ctx context.Context, d *domain.Drink) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	d.ID = m.nextDrinkID
	m.nextDrinkID++
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	m.drinksByID[d.ID] = *d
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*domain.Drink, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	d, ok := m.drinksByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := d
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, d *domain.Drink) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	old, ok := m.drinksByID[d.ID]
	if !ok {
		return ErrNotFound
	}
	d.CreatedAt = old.CreatedAt
	d.UpdatedAt = time.Now().UTC()
	m.drinksByID[d.ID] = *d
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.drinksByID[id]; !ok {
		return ErrNotFound
	}
	delete(m.drinksByID, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]domain.Drink, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Drink, 0, len(m.drinksByID))
	for _, d := range m.drinksByID {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// enrich подставляет в позиции название и описание напитка; для удалённого
// напитка поля остаются пустыми (та же политика, что LEFT JOIN в SQLite)
func (m *MemoryStore) enrich(items []domain.OrderItem) []domain.OrderItem {
	out := make([]domain.OrderItem, len(items))
	copy(out, items)
	for i := range out {
		if d, ok := m.drinksByID[out[i].DrinkID]; ok {
			out[i].Name = d.Name
			out[i].Description = d.Description
		} else {
			out[i].Name = ""
			out[i].Description = ""
		}
	}
	return out
}

// MemoryOrders реализует OrderRepository поверх общего хранилища
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	// инвариант «один pending на клиента» — как уникальный индекс в SQLite
	if o.Status == domain.OrderStatusPending {
		for _, ex := range mo.store.ordersByID {
			if ex.CustomerName == o.CustomerName && ex.Status == domain.OrderStatusPending {
				return ErrPendingOrderExists
			}
		}
	}
	o.ID = mo.store.nextOrderID
	mo.store.nextOrderID++
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	for i := range o.Items {
		o.Items[i].ID = mo.store.nextItemID
		mo.store.nextItemID++
		o.Items[i].OrderID = o.ID
	}
	stored := *o
	stored.Items = make([]domain.OrderItem, len(o.Items))
	copy(stored.Items, o.Items)
	mo.store.ordersByID[o.ID] = stored
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	cp.Items = mo.store.enrich(o.Items)
	return &cp, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	old, ok := mo.store.ordersByID[o.ID]
	if !ok {
		return ErrNotFound
	}
	o.CreatedAt = old.CreatedAt
	o.UpdatedAt = time.Now().UTC()
	stored := *o
	stored.Items = old.Items
	mo.store.ordersByID[o.ID] = stored
	return nil
}

func (mo *MemoryOrders) List(ctx context.Context) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0, len(mo.store.ordersByID))
	for _, o := range mo.store.ordersByID {
		o.Items = nil
		out = append(out, o)
	}
	// новые сначала
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (mo *MemoryOrders) ListPending(ctx context.Context) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range mo.store.ordersByID {
		if o.Status != domain.OrderStatusPending {
			continue
		}
		o.Items = mo.store.enrich(o.Items)
		out = append(out, o)
	}
	// старые сначала
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (mo *MemoryOrders) PendingByCustomer(ctx context.Context, name string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	var found *domain.Order
	for _, o := range mo.store.ordersByID {
		if o.CustomerName != name || o.Status != domain.OrderStatusPending {
			continue
		}
		if found == nil || o.ID > found.ID {
			cp := o
			found = &cp
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	found.Items = mo.store.enrich(found.Items)
	return found, nil
}

// MemoryTx эмулирует транзакцию блокировкой записи на всё хранилище
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

var _ TxManager = (*MemoryTx)(nil)

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Для in-memory используем блокировку записи и помечаем контекст, чтобы репозитории пропускали внутренние локи
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}
