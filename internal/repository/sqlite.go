package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"barkeep/internal/domain"

	_ "modernc.org/sqlite"
)

// Схема создаётся идемпотентно при старте. Имена колонок совпадают со старой
// базой drinks.db, поэтому существующий файл продолжает работать.
// Частичный уникальный индекс закрывает гонку check-then-insert: не более
// одного pending-заказа на клиента гарантирует сам движок.
const schema = `
CREATE TABLE IF NOT EXISTS drinks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	recipe TEXT NOT NULL,
	imageUrl TEXT,
	inStock BOOLEAN NOT NULL DEFAULT 1,
	createdAt TEXT NOT NULL,
	updatedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	customerName TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	createdAt TEXT NOT NULL,
	updatedAt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	orderId INTEGER NOT NULL,
	drinkId INTEGER NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (orderId) REFERENCES orders (id),
	FOREIGN KEY (drinkId) REFERENCES drinks (id)
);

CREATE UNIQUE INDEX IF NOT EXISTS orders_pending_customer
	ON orders (customerName) WHERE status = 'pending';
`

// Метки времени храним строками в формате toISOString() старого приложения:
// фиксированная длина, поэтому лексикографический ORDER BY совпадает с хронологией.
const timeLayout = "2006-01-02T15:04:05.000Z"

// SQLiteStore хранилище каталога на SQLite; вместе с SQLiteOrders и SQLiteTx
// делит один *sql.DB
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite пишет в один поток; одно соединение избавляет от SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// sql.Tx протаскивается через контекст, чтобы репозитории работали
// одинаково внутри и вне транзакции
type sqlTxKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(sqlTxKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// Ensure interfaces
var _ DrinkRepository = (*SQLiteStore)(nil)

// DrinkRepository implementation
func (s *SQLiteStore) Create(ctx context.Context, d *domain.Drink) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	d.CreatedAt = now
	d.UpdatedAt = now
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO drinks (name, description, recipe, imageUrl, inStock, createdAt, updatedAt)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Name, d.Description, d.Recipe, nullIfEmpty(d.ImageURL), boolToInt(d.InStock),
		fmtTime(now), fmtTime(now))
	if err != nil {
		return fmt.Errorf("insert drink: %w", err)
	}
	d.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert drink id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*domain.Drink, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT id, name, description, recipe, imageUrl, inStock, createdAt, updatedAt
		 FROM drinks WHERE id = ?`, id)
	d, err := scanDrink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select drink: %w", err)
	}
	return d, nil
}

func (s *SQLiteStore) Update(ctx context.Context, d *domain.Drink) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE drinks SET name = ?, description = ?, recipe = ?, imageUrl = ?, inStock = ?, updatedAt = ?
		 WHERE id = ?`,
		d.Name, d.Description, d.Recipe, nullIfEmpty(d.ImageURL), boolToInt(d.InStock),
		fmtTime(now), d.ID)
	if err != nil {
		return fmt.Errorf("update drink: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update drink: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	d.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM drinks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete drink: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete drink: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.Drink, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT id, name, description, recipe, imageUrl, inStock, createdAt, updatedAt
		 FROM drinks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Drink, 0)
	for rows.Next() {
		d, err := scanDrink(rows)
		if err != nil {
			return nil, fmt.Errorf("list drinks: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// SQLiteOrders реализует OrderRepository поверх общего хранилища
type SQLiteOrders struct{ store *SQLiteStore }

func NewSQLiteOrders(store *SQLiteStore) *SQLiteOrders { return &SQLiteOrders{store: store} }

var _ OrderRepository = (*SQLiteOrders)(nil)

func (so *SQLiteOrders) Create(ctx context.Context, o *domain.Order) error {
	q := so.store.q(ctx)
	now := time.Now().UTC().Truncate(time.Millisecond)
	o.CreatedAt = now
	o.UpdatedAt = now
	res, err := q.ExecContext(ctx,
		`INSERT INTO orders (customerName, status, createdAt, updatedAt) VALUES (?, ?, ?, ?)`,
		o.CustomerName, string(o.Status), fmtTime(now), fmtTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPendingOrderExists
		}
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert order id: %w", err)
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		res, err := q.ExecContext(ctx,
			`INSERT INTO order_items (orderId, drinkId, quantity) VALUES (?, ?, ?)`,
			o.ID, o.Items[i].DrinkID, o.Items[i].Quantity)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		o.Items[i].ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert order item id: %w", err)
		}
	}
	return nil
}

func (so *SQLiteOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := so.store.q(ctx).QueryRowContext(ctx,
		`SELECT id, customerName, status, createdAt, updatedAt FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	if o.Items, err = so.itemsFor(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (so *SQLiteOrders) Update(ctx context.Context, o *domain.Order) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := so.store.q(ctx).ExecContext(ctx,
		`UPDATE orders SET customerName = ?, status = ?, updatedAt = ? WHERE id = ?`,
		o.CustomerName, string(o.Status), fmtTime(now), o.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPendingOrderExists
		}
		return fmt.Errorf("update order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	o.UpdatedAt = now
	return nil
}

func (so *SQLiteOrders) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := so.store.q(ctx).QueryContext(ctx,
		`SELECT id, customerName, status, createdAt, updatedAt
		 FROM orders ORDER BY createdAt DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (so *SQLiteOrders) ListPending(ctx context.Context) ([]domain.Order, error) {
	rows, err := so.store.q(ctx).QueryContext(ctx,
		`SELECT id, customerName, status, createdAt, updatedAt
		 FROM orders WHERE status = 'pending' ORDER BY createdAt ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	defer rows.Close()

	out, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = so.itemsFor(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (so *SQLiteOrders) PendingByCustomer(ctx context.Context, name string) (*domain.Order, error) {
	row := so.store.q(ctx).QueryRowContext(ctx,
		`SELECT id, customerName, status, createdAt, updatedAt
		 FROM orders WHERE customerName = ? AND status = 'pending'
		 ORDER BY createdAt DESC, id DESC LIMIT 1`, name)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select pending order: %w", err)
	}
	if o.Items, err = so.itemsFor(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// itemsFor читает позиции заказа вместе с названием и описанием напитка.
// LEFT JOIN: позиция удалённого напитка остаётся в выдаче с пустыми полями.
func (so *SQLiteOrders) itemsFor(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := so.store.q(ctx).QueryContext(ctx,
		`SELECT oi.id, oi.orderId, oi.drinkId, oi.quantity,
		        COALESCE(d.name, ''), COALESCE(d.description, '')
		 FROM order_items oi
		 LEFT JOIN drinks d ON oi.drinkId = d.id
		 WHERE oi.orderId = ?
		 ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.DrinkID, &it.Quantity, &it.Name, &it.Description); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SQLiteTx транзакция поверх общего соединения
type SQLiteTx struct{ store *SQLiteStore }

func NewSQLiteTx(store *SQLiteStore) *SQLiteTx { return &SQLiteTx{store: store} }

var _ TxManager = (*SQLiteTx)(nil)

func (t *SQLiteTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, sqlTxKey{}, tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// scan helpers

type scanner interface{ Scan(dest ...any) error }

func scanDrink(sc scanner) (*domain.Drink, error) {
	var d domain.Drink
	var img sql.NullString
	var inStock int64
	var created, updated string
	if err := sc.Scan(&d.ID, &d.Name, &d.Description, &d.Recipe, &img, &inStock, &created, &updated); err != nil {
		return nil, err
	}
	d.ImageURL = img.String
	d.InStock = inStock != 0
	d.CreatedAt = parseTime(created)
	d.UpdatedAt = parseTime(updated)
	return &d, nil
}

func scanOrder(sc scanner) (*domain.Order, error) {
	var o domain.Order
	var status string
	var created, updated string
	if err := sc.Scan(&o.ID, &o.CustomerName, &status, &created, &updated); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.CreatedAt = parseTime(created)
	o.UpdatedAt = parseTime(updated)
	return &o, nil
}

func collectOrders(rows *sql.Rows) ([]domain.Order, error) {
	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
