package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"crm-backend/internal/crm"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every query below
// runs against whichever scope the Store currently holds.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	db   querier
	tx   pgx.Tx
}

var _ crm.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS customers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	phone      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS products (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	price      NUMERIC(10,2) NOT NULL CHECK (price > 0),
	stock      INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS orders (
	id           TEXT PRIMARY KEY,
	customer_id  TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
	total_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
	order_date   TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS order_products (
	order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id TEXT NOT NULL REFERENCES products(id),
	PRIMARY KEY (order_id, product_id)
);
`

// EnsureSchema creates the CRM tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

// InTx runs fn against a transaction-scoped copy of the Store. Nested calls
// reuse the surrounding transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx crm.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Store{pool: s.pool, db: tx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ---- customers ----

// CreateCustomer inside a transaction wraps the insert in a savepoint, so a
// failed row cannot abort sibling writes of the same batch.
func (s *Store) CreateCustomer(ctx context.Context, c *crm.Customer) error {
	if s.tx != nil {
		nested, err := s.tx.Begin(ctx)
		if err != nil {
			return err
		}
		if err := insertCustomer(ctx, nested, c); err != nil {
			_ = nested.Rollback(ctx)
			return err
		}
		return nested.Commit(ctx)
	}
	return insertCustomer(ctx, s.db, c)
}

func insertCustomer(ctx context.Context, q querier, c *crm.Customer) error {
	return q.QueryRow(ctx, `
		INSERT INTO customers(id, name, email, phone)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Email, c.Phone,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (s *Store) CustomerByID(ctx context.Context, id string) (*crm.Customer, error) {
	var c crm.Customer
	err := s.db.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), created_at, updated_at
		FROM customers WHERE id=$1`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CustomerEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE email=$1)`, email,
	).Scan(&exists)
	return exists, err
}

func (s *Store) Customers(ctx context.Context) ([]crm.Customer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), created_at, updated_at
		FROM customers ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []crm.Customer
	for rows.Next() {
		var c crm.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ---- products ----

func (s *Store) CreateProduct(ctx context.Context, p *crm.Product) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO products(id, name, price, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Price, p.Stock,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (s *Store) ProductByID(ctx context.Context, id string) (*crm.Product, error) {
	var p crm.Product
	err := s.db.QueryRow(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products WHERE id=$1`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ProductsByIDs(ctx context.Context, ids []string) ([]crm.Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (s *Store) Products(ctx context.Context) ([]crm.Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// LowStockProducts locks the matching rows when called inside a transaction
// so the restock increments are serialized.
func (s *Store) LowStockProducts(ctx context.Context) ([]crm.Product, error) {
	q := `SELECT id, name, price, stock, created_at, updated_at
	      FROM products WHERE stock < $1 ORDER BY name`
	if s.tx != nil {
		q += ` FOR UPDATE`
	}
	rows, err := s.db.Query(ctx, q, crm.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (s *Store) UpdateProductStock(ctx context.Context, id string, stock int) error {
	_, err := s.db.Exec(ctx,
		`UPDATE products SET stock=$2, updated_at=now() WHERE id=$1`, id, stock)
	return err
}

func scanProducts(rows pgx.Rows) ([]crm.Product, error) {
	var out []crm.Product
	for rows.Next() {
		var p crm.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---- orders ----

// CreateOrder persists the order row, its product links and the recomputed
// total in one transaction: either all of it lands or none.
func (s *Store) CreateOrder(ctx context.Context, o *crm.Order) error {
	return s.InTx(ctx, func(tx crm.Store) error {
		txs := tx.(*Store)
		err := txs.db.QueryRow(ctx, `
			INSERT INTO orders(id, customer_id, total_amount)
			VALUES ($1, $2, $3)
			RETURNING order_date, created_at, updated_at`,
			o.ID, o.CustomerID, o.TotalAmount,
		).Scan(&o.OrderDate, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return err
		}
		for _, p := range o.Products {
			if _, err := txs.db.Exec(ctx, `
				INSERT INTO order_products(order_id, product_id)
				VALUES ($1, $2)`, o.ID, p.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) OrderByID(ctx context.Context, id string) (*crm.Order, error) {
	orders, err := s.queryOrders(ctx, `WHERE o.id=$1`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

func (s *Store) Orders(ctx context.Context) ([]crm.Order, error) {
	return s.queryOrders(ctx, ``)
}

func (s *Store) queryOrders(ctx context.Context, where string, args ...any) ([]crm.Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT o.id, o.customer_id, o.total_amount, o.order_date, o.created_at, o.updated_at,
		       c.id, c.name, c.email, COALESCE(c.phone, ''), c.created_at, c.updated_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		`+where+` ORDER BY o.created_at, o.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []crm.Order
	byID := map[string]int{}
	for rows.Next() {
		var o crm.Order
		var c crm.Customer
		if err := rows.Scan(
			&o.ID, &o.CustomerID, &o.TotalAmount, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt,
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		o.Customer = &c
		o.Products = []crm.Product{}
		byID[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	for i := range out {
		ids = append(ids, out[i].ID)
	}
	prows, err := s.db.Query(ctx, `
		SELECT op.order_id, p.id, p.name, p.price, p.stock, p.created_at, p.updated_at
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = ANY($1) ORDER BY p.name`, ids)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var orderID string
		var p crm.Product
		if err := prows.Scan(&orderID, &p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if i, ok := byID[orderID]; ok {
			out[i].Products = append(out[i].Products, p)
		}
	}
	return out, prows.Err()
}
