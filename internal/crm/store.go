package crm

import "context"

// Store is the persistence boundary for the CRM entities. Lookups by id
// return (nil, nil) when the id is absent.
//
// InTx runs fn against a transaction-scoped Store; the transaction commits
// when fn returns nil and rolls back otherwise. Implementations must keep a
// failed write inside fn from poisoning later writes in the same fn (the bulk
// customer path records per-item errors and keeps going).
type Store interface {
	InTx(ctx context.Context, fn func(tx Store) error) error

	CreateCustomer(ctx context.Context, c *Customer) error
	CustomerByID(ctx context.Context, id string) (*Customer, error)
	CustomerEmailExists(ctx context.Context, email string) (bool, error)
	Customers(ctx context.Context) ([]Customer, error)

	CreateProduct(ctx context.Context, p *Product) error
	ProductByID(ctx context.Context, id string) (*Product, error)
	ProductsByIDs(ctx context.Context, ids []string) ([]Product, error)
	Products(ctx context.Context) ([]Product, error)
	LowStockProducts(ctx context.Context) ([]Product, error)
	UpdateProductStock(ctx context.Context, id string, stock int) error

	CreateOrder(ctx context.Context, o *Order) error
	OrderByID(ctx context.Context, id string) (*Order, error)
	Orders(ctx context.Context) ([]Order, error)
}
