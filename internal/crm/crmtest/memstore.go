// Package crmtest provides an in-memory crm.Store for tests.
package crmtest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"crm-backend/internal/crm"
)

// MemStore keeps everything in slices under one mutex. Lookups by absent id
// return (nil, nil) like the SQL store. FailEmail injects a write error for
// one customer email; Err forces every call to fail.
type MemStore struct {
	mu        sync.Mutex
	customers []crm.Customer
	products  []crm.Product
	orders    []crm.Order

	FailEmail string
	Err       error
}

var _ crm.Store = (*MemStore)(nil)

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) InTx(ctx context.Context, fn func(tx crm.Store) error) error {
	if s.Err != nil {
		return s.Err
	}
	return fn(s)
}

func (s *MemStore) CreateCustomer(ctx context.Context, c *crm.Customer) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailEmail != "" && c.Email == s.FailEmail {
		return errors.New("simulated write failure")
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.customers = append(s.customers, *c)
	return nil
}

func (s *MemStore) CustomerByID(ctx context.Context, id string) (*crm.Customer, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID == id {
			c := s.customers[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemStore) CustomerEmailExists(ctx context.Context, email string) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) Customers(ctx context.Context) ([]crm.Customer, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]crm.Customer, len(s.customers))
	copy(out, s.customers)
	return out, nil
}

func (s *MemStore) CreateProduct(ctx context.Context, p *crm.Product) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.products = append(s.products, *p)
	return nil
}

func (s *MemStore) ProductByID(ctx context.Context, id string) (*crm.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (s *MemStore) ProductsByIDs(ctx context.Context, ids []string) ([]crm.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []crm.Product
	for i := range s.products {
		if want[s.products[i].ID] {
			out = append(out, s.products[i])
		}
	}
	return out, nil
}

func (s *MemStore) Products(ctx context.Context) ([]crm.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]crm.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *MemStore) LowStockProducts(ctx context.Context) ([]crm.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []crm.Product
	for i := range s.products {
		if s.products[i].LowStock() {
			out = append(out, s.products[i])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *MemStore) UpdateProductStock(ctx context.Context, id string, stock int) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i].Stock = stock
			s.products[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return errors.New("product not found")
}

func (s *MemStore) CreateOrder(ctx context.Context, o *crm.Order) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	o.OrderDate, o.CreatedAt, o.UpdatedAt = now, now, now
	s.orders = append(s.orders, *o)
	return nil
}

func (s *MemStore) OrderByID(ctx context.Context, id string) (*crm.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			o := s.orders[i]
			return &o, nil
		}
	}
	return nil, nil
}

func (s *MemStore) Orders(ctx context.Context) ([]crm.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]crm.Order, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

// SetOrderDate rewrites a stored order's date, for window tests.
func (s *MemStore) SetOrderDate(id string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].OrderDate = t
		}
	}
}
