package crm

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the stock level under which a product counts as low stock.
// RestockIncrement is what UpdateLowStockProducts adds to each such product.
const (
	LowStockThreshold = 10
	RestockIncrement  = 10
)

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (p Product) LowStock() bool { return p.Stock < LowStockThreshold }

// Order carries its customer and product set preloaded; TotalAmount is
// recomputed from the linked products' prices on every save that touches
// the product set.
type Order struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customer_id"`
	Customer    *Customer       `json:"customer,omitempty"`
	Products    []Product       `json:"products"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CalculateTotal sums the current prices of the linked products.
func (o *Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Products {
		total = total.Add(p.Price)
	}
	return total
}

type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}
