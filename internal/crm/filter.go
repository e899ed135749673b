package crm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownFilterKey is returned for any filter key missing from the static
// tables below. Unknown keys fail closed: the query is rejected instead of
// silently returning unconstrained rows. A recognized key whose value cannot
// be decoded imposes no constraint, same as an absent key.
var ErrUnknownFilterKey = errors.New("unknown filter key")

// FilterDoc is a parsed filter document. Absent keys impose no constraint.
type FilterDoc map[string]json.RawMessage

type (
	CustomerPredicate func(*Customer) bool
	ProductPredicate  func(*Product) bool
	OrderPredicate    func(*Order) bool
)

// Each entity has a fixed table of recognized keys. A rule turns the raw JSON
// value for its key into a single-field predicate; compiled predicates compose
// by AND.

var customerFilters = map[string]func(json.RawMessage) (CustomerPredicate, error){
	"name": func(raw json.RawMessage) (CustomerPredicate, error) {
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		return func(c *Customer) bool { return icontains(c.Name, s) }, nil
	},
	"email": func(raw json.RawMessage) (CustomerPredicate, error) {
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		return func(c *Customer) bool { return icontains(c.Email, s) }, nil
	},
	"created_at_gte": func(raw json.RawMessage) (CustomerPredicate, error) {
		t, err := decodeTime(raw)
		if err != nil {
			return nil, err
		}
		return func(c *Customer) bool { return !c.CreatedAt.Before(t) }, nil
	},
	"created_at_lte": func(raw json.RawMessage) (CustomerPredicate, error) {
		t, err := decodeTime(raw)
		if err != nil {
			return nil, err
		}
		return func(c *Customer) bool { return !c.CreatedAt.After(t) }, nil
	},
	"phone_starts_with": phoneStartsWith,
	// Alias kept for callers of the old key; identical behavior.
	"phone_pattern": phoneStartsWith,
}

func phoneStartsWith(raw json.RawMessage) (CustomerPredicate, error) {
	s, err := decodeString(raw)
	if err != nil {
		return nil, err
	}
	return func(c *Customer) bool { return strings.HasPrefix(c.Phone, s) }, nil
}

var productFilters = map[string]func(json.RawMessage) (ProductPredicate, error){
	"name": func(raw json.RawMessage) (ProductPredicate, error) {
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		return func(p *Product) bool { return icontains(p.Name, s) }, nil
	},
	"price_gte": func(raw json.RawMessage) (ProductPredicate, error) {
		d, err := decodeDecimal(raw)
		if err != nil {
			return nil, err
		}
		return func(p *Product) bool { return p.Price.GreaterThanOrEqual(d) }, nil
	},
	"price_lte": func(raw json.RawMessage) (ProductPredicate, error) {
		d, err := decodeDecimal(raw)
		if err != nil {
			return nil, err
		}
		return func(p *Product) bool { return p.Price.LessThanOrEqual(d) }, nil
	},
	"stock": func(raw json.RawMessage) (ProductPredicate, error) {
		n, err := decodeInt(raw)
		if err != nil {
			return nil, err
		}
		return func(p *Product) bool { return p.Stock == n }, nil
	},
	"stock_gte": func(raw json.RawMessage) (ProductPredicate, error) {
		n, err := decodeInt(raw)
		if err != nil {
			return nil, err
		}
		return func(p *Product) bool { return p.Stock >= n }, nil
	},
	"stock_lte": func(raw json.RawMessage) (ProductPredicate, error) {
		n, err := decodeInt(raw)
		if err != nil {
			return nil, err
		}
		return func(p *Product) bool { return p.Stock <= n }, nil
	},
	"low_stock": func(raw json.RawMessage) (ProductPredicate, error) {
		b, err := decodeBool(raw)
		if err != nil {
			return nil, err
		}
		if !b {
			return func(*Product) bool { return true }, nil
		}
		return func(p *Product) bool { return p.LowStock() }, nil
	},
}

var orderFilters = map[string]func(json.RawMessage) (OrderPredicate, error){
	"total_amount_gte": func(raw json.RawMessage) (OrderPredicate, error) {
		d, err := decodeDecimal(raw)
		if err != nil {
			return nil, err
		}
		return func(o *Order) bool { return o.TotalAmount.GreaterThanOrEqual(d) }, nil
	},
	"total_amount_lte": func(raw json.RawMessage) (OrderPredicate, error) {
		d, err := decodeDecimal(raw)
		if err != nil {
			return nil, err
		}
		return func(o *Order) bool { return o.TotalAmount.LessThanOrEqual(d) }, nil
	},
	"order_date_gte": func(raw json.RawMessage) (OrderPredicate, error) {
		t, err := decodeTime(raw)
		if err != nil {
			return nil, err
		}
		return func(o *Order) bool { return !o.OrderDate.Before(t) }, nil
	},
	"order_date_lte": func(raw json.RawMessage) (OrderPredicate, error) {
		t, err := decodeTime(raw)
		if err != nil {
			return nil, err
		}
		return func(o *Order) bool { return !o.OrderDate.After(t) }, nil
	},
	"customer_name": func(raw json.RawMessage) (OrderPredicate, error) {
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		return func(o *Order) bool { return o.Customer != nil && icontains(o.Customer.Name, s) }, nil
	},
	"customer_email": func(raw json.RawMessage) (OrderPredicate, error) {
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		return func(o *Order) bool { return o.Customer != nil && icontains(o.Customer.Email, s) }, nil
	},
	// Product filters test the order's loaded product set, so an order matches
	// at most once however many of its products match.
	"product_name": func(raw json.RawMessage) (OrderPredicate, error) {
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		return func(o *Order) bool {
			for _, p := range o.Products {
				if icontains(p.Name, s) {
					return true
				}
			}
			return false
		}, nil
	},
	"product_id": func(raw json.RawMessage) (OrderPredicate, error) {
		s, err := decodeString(raw)
		if err != nil {
			return nil, err
		}
		return func(o *Order) bool {
			for _, p := range o.Products {
				if p.ID == s {
					return true
				}
			}
			return false
		}, nil
	},
}

// CompileCustomerFilter builds one conjunctive predicate from a filter
// document. A nil or empty document compiles to match-everything.
func CompileCustomerFilter(doc FilterDoc) (CustomerPredicate, error) {
	var preds []CustomerPredicate
	for key, raw := range doc {
		rule, ok := customerFilters[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFilterKey, key)
		}
		p, err := rule(raw)
		if err != nil {
			continue // malformed value, no constraint
		}
		preds = append(preds, p)
	}
	return func(c *Customer) bool {
		for _, p := range preds {
			if !p(c) {
				return false
			}
		}
		return true
	}, nil
}

// CompileProductFilter is CompileCustomerFilter for products, with one twist:
// low_stock=true overrides any stock exact-match filter in the same document.
func CompileProductFilter(doc FilterDoc) (ProductPredicate, error) {
	lowStock := false
	if raw, ok := doc["low_stock"]; ok {
		if b, err := decodeBool(raw); err == nil {
			lowStock = b
		}
	}

	var preds []ProductPredicate
	for key, raw := range doc {
		if key == "stock" && lowStock {
			continue
		}
		rule, ok := productFilters[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFilterKey, key)
		}
		p, err := rule(raw)
		if err != nil {
			continue // malformed value, no constraint
		}
		preds = append(preds, p)
	}
	return func(p *Product) bool {
		for _, pred := range preds {
			if !pred(p) {
				return false
			}
		}
		return true
	}, nil
}

func CompileOrderFilter(doc FilterDoc) (OrderPredicate, error) {
	var preds []OrderPredicate
	for key, raw := range doc {
		rule, ok := orderFilters[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFilterKey, key)
		}
		p, err := rule(raw)
		if err != nil {
			continue // malformed value, no constraint
		}
		preds = append(preds, p)
	}
	return func(o *Order) bool {
		for _, p := range preds {
			if !p(o) {
				return false
			}
		}
		return true
	}, nil
}

func icontains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func decodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeBool(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, err
	}
	return b, nil
}

func decodeInt(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// decodeDecimal accepts both JSON numbers and numeric strings.
func decodeDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func decodeTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
