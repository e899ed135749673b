package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crm-backend/internal/crm"
	"crm-backend/internal/redisx"
)

// Request is the query/mutation document accepted on POST /crm: a named
// operation plus an optional filter (reads) or args object (writes).
type Request struct {
	Operation string          `json:"operation"`
	Filter    crm.FilterDoc   `json:"filter,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
}

type CRMHandler struct {
	Service *crm.Service
	Redis   *redis.Client // optional list cache; nil disables caching
	Log     *zap.Logger
}

func (h *CRMHandler) Register(r *chi.Mux) {
	r.Post("/crm", h.handle)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, map[string]any{"data": v})
}

func (h *CRMHandler) handle(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	switch req.Operation {
	case "hello":
		writeData(w, h.Service.Hello())
	case "allCustomers":
		h.allCustomers(ctx, w, req.Filter)
	case "allProducts":
		h.allProducts(ctx, w, req.Filter)
	case "allOrders":
		h.allOrders(ctx, w, req.Filter)
	case "customer":
		h.byID(ctx, w, req.Args, func(ctx context.Context, id string) (any, error) {
			c, err := h.Service.CustomerByID(ctx, id)
			if c == nil {
				return nil, err
			}
			return c, err
		})
	case "product":
		h.byID(ctx, w, req.Args, func(ctx context.Context, id string) (any, error) {
			p, err := h.Service.ProductByID(ctx, id)
			if p == nil {
				return nil, err
			}
			return p, err
		})
	case "order":
		h.byID(ctx, w, req.Args, func(ctx context.Context, id string) (any, error) {
			o, err := h.Service.OrderByID(ctx, id)
			if o == nil {
				return nil, err
			}
			return o, err
		})
	case "createCustomer":
		h.createCustomer(ctx, w, req.Args)
	case "bulkCreateCustomers":
		h.bulkCreateCustomers(ctx, w, req.Args)
	case "createProduct":
		h.createProduct(ctx, w, req.Args)
	case "createOrder":
		h.createOrder(ctx, w, req.Args)
	case "updateLowStockProducts":
		result := h.Service.UpdateLowStockProducts(ctx)
		h.invalidate(ctx, redisx.KeyProductList)
		writeJSON(w, http.StatusOK, result)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown operation"})
	}
}

// ---- queries ----

func (h *CRMHandler) allCustomers(ctx context.Context, w http.ResponseWriter, doc crm.FilterDoc) {
	if len(doc) == 0 {
		if h.serveCached(ctx, w, redisx.KeyCustomerList) {
			return
		}
	}
	customers, err := h.Service.Customers(ctx, doc)
	if err != nil {
		h.queryError(w, err)
		return
	}
	if len(doc) == 0 {
		h.cache(ctx, redisx.KeyCustomerList, customers)
	}
	writeData(w, customers)
}

func (h *CRMHandler) allProducts(ctx context.Context, w http.ResponseWriter, doc crm.FilterDoc) {
	if len(doc) == 0 {
		if h.serveCached(ctx, w, redisx.KeyProductList) {
			return
		}
	}
	products, err := h.Service.Products(ctx, doc)
	if err != nil {
		h.queryError(w, err)
		return
	}
	if len(doc) == 0 {
		h.cache(ctx, redisx.KeyProductList, products)
	}
	writeData(w, products)
}

func (h *CRMHandler) allOrders(ctx context.Context, w http.ResponseWriter, doc crm.FilterDoc) {
	orders, err := h.Service.Orders(ctx, doc)
	if err != nil {
		h.queryError(w, err)
		return
	}
	writeData(w, orders)
}

func (h *CRMHandler) byID(ctx context.Context, w http.ResponseWriter, args json.RawMessage, lookup func(context.Context, string) (any, error)) {
	var a struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(args, &a); err != nil || a.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}
	v, err := lookup(ctx, a.ID)
	if err != nil {
		h.queryError(w, err)
		return
	}
	// absent id is data:null, not an error
	writeData(w, v)
}

func (h *CRMHandler) queryError(w http.ResponseWriter, err error) {
	if errors.Is(err, crm.ErrUnknownFilterKey) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// ---- mutations ----

func (h *CRMHandler) createCustomer(ctx context.Context, w http.ResponseWriter, args json.RawMessage) {
	var in crm.CustomerInput
	if err := json.Unmarshal(args, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid args"})
		return
	}
	result := h.Service.CreateCustomer(ctx, in)
	if result.Success {
		h.invalidate(ctx, redisx.KeyCustomerList)
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CRMHandler) bulkCreateCustomers(ctx context.Context, w http.ResponseWriter, args json.RawMessage) {
	var a struct {
		Customers []crm.CustomerInput `json:"customers"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid args"})
		return
	}
	result := h.Service.BulkCreateCustomers(ctx, a.Customers)
	if result.SuccessCount > 0 {
		h.invalidate(ctx, redisx.KeyCustomerList)
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CRMHandler) createProduct(ctx context.Context, w http.ResponseWriter, args json.RawMessage) {
	var a struct {
		Name  string          `json:"name"`
		Price json.RawMessage `json:"price"`
		Stock int             `json:"stock"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid args"})
		return
	}
	// Price arrives as a JSON number or numeric string; a value that parses
	// as neither is a field error, not a transport fault.
	var price decimal.Decimal
	if err := json.Unmarshal(a.Price, &price); err != nil {
		writeJSON(w, http.StatusOK, crm.CreateProductResult{
			Success: false,
			Message: "Validation failed",
			Errors:  []crm.FieldError{{Field: "price", Message: "Invalid price format"}},
		})
		return
	}
	result := h.Service.CreateProduct(ctx, a.Name, price, a.Stock)
	if result.Success {
		h.invalidate(ctx, redisx.KeyProductList)
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CRMHandler) createOrder(ctx context.Context, w http.ResponseWriter, args json.RawMessage) {
	var a struct {
		CustomerID string   `json:"customer_id"`
		ProductIDs []string `json:"product_ids"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid args"})
		return
	}
	writeJSON(w, http.StatusOK, h.Service.CreateOrder(ctx, a.CustomerID, a.ProductIDs))
}

// ---- list cache ----

func (h *CRMHandler) serveCached(ctx context.Context, w http.ResponseWriter, key string) bool {
	if h.Redis == nil {
		return false
	}
	s, err := h.Redis.Get(ctx, key).Result()
	if err != nil || s == "" {
		return false
	}
	writeData(w, json.RawMessage(s))
	return true
}

func (h *CRMHandler) cache(ctx context.Context, key string, v any) {
	if h.Redis == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.Redis.Set(ctx, key, b, redisx.TTLListCache).Err(); err != nil && h.Log != nil {
		h.Log.Debug("cache set", zap.String("key", key), zap.Error(err))
	}
}

func (h *CRMHandler) invalidate(ctx context.Context, key string) {
	if h.Redis == nil {
		return
	}
	_ = h.Redis.Del(ctx, key).Err()
}
