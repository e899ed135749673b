package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HelloReply answers the hello probe; the heartbeat job logs it verbatim.
const HelloReply = "CRM is alive"

// EventPublisher decouples the service from the Kafka producer. Publish is
// fire-and-forget; a nil publisher disables events.
type EventPublisher interface {
	Publish(topic string, key, value []byte)
}

type Service struct {
	store  Store
	events EventPublisher
	log    *zap.Logger
}

func NewService(store Store, events EventPublisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, events: events, log: log}
}

func (s *Service) Hello() string { return HelloReply }

// ---- queries ----

func (s *Service) Customers(ctx context.Context, doc FilterDoc) ([]Customer, error) {
	pred, err := CompileCustomerFilter(doc)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Customers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Customer, 0, len(all))
	for i := range all {
		if pred(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (s *Service) Products(ctx context.Context, doc FilterDoc) ([]Product, error) {
	pred, err := CompileProductFilter(doc)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Products(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(all))
	for i := range all {
		if pred(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (s *Service) Orders(ctx context.Context, doc FilterDoc) ([]Order, error) {
	pred, err := CompileOrderFilter(doc)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Orders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(all))
	for i := range all {
		if pred(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (s *Service) CustomerByID(ctx context.Context, id string) (*Customer, error) {
	return s.store.CustomerByID(ctx, id)
}

func (s *Service) ProductByID(ctx context.Context, id string) (*Product, error) {
	return s.store.ProductByID(ctx, id)
}

func (s *Service) OrderByID(ctx context.Context, id string) (*Order, error) {
	return s.store.OrderByID(ctx, id)
}

// ---- mutations ----

func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) CreateCustomerResult {
	errs := s.validateCustomer(ctx, s.store, in)
	if len(errs) > 0 {
		return CreateCustomerResult{Success: false, Message: "Validation failed", Errors: errs}
	}

	c := newCustomer(in)
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		s.log.Error("create customer", zap.String("email", c.Email), zap.Error(err))
		return CreateCustomerResult{
			Success: false,
			Message: "Failed to create customer",
			Errors:  []FieldError{{Field: "general", Message: err.Error()}},
		}
	}

	s.publish(TopicCustomerCreated, EventCustomerCreated, c.ID,
		CustomerCreatedPayload{CustomerID: c.ID, Name: c.Name, Email: c.Email})
	return CreateCustomerResult{
		Customer: c,
		Success:  true,
		Message:  "Customer created successfully",
		Errors:   []FieldError{},
	}
}

// BulkCreateCustomers runs the whole batch in one transaction, but a rejected
// item never aborts its siblings: validation failures skip the write and an
// unexpected write error is confined to its item by the store.
func (s *Service) BulkCreateCustomers(ctx context.Context, inputs []CustomerInput) BulkCreateCustomersResult {
	created := make([]Customer, 0, len(inputs))
	itemErrs := []BulkCustomerError{}

	err := s.store.InTx(ctx, func(tx Store) error {
		for i, in := range inputs {
			if errs := s.validateCustomer(ctx, tx, in); len(errs) > 0 {
				itemErrs = append(itemErrs, BulkCustomerError{Index: i, Email: in.Email, Errors: errs})
				continue
			}
			c := newCustomer(in)
			if err := tx.CreateCustomer(ctx, c); err != nil {
				itemErrs = append(itemErrs, BulkCustomerError{
					Index: i, Email: in.Email,
					Errors: []FieldError{{Field: "general", Message: err.Error()}},
				})
				continue
			}
			created = append(created, *c)
		}
		return nil
	})
	if err != nil {
		s.log.Error("bulk create customers", zap.Error(err))
		return BulkCreateCustomersResult{
			Customers:    []Customer{},
			SuccessCount: 0,
			Message:      "Failed to create customers",
			Errors: []BulkCustomerError{{
				Index: -1, Errors: []FieldError{{Field: "general", Message: err.Error()}},
			}},
		}
	}

	for i := range created {
		s.publish(TopicCustomerCreated, EventCustomerCreated, created[i].ID,
			CustomerCreatedPayload{CustomerID: created[i].ID, Name: created[i].Name, Email: created[i].Email})
	}
	return BulkCreateCustomersResult{
		Customers:    created,
		SuccessCount: len(created),
		Message:      fmt.Sprintf("Successfully created %d customers", len(created)),
		Errors:       itemErrs,
	}
}

func (s *Service) CreateProduct(ctx context.Context, name string, price decimal.Decimal, stock int) CreateProductResult {
	var errs []FieldError
	if !ValidPrice(price) {
		errs = append(errs, FieldError{Field: "price", Message: "Price must be positive"})
	}
	if !ValidStock(stock) {
		errs = append(errs, FieldError{Field: "stock", Message: "Stock cannot be negative"})
	}
	if len(errs) > 0 {
		return CreateProductResult{Success: false, Message: "Validation failed", Errors: errs}
	}

	p := &Product{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(name),
		Price: price.Round(2),
		Stock: stock,
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		s.log.Error("create product", zap.String("name", p.Name), zap.Error(err))
		return CreateProductResult{
			Success: false,
			Message: "Failed to create product",
			Errors:  []FieldError{{Field: "general", Message: err.Error()}},
		}
	}
	return CreateProductResult{
		Product: p,
		Success: true,
		Message: "Product created successfully",
		Errors:  []FieldError{},
	}
}

func (s *Service) CreateOrder(ctx context.Context, customerID string, productIDs []string) CreateOrderResult {
	var errs []FieldError

	customer, err := s.store.CustomerByID(ctx, customerID)
	if err != nil {
		return orderFailure("Failed to create order", err)
	}
	if customer == nil {
		errs = append(errs, FieldError{Field: "customer_id", Message: "Customer not found"})
	}

	productIDs = uniqueIDs(productIDs)
	var products []Product
	if len(productIDs) == 0 {
		errs = append(errs, FieldError{Field: "product_ids", Message: "At least one product must be selected"})
	} else {
		products, err = s.store.ProductsByIDs(ctx, productIDs)
		if err != nil {
			return orderFailure("Failed to create order", err)
		}
		if len(products) != len(productIDs) {
			errs = append(errs, FieldError{
				Field:   "product_ids",
				Message: fmt.Sprintf("Invalid product IDs: %v", missingIDs(productIDs, products)),
			})
		}
	}

	if len(errs) > 0 {
		return CreateOrderResult{Success: false, Message: "Validation failed", Errors: errs}
	}

	o := &Order{
		ID:         uuid.NewString(),
		CustomerID: customer.ID,
		Customer:   customer,
		Products:   products,
	}
	o.TotalAmount = o.CalculateTotal()
	if err := s.store.CreateOrder(ctx, o); err != nil {
		s.log.Error("create order", zap.String("customer_id", customerID), zap.Error(err))
		return orderFailure("Failed to create order", err)
	}

	s.publish(TopicOrderCreated, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		CustomerEmail: customer.Email,
		ProductIDs:    productIDs,
		TotalAmount:   o.TotalAmount,
	})
	return CreateOrderResult{
		Order:   o,
		Success: true,
		Message: "Order created successfully",
		Errors:  []FieldError{},
	}
}

// UpdateLowStockProducts adds the restock increment to every product under
// the threshold, in one transaction. Calling it again re-increments whatever
// is still under the threshold at that point.
func (s *Service) UpdateLowStockProducts(ctx context.Context) UpdateLowStockResult {
	var updated []Product
	err := s.store.InTx(ctx, func(tx Store) error {
		low, err := tx.LowStockProducts(ctx)
		if err != nil {
			return err
		}
		for i := range low {
			low[i].Stock += RestockIncrement
			if err := tx.UpdateProductStock(ctx, low[i].ID, low[i].Stock); err != nil {
				return err
			}
		}
		updated = low
		return nil
	})
	if err != nil {
		s.log.Error("update low stock products", zap.Error(err))
		return UpdateLowStockResult{
			Products: []Product{},
			Success:  false,
			Message:  "Failed to update low-stock products",
			Errors:   []FieldError{{Field: "general", Message: err.Error()}},
		}
	}

	for i := range updated {
		s.publish(TopicProductRestocked, EventProductRestocked, updated[i].ID,
			ProductRestockedPayload{ProductID: updated[i].ID, Name: updated[i].Name, Stock: updated[i].Stock})
	}
	s.log.Info("restocked low-stock products", zap.Int("count", len(updated)))
	return UpdateLowStockResult{
		Products: updated,
		Success:  true,
		Message:  fmt.Sprintf("Successfully updated %d low-stock products", len(updated)),
		Errors:   []FieldError{},
	}
}

// ---- helpers ----

// validateCustomer checks the normalized form of the input, the same form
// newCustomer persists.
func (s *Service) validateCustomer(ctx context.Context, store Store, in CustomerInput) []FieldError {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	var errs []FieldError
	if !ValidEmail(email) {
		errs = append(errs, FieldError{Field: "email", Message: "Invalid email format"})
	}
	if !ValidPhone(strings.TrimSpace(in.Phone)) {
		errs = append(errs, FieldError{Field: "phone", Message: "Invalid phone number format"})
	}
	exists, err := store.CustomerEmailExists(ctx, email)
	if err != nil {
		errs = append(errs, FieldError{Field: "general", Message: err.Error()})
	} else if exists {
		errs = append(errs, FieldError{Field: "email", Message: "Email already exists"})
	}
	return errs
}

func newCustomer(in CustomerInput) *Customer {
	return &Customer{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(in.Name),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
		Phone: strings.TrimSpace(in.Phone),
	}
}

func (s *Service) publish(topic, eventType, entityID string, payload any) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("marshal event payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "crm-api",
		Payload:      body,
	}
	value, err := json.Marshal(env)
	if err != nil {
		s.log.Error("marshal event envelope", zap.String("type", eventType), zap.Error(err))
		return
	}
	s.events.Publish(topic, PartitionKey(entityID), value)
}

func orderFailure(msg string, err error) CreateOrderResult {
	return CreateOrderResult{
		Success: false,
		Message: msg,
		Errors:  []FieldError{{Field: "general", Message: err.Error()}},
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func missingIDs(requested []string, found []Product) []string {
	have := make(map[string]bool, len(found))
	for _, p := range found {
		have[p.ID] = true
	}
	var missing []string
	for _, id := range requested {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
