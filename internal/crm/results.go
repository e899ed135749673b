package crm

// Mutation results share one shape: the payload (nil on failure), a success
// flag, a human-readable message and a list of field-tagged errors. Validation
// failures live here, not in transport-level errors.

type CreateCustomerResult struct {
	Customer *Customer    `json:"customer"`
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Errors   []FieldError `json:"errors"`
}

// BulkCustomerError records one rejected batch item by its input position.
type BulkCustomerError struct {
	Index  int          `json:"index"`
	Email  string       `json:"email"`
	Errors []FieldError `json:"errors"`
}

type BulkCreateCustomersResult struct {
	Customers    []Customer          `json:"customers"`
	SuccessCount int                 `json:"success_count"`
	Message      string              `json:"message"`
	Errors       []BulkCustomerError `json:"errors"`
}

type CreateProductResult struct {
	Product *Product     `json:"product"`
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

type CreateOrderResult struct {
	Order   *Order       `json:"order"`
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

type UpdateLowStockResult struct {
	Products []Product    `json:"products"`
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Errors   []FieldError `json:"errors"`
}
