package redisx

import "time"

const (
	// Cached JSON for unfiltered list queries: crm:customers / crm:products.
	KeyCustomerList = "crm:customers"
	KeyProductList  = "crm:products"

	// Dedup event processing in the notifier: crm:dedup:{event_id}.
	KeyDedup = "crm:dedup:%s"
)

var (
	TTLListCache = 5 * time.Minute
	TTLDedup     = 48 * time.Hour
)
