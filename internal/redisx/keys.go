package redisx

import "time"

const (
	// Idempotent order placement: idem:order:create:{user_id}:{key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%d:%s"

	// Order read cache: order:{order_id} -> order JSON
	KeyOrder = "order:%d"

	// Event dedup: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	// a claimed key whose placement never finished frees itself after this
	TTLIdemPending = time.Minute
	TTLOrderCache  = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
