// Package orderlog is a durable audit trail of order status changes.
//
// Every accepted lifecycle transition appends one entry. Entries are never
// updated; the latest entry for an order number reflects its current status.
// Each entry carries the trace and span ids of the request that caused it so
// a row can be matched with its trace.
package orderlog

import "time"

// Entry is one row of the order log.
type Entry struct {
	// ID is a random UUID assigned when the entry is built.
	ID string `json:"id"`

	OrderNumber string `json:"orderNumber"`

	// Action is the lifecycle action name, or "create" for a new order.
	Action string `json:"action"`

	// From is empty for a created order.
	From string `json:"from"`
	To   string `json:"to"`

	// PaymentMethod is set on close.
	PaymentMethod string `json:"paymentMethod,omitempty"`

	TraceID string `json:"traceId,omitempty"`
	SpanID  string `json:"spanId,omitempty"`

	At time.Time `json:"at"`
}
