package orderlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	// TraceID is the W3C trace ID (32 lowercase hex chars), empty without an
	// active span.
	TraceID string
	SpanID  string
}

// ExtractTraceInfo reads the active span from ctx. Both ids are empty when
// ctx carries no valid span, as in unit tests.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an entry stamped with the trace info found in ctx.
//
//	entry := orderlog.NewEntry(ctx, "ORD20241201120000", "kitchen-accept", "Pending", "Processed", "")
//	_ = repo.Save(ctx, entry)
func NewEntry(ctx context.Context, orderNumber, action, from, to, paymentMethod string) *Entry {
	ti := ExtractTraceInfo(ctx)
	return &Entry{
		ID:            uuid.NewString(),
		OrderNumber:   orderNumber,
		Action:        action,
		From:          from,
		To:            to,
		PaymentMethod: paymentMethod,
		TraceID:       ti.TraceID,
		SpanID:        ti.SpanID,
		At:            time.Now().UTC(),
	}
}
