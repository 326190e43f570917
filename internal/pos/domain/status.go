package domain

import "encoding/json"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusProcessed Status = "Processed"
	// StatusOpen only appears in data written by older app builds.
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusOpen, StatusClosed:
		return true
	}
	return false
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return NewValidationError("status", "must be a string")
	}
	st := Status(raw)
	if !st.Valid() {
		return NewValidationError("status", "unknown value "+raw)
	}
	*s = st
	return nil
}

// InKitchenQueue reports whether an order belongs on the KOT display.
func (s Status) InKitchenQueue() bool {
	return s != StatusProcessed && s != StatusClosed
}

// InHistory reports whether an order belongs in the processed/history view.
func (s Status) InHistory() bool {
	return s == StatusProcessed || s == StatusClosed
}

// StatusFilter selects orders by status.
type StatusFilter func(Status) bool

var (
	PendingView StatusFilter = Status.InKitchenQueue
	HistoryView StatusFilter = Status.InHistory
	AllView     StatusFilter = func(Status) bool { return true }
)

// ParseView resolves the view names used by list endpoints and the CLI.
func ParseView(name string) (StatusFilter, error) {
	switch name {
	case "", "all":
		return AllView, nil
	case "pending", "kot":
		return PendingView, nil
	case "history", "processed":
		return HistoryView, nil
	}
	return nil, NewValidationError("view", "unknown view "+name)
}
