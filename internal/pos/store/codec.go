package store

import (
	"bytes"
	"encoding/json"

	"github.com/jcmexdev/club-pos/internal/pos/domain"
)

// Encode serialises the full order list as stored under AllOrdersKey.
func Encode(orders []domain.Order) ([]byte, error) {
	if orders == nil {
		orders = []domain.Order{}
	}
	return json.Marshal(orders)
}

// Decode parses a stored order list. An absent or null blob is an empty list;
// anything unparsable is a *domain.ValidationError.
func Decode(b []byte) ([]domain.Order, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return []domain.Order{}, nil
	}
	var orders []domain.Order
	if err := json.Unmarshal(b, &orders); err != nil {
		return nil, domain.NewValidationError(AllOrdersKey, "malformed persisted JSON: "+err.Error())
	}
	for _, o := range orders {
		if o.OrderNumber == "" {
			return nil, domain.NewValidationError(AllOrdersKey, "order without orderNumber")
		}
	}
	return orders, nil
}
