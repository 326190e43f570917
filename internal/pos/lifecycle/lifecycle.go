// Package lifecycle is the order status state machine.
//
//	Pending   --kitchen-accept--> Processed
//	Processed --close-----------> Closed
//	Processed --edit------------> Pending
//	Closed    (terminal)
//
// Open is only found in data written by older app builds, which flipped closed
// orders back to Open whenever a detail screen was shown. It is never produced
// here. An Open order shows in the kitchen queue, so it accepts kitchen-accept
// as well as the Processed edges.
package lifecycle

import (
	"fmt"

	"github.com/jcmexdev/club-pos/internal/pos/domain"
)

type Action string

const (
	KitchenAccept Action = "kitchen-accept"
	Close         Action = "close"
	Edit          Action = "edit"
)

// ParseAction accepts the canonical names plus the UI aliases ("tick",
// "process", "checkout").
func ParseAction(s string) (Action, error) {
	switch s {
	case string(KitchenAccept), "tick", "accept", "process":
		return KitchenAccept, nil
	case string(Close), "checkout", "bill-close":
		return Close, nil
	case string(Edit):
		return Edit, nil
	}
	return "", domain.NewValidationError("action", fmt.Sprintf("unknown action %q", s))
}

type edge struct {
	from   domain.Status
	action Action
}

var table = map[edge]domain.Status{
	{domain.StatusPending, KitchenAccept}: domain.StatusProcessed,
	{domain.StatusProcessed, Close}:       domain.StatusClosed,
	{domain.StatusProcessed, Edit}:        domain.StatusPending,
	{domain.StatusOpen, KitchenAccept}:    domain.StatusProcessed,
	{domain.StatusOpen, Close}:            domain.StatusClosed,
	{domain.StatusOpen, Edit}:             domain.StatusPending,
}

// Next returns the status reached by applying action to from. Disallowed
// pairs, including anything from Closed, return a *domain.TransitionError.
func Next(from domain.Status, action Action) (domain.Status, error) {
	to, ok := table[edge{from, action}]
	if !ok {
		return from, &domain.TransitionError{From: from, Action: string(action)}
	}
	return to, nil
}

// Allowed lists the actions that can be applied from the given status.
func Allowed(from domain.Status) []Action {
	var out []Action
	for _, a := range []Action{KitchenAccept, Close, Edit} {
		if _, ok := table[edge{from, a}]; ok {
			out = append(out, a)
		}
	}
	return out
}

// IsTerminal reports whether no action leads out of s.
func IsTerminal(s domain.Status) bool {
	return len(Allowed(s)) == 0
}
