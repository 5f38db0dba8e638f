package orders

import (
	"fmt"

	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
)

// allowedTransitions is keyed by current status. Statuses absent from the map
// are terminal.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:  {enums.OrderStatusAccepted, enums.OrderStatusCancelled},
	enums.OrderStatusAccepted: {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
}

// InvalidTransitionError reports a status change the lifecycle does not allow.
type InvalidTransitionError struct {
	From enums.OrderStatus
	To   enums.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order cannot move from %s to %s", e.From, e.To)
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns an *InvalidTransitionError for illegal edges.
func CheckTransition(from, to enums.OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to}
}
