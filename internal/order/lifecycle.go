package order

import "time"

var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusShipped:    true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

func CanTransition(from, to OrderStatus) bool {
	return allowedTransitions[from][to]
}

// IsFinal reports whether the order has reached delivered or cancelled.
func (o *Order) IsFinal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

func itemsEditable(s OrderStatus) bool {
	return s == StatusPending || s == StatusProcessing
}

func (o *Order) CanBeCancelled() bool {
	return CanTransition(o.Status, StatusCancelled)
}

// Cancel moves the order to cancelled. It returns false and leaves the order
// untouched when the current status does not allow it. Refunds are not
// handled here.
func (o *Order) Cancel() bool {
	if !o.CanBeCancelled() {
		return false
	}
	o.Status = StatusCancelled
	return true
}

func (o *Order) MarkProcessing() bool {
	if !CanTransition(o.Status, StatusProcessing) {
		return false
	}
	o.Status = StatusProcessing
	return true
}

func (o *Order) MarkShipped(now time.Time) bool {
	if !CanTransition(o.Status, StatusShipped) {
		return false
	}
	o.Status = StatusShipped
	o.ShippedAt = &now
	return true
}

func (o *Order) MarkDelivered(now time.Time) bool {
	if !CanTransition(o.Status, StatusDelivered) {
		return false
	}
	o.Status = StatusDelivered
	o.DeliveredAt = &now
	return true
}
