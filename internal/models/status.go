package models

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusProcessing     OrderStatus = "PROCESSING"
	StatusShipped        OrderStatus = "SHIPPED"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
	StatusReturned       OrderStatus = "RETURNED"
	StatusRefunded       OrderStatus = "REFUNDED"
)

// validNext is the directed transition graph. CANCELLED and REFUNDED are
// terminal.
var validNext = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusProcessing, StatusCancelled},
	StatusProcessing:     {StatusShipped, StatusCancelled},
	StatusShipped:        {StatusOutForDelivery, StatusDelivered},
	StatusOutForDelivery: {StatusDelivered, StatusReturned},
	StatusDelivered:      {StatusReturned},
	StatusCancelled:      {},
	StatusReturned:       {StatusRefunded},
	StatusRefunded:       {},
}

// CancellableStatuses are the states an admin may cancel an order from.
var CancellableStatuses = []OrderStatus{StatusPending, StatusConfirmed, StatusProcessing}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s OrderStatus) bool {
	_, ok := validNext[s]
	return ok
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range validNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedNext returns the legal successor states of from.
func AllowedNext(from OrderStatus) []OrderStatus {
	next := validNext[from]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// Cancellable reports whether an admin may cancel from the given status.
func Cancellable(s OrderStatus) bool {
	for _, c := range CancellableStatuses {
		if c == s {
			return true
		}
	}
	return false
}

// StockEffect is the inventory adjustment a transition carries.
type StockEffect int

const (
	StockNone StockEffect = iota
	// StockReserve increments reserved, failing on insufficient stock.
	StockReserve
	// StockRelease decrements reserved, returning units to sellable stock.
	StockRelease
	// StockCommit decrements both quantity and reserved: stock leaves the
	// warehouse for good.
	StockCommit
)

// EffectFor returns the inventory side effect of a legal transition. The
// effect must run in the same transaction as the status write.
func EffectFor(from, to OrderStatus) StockEffect {
	switch {
	case from == StatusPending && to == StatusConfirmed:
		return StockReserve
	case from == StatusPending && to == StatusCancelled:
		// A PENDING order has reserved nothing yet; releasing here would
		// eat reservations held by other orders.
		return StockNone
	case to == StatusCancelled:
		// CONFIRMED/PROCESSING hold an open reservation and nothing is
		// committed yet, so reserved units go back to sellable stock.
		return StockRelease
	case from == StatusOutForDelivery && to == StatusReturned:
		// Returned before delivery: the reservation is still open.
		return StockRelease
	case to == StatusDelivered:
		return StockCommit
	}
	return StockNone
}
