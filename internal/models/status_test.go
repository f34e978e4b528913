package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to OrderStatus }{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusProcessing},
		{StatusConfirmed, StatusCancelled},
		{StatusProcessing, StatusShipped},
		{StatusProcessing, StatusCancelled},
		{StatusShipped, StatusOutForDelivery},
		{StatusShipped, StatusDelivered},
		{StatusOutForDelivery, StatusDelivered},
		{StatusOutForDelivery, StatusReturned},
		{StatusDelivered, StatusReturned},
		{StatusReturned, StatusRefunded},
	}
	for _, tc := range legal {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be legal", tc.from, tc.to)
	}

	illegal := []struct{ from, to OrderStatus }{
		{StatusPending, StatusShipped},
		{StatusPending, StatusDelivered},
		{StatusConfirmed, StatusDelivered},
		{StatusShipped, StatusCancelled},
		{StatusShipped, StatusReturned},
		{StatusDelivered, StatusProcessing},
		{StatusDelivered, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusConfirmed},
		{StatusRefunded, StatusReturned},
		{StatusConfirmed, StatusConfirmed},
	}
	for _, tc := range illegal {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be illegal", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoSuccessors(t *testing.T) {
	assert.Empty(t, AllowedNext(StatusCancelled))
	assert.Empty(t, AllowedNext(StatusRefunded))
}

func TestAllowedNext(t *testing.T) {
	assert.ElementsMatch(t,
		[]OrderStatus{StatusConfirmed, StatusCancelled},
		AllowedNext(StatusPending))
	assert.ElementsMatch(t,
		[]OrderStatus{StatusOutForDelivery, StatusDelivered},
		AllowedNext(StatusShipped))
	assert.ElementsMatch(t,
		[]OrderStatus{StatusRefunded},
		AllowedNext(StatusReturned))
}

func TestValidStatus(t *testing.T) {
	for s := range validNext {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("SHIPPING"))
	assert.False(t, ValidStatus(""))
}

func TestCancellable(t *testing.T) {
	assert.True(t, Cancellable(StatusPending))
	assert.True(t, Cancellable(StatusConfirmed))
	assert.True(t, Cancellable(StatusProcessing))

	assert.False(t, Cancellable(StatusShipped))
	assert.False(t, Cancellable(StatusOutForDelivery))
	assert.False(t, Cancellable(StatusDelivered))
	assert.False(t, Cancellable(StatusCancelled))
	assert.False(t, Cancellable(StatusReturned))
	assert.False(t, Cancellable(StatusRefunded))
}

func TestEffectFor(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     StockEffect
	}{
		{StatusPending, StatusConfirmed, StockReserve},
		// Nothing was reserved before confirmation, so cancelling a PENDING
		// order must not touch the ledger.
		{StatusPending, StatusCancelled, StockNone},
		{StatusConfirmed, StatusCancelled, StockRelease},
		{StatusProcessing, StatusCancelled, StockRelease},
		{StatusOutForDelivery, StatusReturned, StockRelease},
		{StatusShipped, StatusDelivered, StockCommit},
		{StatusOutForDelivery, StatusDelivered, StockCommit},
		{StatusConfirmed, StatusProcessing, StockNone},
		{StatusProcessing, StatusShipped, StockNone},
		{StatusShipped, StatusOutForDelivery, StockNone},
		// Stock already left the warehouse at delivery; a return is a
		// bookkeeping transition, restocking happens out of band.
		{StatusDelivered, StatusReturned, StockNone},
		{StatusReturned, StatusRefunded, StockNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EffectFor(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestNoReleaseOrCommitBeforeReservation(t *testing.T) {
	// The only reserve edge is PENDING -> CONFIRMED, so no edge leaving
	// PENDING may release or commit stock: there is nothing to give back yet.
	for _, to := range AllowedNext(StatusPending) {
		effect := EffectFor(StatusPending, to)
		assert.NotEqual(t, StockRelease, effect, "PENDING -> %s must not release", to)
		assert.NotEqual(t, StockCommit, effect, "PENDING -> %s must not commit", to)
	}
}
