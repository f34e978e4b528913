package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRefundAmount(t *testing.T) {
	cases := []struct {
		captured string
		penalty  string
		want     string
	}{
		{"1000", "5", "950.00"},
		{"708", "5", "672.60"},
		{"522", "5", "495.90"},
		{"99.99", "5", "94.99"}, // 94.9905 rounds down
		{"1000", "0", "1000.00"},
		{"0", "5", "0.00"},
	}
	for _, tc := range cases {
		got := RefundAmount(decimal.RequireFromString(tc.captured), decimal.RequireFromString(tc.penalty))
		assert.Equal(t, tc.want, got.StringFixed(2), "captured=%s penalty=%s", tc.captured, tc.penalty)
	}
}

func TestWithinWindow(t *testing.T) {
	confirmedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	window := 12 * time.Hour

	assert.True(t, withinWindow(confirmedAt, confirmedAt, window))
	assert.True(t, withinWindow(confirmedAt, confirmedAt.Add(6*time.Hour), window))
	// The boundary instant is still eligible.
	assert.True(t, withinWindow(confirmedAt, confirmedAt.Add(12*time.Hour), window))

	assert.False(t, withinWindow(confirmedAt, confirmedAt.Add(12*time.Hour+time.Second), window))
	assert.False(t, withinWindow(confirmedAt, confirmedAt.Add(48*time.Hour), window))
}
