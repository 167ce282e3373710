package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateLineTotals(t *testing.T) {
	subtotal, discount, total := CalculateLineTotals(4, 250, 10)
	assert.InDelta(t, 1000.0, subtotal, 0.001)
	assert.InDelta(t, 100.0, discount, 0.001)
	assert.InDelta(t, 900.0, total, 0.001)
}

func TestApplyDiscount(t *testing.T) {
	discount, discounted := ApplyDiscount(1000, 10)
	assert.InDelta(t, 100.0, discount, 0.001)
	assert.InDelta(t, 900.0, discounted, 0.001)

	discount, discounted = ApplyDiscount(1000, 0)
	assert.Zero(t, discount)
	assert.InDelta(t, 1000.0, discounted, 0.001)
}
