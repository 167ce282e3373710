package shared

// CalculateLineTotals derives the money fields of a single proposal line.
func CalculateLineTotals(quantity, unitPrice, discountPercent float64) (subtotal, discountAmount, total float64) {
	subtotal = quantity * unitPrice
	discountAmount = subtotal * (discountPercent / 100)
	total = subtotal - discountAmount
	return
}

// ApplyDiscount applies a percentage discount to a gross amount.
func ApplyDiscount(amount, discountPercent float64) (discountAmount, discounted float64) {
	discountAmount = amount * (discountPercent / 100)
	discounted = amount - discountAmount
	return
}
