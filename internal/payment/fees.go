// Package payment wraps the external card processor: intent creation, the
// revenue split applied to every sale, and webhook signature verification.
package payment

// Revenue split applied at intent-creation time. The split is fixed per
// platform, not configurable per course; it is declared once here and
// nowhere else.
const (
	PlatformFeePercent = 10
	InstructorPercent  = 100 - PlatformFeePercent
)

// SplitFee divides an amount in cents between platform and instructor.
// The platform share rounds down; the instructor receives the remainder so
// the two parts always sum to the full amount.
func SplitFee(amountCents int64) (platformCents, instructorCents int64) {
	platformCents = amountCents * PlatformFeePercent / 100
	return platformCents, amountCents - platformCents
}

// ToCents converts a decimal currency amount to integer minor units,
// rounding halves away from zero.
func ToCents(amount float64) int64 {
	if amount < 0 {
		return -ToCents(-amount)
	}
	return int64(amount*100 + 0.5)
}
