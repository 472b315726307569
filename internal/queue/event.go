// Package queue defines message payloads exchanged over the message broker.
package queue

// EnrollmentActivatedEvent is published after a payment webhook finalizes
// an enrollment (or a free enrollment is created). It carries enough for
// downstream consumers to send receipts or update analytics without
// querying the primary database.
type EnrollmentActivatedEvent struct {
	UserID          uint64 `json:"user_id"`
	CourseID        uint64 `json:"course_id"`
	CourseTitle     string `json:"course_title"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	AmountCents     int64  `json:"amount_cents"`
	ActivatedAt     string `json:"activated_at"`
}
