package model

import "time"

// Payment states. The only legal transitions are PENDING -> COMPLETED and
// PENDING -> FAILED; both are applied with UPDATE ... WHERE status='PENDING'
// so duplicate webhook deliveries match nothing.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// Payment mirrors the `payments` table. One row is created per payment
// attempt when an intent is requested from the processor. The amount split
// between platform and instructor is fixed at intent-creation time.
//
// Fields:
//  ID                    – primary key identifier.
//  UserID                – paying student (users.id).
//  CourseID              – purchased course (courses.id).
//  StripePaymentIntentID – unique processor intent id.
//  AmountCents           – charged amount in cents.
//  PlatformFeeCents      – platform share in cents.
//  InstructorAmountCents – instructor share in cents.
//  Status                – PENDING, COMPLETED or FAILED.
//  CompletedAt           – when the webhook confirmed the charge (nullable).
//  CreatedAt             – creation timestamp.
//  UpdatedAt             – last update timestamp.
type Payment struct {
	ID                    uint64
	UserID                uint64
	CourseID              uint64
	StripePaymentIntentID string
	AmountCents           int64
	PlatformFeeCents      int64
	InstructorAmountCents int64
	Status                string
	CompletedAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
