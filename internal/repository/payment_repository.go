package repository

import (
	"context"
	"database/sql"

	"github.com/coursehub/coursehub/internal/model"
)

// PaymentRepo manages persistence for payment attempts. State transitions
// are guarded by WHERE status='PENDING', so redelivered webhook events find
// no matching row and turn into no-ops; correctness rests on the database's
// row-update atomicity, not on application locks.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreatePending inserts a PENDING payment row for a freshly created intent
// and populates the generated ID.
func (r *PaymentRepo) CreatePending(ctx context.Context, p *model.Payment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (user_id, course_id, stripe_payment_intent_id,
			amount_cents, platform_fee_cents, instructor_amount_cents, status)
		 VALUES (?,?,?,?,?,?,?)`,
		p.UserID, p.CourseID, p.StripePaymentIntentID,
		p.AmountCents, p.PlatformFeeCents, p.InstructorAmountCents,
		model.PaymentStatusPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.Status = model.PaymentStatusPending
	return nil
}

// FinalizeSucceeded applies the success outcome of a payment intent in one
// atomic transaction: the PENDING payment row becomes COMPLETED with a
// completion timestamp, the enrollment is upserted to ACTIVE and the course
// counter is incremented. All three apply or none do. Returns false without
// touching anything when no PENDING row matches the intent id, which is how
// duplicate deliveries are absorbed.
func (r *PaymentRepo) FinalizeSucceeded(ctx context.Context, intentID string, userID, courseID uint64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status=?, completed_at=NOW(), updated_at=NOW()
		 WHERE stripe_payment_intent_id=? AND status=?`,
		model.PaymentStatusCompleted, intentID, model.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil // already finalized or unknown intent
	}

	if err := upsertActiveTx(ctx, tx, userID, courseID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE courses SET enrollment_count = enrollment_count + 1 WHERE id=?`,
		courseID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// MarkFailed flips a PENDING payment to FAILED. No enrollment side effect.
// Returns false when no PENDING row matches.
func (r *PaymentRepo) MarkFailed(ctx context.Context, intentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status=?, updated_at=NOW()
		 WHERE stripe_payment_intent_id=? AND status=?`,
		model.PaymentStatusFailed, intentID, model.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
