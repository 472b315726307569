package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/coursehub/coursehub/internal/model"
)

// EnrollmentRepo manages persistence for enrollments. The (user_id,
// course_id) pair carries a unique index, which is what makes the upsert
// idempotent.
type EnrollmentRepo struct{ db *sql.DB }

func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

// HasActiveOrCompleted reports whether the user already holds a live
// enrollment for the course. CANCELLED rows do not count: a student who
// cancelled may buy again.
func (r *EnrollmentRepo) HasActiveOrCompleted(ctx context.Context, userID, courseID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments
		 WHERE user_id=? AND course_id=? AND status IN (?,?)`,
		userID, courseID,
		model.EnrollmentStatusActive, model.EnrollmentStatusCompleted).Scan(&n)
	return n > 0, err
}

// UpsertActive activates an enrollment outside any payment flow (free
// courses and the admin path) and bumps the course counter in the same
// transaction.
func (r *EnrollmentRepo) UpsertActive(ctx context.Context, userID, courseID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertActiveTx(ctx, tx, userID, courseID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE courses SET enrollment_count = enrollment_count + 1 WHERE id=?`,
		courseID); err != nil {
		return err
	}
	return tx.Commit()
}

// upsertActiveTx inserts or reactivates an enrollment inside the caller's
// transaction. Shared with the payment finalization flow.
func upsertActiveTx(ctx context.Context, tx *sql.Tx, userID, courseID uint64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO enrollments (user_id, course_id, status, progress_percent)
		 VALUES (?,?,?,0)
		 ON DUPLICATE KEY UPDATE status=VALUES(status), updated_at=NOW()`,
		userID, courseID, model.EnrollmentStatusActive)
	return err
}

// EnrollmentDetail joins an enrollment with display fields of its course.
type EnrollmentDetail struct {
	ID              uint64    `json:"id"`
	CourseID        uint64    `json:"course_id"`
	CourseTitle     string    `json:"course_title"`
	Status          string    `json:"status"`
	ProgressPercent uint8     `json:"progress_percent"`
	EnrolledAt      time.Time `json:"enrolled_at"`
}

// ListByUser returns the user's enrollments with course titles, newest
// first.
func (r *EnrollmentRepo) ListByUser(ctx context.Context, userID uint64) ([]EnrollmentDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.course_id, c.title, e.status, e.progress_percent, e.created_at
		 FROM enrollments e JOIN courses c ON c.id = e.course_id
		 WHERE e.user_id=? ORDER BY e.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EnrollmentDetail
	for rows.Next() {
		var e model.Enrollment
		var title string
		if err := rows.Scan(&e.ID, &e.CourseID, &title, &e.Status,
			&e.ProgressPercent, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, EnrollmentDetail{
			ID:              e.ID,
			CourseID:        e.CourseID,
			CourseTitle:     title,
			Status:          e.Status,
			ProgressPercent: e.ProgressPercent,
			EnrolledAt:      e.CreatedAt,
		})
	}
	return out, rows.Err()
}

// UpdateProgress sets the progress percentage on a live enrollment,
// promoting it to COMPLETED at 100. Returns false when the user has no
// active or completed enrollment for the course.
func (r *EnrollmentRepo) UpdateProgress(ctx context.Context, userID, courseID uint64, percent uint8) (bool, error) {
	status := model.EnrollmentStatusActive
	if percent >= 100 {
		percent = 100
		status = model.EnrollmentStatusCompleted
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE enrollments SET progress_percent=?, status=?, updated_at=NOW()
		 WHERE user_id=? AND course_id=? AND status IN (?,?)`,
		percent, status, userID, courseID,
		model.EnrollmentStatusActive, model.EnrollmentStatusCompleted)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
