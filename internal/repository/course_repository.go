package repository

import (
	"context"
	"database/sql"

	"github.com/coursehub/coursehub/internal/model"
)

// CourseRepo manages persistence for courses.
type CourseRepo struct{ db *sql.DB }

func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{db: db} }

const courseColumns = `id, instructor_id, category_id, title, description,
	price_cents, discount_price_cents, status, enrollment_count,
	created_at, updated_at`

// CourseFilter narrows public catalog listings. Zero values mean "no
// filter"; Page is 1-based.
type CourseFilter struct {
	CategoryID uint64
	Search     string
	Page       int
	PerPage    int
}

// Create inserts a course in DRAFT status and populates the generated ID.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO courses (instructor_id, category_id, title, description,
			price_cents, discount_price_cents, status)
		 VALUES (?,?,?,?,?,?,?)`,
		c.InstructorID, c.CategoryID, c.Title, c.Description,
		c.PriceCents, c.DiscountPriceCents, model.CourseStatusDraft)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.Status = model.CourseStatusDraft
	return nil
}

// GetByID fetches a course, returning ErrCourseNotFound when absent.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (model.Course, error) {
	var c model.Course
	err := r.db.QueryRowContext(ctx,
		"SELECT "+courseColumns+" FROM courses WHERE id=? LIMIT 1", id).Scan(
		&c.ID, &c.InstructorID, &c.CategoryID, &c.Title, &c.Description,
		&c.PriceCents, &c.DiscountPriceCents, &c.Status, &c.EnrollmentCount,
		&c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return c, ErrCourseNotFound
	}
	return c, err
}

// Update rewrites the editable fields of a course owned by instructorID.
// Admin callers pass instructorID=0 to bypass the ownership check. Returns
// ErrCourseNotFound for a missing course and ErrForbidden when another
// instructor owns it.
func (r *CourseRepo) Update(ctx context.Context, c *model.Course, instructorID uint64) error {
	cur, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if instructorID != 0 && cur.InstructorID != instructorID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE courses SET category_id=?, title=?, description=?,
			price_cents=?, discount_price_cents=?, updated_at=NOW()
		 WHERE id=?`,
		c.CategoryID, c.Title, c.Description,
		c.PriceCents, c.DiscountPriceCents, c.ID)
	return err
}

// SetStatus moves a course between lifecycle states, applying the same
// ownership rule as Update.
func (r *CourseRepo) SetStatus(ctx context.Context, id uint64, status string, instructorID uint64) error {
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if instructorID != 0 && cur.InstructorID != instructorID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE courses SET status=?, updated_at=NOW() WHERE id=?`, status, id)
	return err
}

// ListPublished returns one page of the public catalog plus the total
// number of matching courses.
func (r *CourseRepo) ListPublished(ctx context.Context, f CourseFilter) ([]model.Course, int, error) {
	where := "WHERE status=?"
	args := []interface{}{model.CourseStatusPublished}
	if f.CategoryID != 0 {
		where += " AND category_id=?"
		args = append(args, f.CategoryID)
	}
	if f.Search != "" {
		where += " AND title LIKE ?"
		args = append(args, "%"+f.Search+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM courses "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, per := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if per < 1 || per > 100 {
		per = 20
	}
	args = append(args, per, (page-1)*per)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+courseColumns+" FROM courses "+where+
			" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := scanCourses(rows)
	return out, total, err
}

// ListByInstructor returns every course owned by the instructor, drafts
// included.
func (r *CourseRepo) ListByInstructor(ctx context.Context, instructorID uint64) ([]model.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+courseColumns+" FROM courses WHERE instructor_id=? ORDER BY created_at DESC",
		instructorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCourses(rows)
}

func scanCourses(rows *sql.Rows) ([]model.Course, error) {
	var out []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(
			&c.ID, &c.InstructorID, &c.CategoryID, &c.Title, &c.Description,
			&c.PriceCents, &c.DiscountPriceCents, &c.Status, &c.EnrollmentCount,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
