// Package handler implements the HTTP endpoints. Handlers depend on narrow
// store interfaces rather than the concrete SQL repositories so they can be
// exercised against in-memory fakes; the repository types satisfy these
// interfaces.
package handler

import (
	"context"

	"github.com/coursehub/coursehub/internal/model"
	"github.com/coursehub/coursehub/internal/repository"
)

// UserStore is the user persistence surface consumed by auth handlers.
type UserStore interface {
	Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	VerifyEmailByToken(ctx context.Context, token string) (bool, error)
	UpdateProfile(ctx context.Context, id uint64, firstName, lastName string, avatarURL, bio *string) error
	Deactivate(ctx context.Context, id uint64) error
}

// CourseStore is the course persistence surface consumed by catalog and
// payment handlers.
type CourseStore interface {
	Create(ctx context.Context, c *model.Course) error
	GetByID(ctx context.Context, id uint64) (model.Course, error)
	Update(ctx context.Context, c *model.Course, instructorID uint64) error
	SetStatus(ctx context.Context, id uint64, status string, instructorID uint64) error
	ListPublished(ctx context.Context, f repository.CourseFilter) ([]model.Course, int, error)
	ListByInstructor(ctx context.Context, instructorID uint64) ([]model.Course, error)
}

// CategoryStore is the category persistence surface.
type CategoryStore interface {
	Create(ctx context.Context, c *model.Category) error
	List(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id uint64) (model.Category, error)
}

// EnrollmentStore is the enrollment persistence surface.
type EnrollmentStore interface {
	HasActiveOrCompleted(ctx context.Context, userID, courseID uint64) (bool, error)
	UpsertActive(ctx context.Context, userID, courseID uint64) error
	ListByUser(ctx context.Context, userID uint64) ([]repository.EnrollmentDetail, error)
	UpdateProgress(ctx context.Context, userID, courseID uint64, percent uint8) (bool, error)
}

// PaymentStore is the payment persistence surface. FinalizeSucceeded and
// MarkFailed report false when no PENDING row matched, which callers treat
// as an absorbed duplicate delivery.
type PaymentStore interface {
	CreatePending(ctx context.Context, p *model.Payment) error
	FinalizeSucceeded(ctx context.Context, intentID string, userID, courseID uint64) (bool, error)
	MarkFailed(ctx context.Context, intentID string) (bool, error)
}
