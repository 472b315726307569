package handler

// In-memory store fakes mirroring the repository semantics the handlers
// rely on: upsert enrollments, PENDING-guarded payment transitions and the
// enrollment counter moving together with finalization.

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/coursehub/coursehub/internal/model"
	"github.com/coursehub/coursehub/internal/repository"
	"github.com/coursehub/coursehub/internal/utils"
)

type fakeUserStore struct {
	mu    sync.Mutex
	seq   uint64
	users map[uint64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]model.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, u *model.User, password string, cost int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, ex := range s.users {
		if ex.Email == u.Email {
			return 0, repository.ErrEmailExists
		}
	}
	if password != "" {
		hash, err := utils.HashPassword(password, cost)
		if err != nil {
			return 0, err
		}
		u.PasswordHash = hash
	}
	s.seq++
	u.ID = s.seq
	s.users[u.ID] = *u
	return u.ID, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *fakeUserStore) VerifyEmailByToken(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.VerifyToken != nil && *u.VerifyToken == token &&
			u.VerifyTokenExpires != nil && u.VerifyTokenExpires.After(time.Now().UTC()) {
			u.IsEmailVerified = true
			u.VerifyToken = nil
			u.VerifyTokenExpires = nil
			s.users[id] = u
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, id uint64, firstName, lastName string, avatarURL, bio *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.AvatarURL = avatarURL
	u.Bio = bio
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) Deactivate(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.IsActive = false
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) put(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID > s.seq {
		s.seq = u.ID
	}
	s.users[u.ID] = u
}

type fakeCourseStore struct {
	mu      sync.Mutex
	seq     uint64
	courses map[uint64]model.Course
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{courses: map[uint64]model.Course{}}
}

func (s *fakeCourseStore) Create(_ context.Context, c *model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	c.ID = s.seq
	c.Status = model.CourseStatusDraft
	s.courses[c.ID] = *c
	return nil
}

func (s *fakeCourseStore) GetByID(_ context.Context, id uint64) (model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return model.Course{}, repository.ErrCourseNotFound
	}
	return c, nil
}

func (s *fakeCourseStore) Update(_ context.Context, c *model.Course, instructorID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.courses[c.ID]
	if !ok {
		return repository.ErrCourseNotFound
	}
	if instructorID != 0 && cur.InstructorID != instructorID {
		return repository.ErrForbidden
	}
	cur.CategoryID = c.CategoryID
	cur.Title = c.Title
	cur.Description = c.Description
	cur.PriceCents = c.PriceCents
	cur.DiscountPriceCents = c.DiscountPriceCents
	s.courses[c.ID] = cur
	return nil
}

func (s *fakeCourseStore) SetStatus(_ context.Context, id uint64, status string, instructorID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.courses[id]
	if !ok {
		return repository.ErrCourseNotFound
	}
	if instructorID != 0 && cur.InstructorID != instructorID {
		return repository.ErrForbidden
	}
	cur.Status = status
	s.courses[id] = cur
	return nil
}

func (s *fakeCourseStore) ListPublished(_ context.Context, f repository.CourseFilter) ([]model.Course, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Course
	for _, c := range s.courses {
		if c.Status != model.CourseStatusPublished {
			continue
		}
		if f.CategoryID != 0 && c.CategoryID != f.CategoryID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (s *fakeCourseStore) ListByInstructor(_ context.Context, instructorID uint64) ([]model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Course
	for _, c := range s.courses {
		if c.InstructorID == instructorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCourseStore) put(c model.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID > s.seq {
		s.seq = c.ID
	}
	s.courses[c.ID] = c
}

func (s *fakeCourseStore) enrollmentCount(id uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.courses[id].EnrollmentCount
}

func (s *fakeCourseStore) bumpCount(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.courses[id]
	c.EnrollmentCount++
	s.courses[id] = c
}

type fakeCategoryStore struct {
	mu   sync.Mutex
	seq  uint64
	cats map[uint64]model.Category
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{cats: map[uint64]model.Category{}}
}

func (s *fakeCategoryStore) Create(_ context.Context, c *model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.cats {
		if ex.Name == c.Name || ex.Slug == c.Slug {
			return repository.ErrConflict
		}
	}
	s.seq++
	c.ID = s.seq
	s.cats[c.ID] = *c
	return nil
}

func (s *fakeCategoryStore) List(_ context.Context) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Category
	for _, c := range s.cats {
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeCategoryStore) GetByID(_ context.Context, id uint64) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cats[id]
	if !ok {
		return model.Category{}, repository.ErrCategoryNotFound
	}
	return c, nil
}

type enrollKey struct{ userID, courseID uint64 }

type fakeEnrollmentStore struct {
	mu      sync.Mutex
	seq     uint64
	rows    map[enrollKey]*model.Enrollment
	courses *fakeCourseStore
}

func newFakeEnrollmentStore(courses *fakeCourseStore) *fakeEnrollmentStore {
	return &fakeEnrollmentStore{rows: map[enrollKey]*model.Enrollment{}, courses: courses}
}

func (s *fakeEnrollmentStore) HasActiveOrCompleted(_ context.Context, userID, courseID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[enrollKey{userID, courseID}]
	return ok && (e.Status == model.EnrollmentStatusActive || e.Status == model.EnrollmentStatusCompleted), nil
}

func (s *fakeEnrollmentStore) upsertActive(userID, courseID uint64) {
	key := enrollKey{userID, courseID}
	if e, ok := s.rows[key]; ok {
		e.Status = model.EnrollmentStatusActive
		return
	}
	s.seq++
	s.rows[key] = &model.Enrollment{
		ID: s.seq, UserID: userID, CourseID: courseID,
		Status: model.EnrollmentStatusActive, CreatedAt: time.Now().UTC(),
	}
}

func (s *fakeEnrollmentStore) UpsertActive(_ context.Context, userID, courseID uint64) error {
	s.mu.Lock()
	s.upsertActive(userID, courseID)
	s.mu.Unlock()
	s.courses.bumpCount(courseID)
	return nil
}

func (s *fakeEnrollmentStore) ListByUser(_ context.Context, userID uint64) ([]repository.EnrollmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.EnrollmentDetail
	for _, e := range s.rows {
		if e.UserID != userID {
			continue
		}
		title := ""
		if c, err := s.courses.GetByID(context.Background(), e.CourseID); err == nil {
			title = c.Title
		}
		out = append(out, repository.EnrollmentDetail{
			ID: e.ID, CourseID: e.CourseID, CourseTitle: title, Status: e.Status,
			ProgressPercent: e.ProgressPercent, EnrolledAt: e.CreatedAt,
		})
	}
	return out, nil
}

func (s *fakeEnrollmentStore) UpdateProgress(_ context.Context, userID, courseID uint64, percent uint8) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[enrollKey{userID, courseID}]
	if !ok || e.Status == model.EnrollmentStatusCancelled {
		return false, nil
	}
	e.ProgressPercent = percent
	if percent >= 100 {
		e.Status = model.EnrollmentStatusCompleted
	}
	return true, nil
}

func (s *fakeEnrollmentStore) status(userID, courseID uint64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[enrollKey{userID, courseID}]
	if !ok {
		return ""
	}
	return e.Status
}

type fakePaymentStore struct {
	mu       sync.Mutex
	seq      uint64
	byIntent map[string]*model.Payment
	enrolls  *fakeEnrollmentStore
	courses  *fakeCourseStore

	// Injectable faults simulating a database outage.
	finalizeErr error
	markErr     error
}

func newFakePaymentStore(enrolls *fakeEnrollmentStore, courses *fakeCourseStore) *fakePaymentStore {
	return &fakePaymentStore{byIntent: map[string]*model.Payment{}, enrolls: enrolls, courses: courses}
}

func (s *fakePaymentStore) CreatePending(_ context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p.ID = s.seq
	p.Status = model.PaymentStatusPending
	cp := *p
	s.byIntent[p.StripePaymentIntentID] = &cp
	return nil
}

func (s *fakePaymentStore) FinalizeSucceeded(_ context.Context, intentID string, userID, courseID uint64) (bool, error) {
	if s.finalizeErr != nil {
		return false, s.finalizeErr
	}
	s.mu.Lock()
	p, ok := s.byIntent[intentID]
	if !ok || p.Status != model.PaymentStatusPending {
		s.mu.Unlock()
		return false, nil
	}
	now := time.Now().UTC()
	p.Status = model.PaymentStatusCompleted
	p.CompletedAt = &now
	s.mu.Unlock()

	s.enrolls.mu.Lock()
	s.enrolls.upsertActive(userID, courseID)
	s.enrolls.mu.Unlock()
	s.courses.bumpCount(courseID)
	return true, nil
}

func (s *fakePaymentStore) MarkFailed(_ context.Context, intentID string) (bool, error) {
	if s.markErr != nil {
		return false, s.markErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byIntent[intentID]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusFailed
	return true, nil
}

func (s *fakePaymentStore) get(intentID string) (model.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byIntent[intentID]
	if !ok {
		return model.Payment{}, false
	}
	return *p, true
}

func (s *fakePaymentStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byIntent)
}
