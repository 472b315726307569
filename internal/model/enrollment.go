package model

import "time"

// Enrollment states.
const (
	EnrollmentStatusActive    = "ACTIVE"
	EnrollmentStatusCompleted = "COMPLETED"
	EnrollmentStatusCancelled = "CANCELLED"
)

// Enrollment mirrors the `enrollments` table. The (UserID, CourseID) pair is
// unique; creation uses upsert semantics so a repeated activation updates
// the existing row instead of duplicating it.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – enrolled student (users.id).
//  CourseID        – course being taken (courses.id).
//  Status          – ACTIVE, COMPLETED or CANCELLED.
//  ProgressPercent – completion percentage 0..100.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Enrollment struct {
	ID              uint64
	UserID          uint64
	CourseID        uint64
	Status          string
	ProgressPercent uint8
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
