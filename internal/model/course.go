package model

import "time"

// Course lifecycle states. Only PUBLISHED courses are visible in the public
// catalog and purchasable.
const (
	CourseStatusDraft     = "DRAFT"
	CourseStatusPublished = "PUBLISHED"
	CourseStatusArchived  = "ARCHIVED"
)

// Course mirrors the `courses` table. Every course is owned by exactly one
// instructor. Prices are stored in integer cents; when DiscountPriceCents is
// set it is the effective price. EnrollmentCount is maintained by the
// payment finalization transaction and the free-enrollment path.
//
// Fields:
//  ID                 – primary key identifier.
//  InstructorID       – owning instructor (users.id).
//  CategoryID         – category reference (categories.id).
//  Title              – course title.
//  Description        – long-form description.
//  PriceCents         – list price in cents.
//  DiscountPriceCents – discounted price in cents (nullable).
//  Status             – DRAFT, PUBLISHED or ARCHIVED.
//  EnrollmentCount    – aggregate number of active enrollments.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Course struct {
	ID                 uint64
	InstructorID       uint64
	CategoryID         uint64
	Title              string
	Description        string
	PriceCents         int64
	DiscountPriceCents *int64
	Status             string
	EnrollmentCount    uint64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// EffectivePriceCents returns the discount price when present, otherwise the
// list price.
func (c Course) EffectivePriceCents() int64 {
	if c.DiscountPriceCents != nil {
		return *c.DiscountPriceCents
	}
	return c.PriceCents
}

// Category mirrors the `categories` table.
//
// Fields:
//  ID   – primary key identifier.
//  Name – unique category name.
//  Slug – URL-safe identifier derived from the name.
type Category struct {
	ID   uint64
	Name string
	Slug string
}
