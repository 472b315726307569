// Package repository contains the MySQL data access layer. Sentinel errors
// defined here let handlers distinguish failure scenarios without parsing
// driver messages: ErrForbidden maps to HTTP 403, ErrConflict to 409, the
// *NotFound values to 404.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update clashes with existing
// state, such as registering an already-used email.
var ErrConflict = errors.New("conflict")

// ErrCourseNotFound indicates the referenced course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// ErrCategoryNotFound indicates the referenced category does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// ErrEmailExists indicates a user row with the same email already exists.
var ErrEmailExists = errors.New("email already exists")
