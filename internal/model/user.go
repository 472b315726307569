package model

import "time"

// Roles assigned to users. The role stored on the row is authoritative;
// role claims carried inside tokens or sessions are only a hint.
const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table. Accounts are never hard-deleted; IsActive is flipped instead.
//
// Fields:
//  ID                 – primary key identifier of the user.
//  Email              – unique, lowercased email address.
//  PasswordHash       – bcrypt hashed password (empty for OAuth-only accounts).
//  FirstName          – given name.
//  LastName           – family name.
//  Role               – one of STUDENT, INSTRUCTOR, ADMIN.
//  IsEmailVerified    – whether the email address has been confirmed.
//  VerifyToken        – outstanding email-verification token (nullable).
//  VerifyTokenExpires – expiry of the verification token (nullable).
//  IsActive           – whether the account is active.
//  AvatarURL          – optional profile image URL.
//  Bio                – optional profile text.
//  CreatedAt          – timestamp of creation.
//  UpdatedAt          – timestamp of last update.
type User struct {
	ID                 uint64
	Email              string
	PasswordHash       string
	FirstName          string
	LastName           string
	Role               string
	IsEmailVerified    bool
	VerifyToken        *string
	VerifyTokenExpires *time.Time
	IsActive           bool
	AvatarURL          *string
	Bio                *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FullName joins the first and last name for display purposes.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
