// Package domain contains core business types and interfaces.
//
// These types are separate from the repository models to allow for business
// logic enrichment and to decouple the domain layer from the database layer.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// GPSPermission represents the stored geolocation-consent state for a user.
//
// The state is persisted server-side so the client can avoid re-prompting
// the browser geolocation API on every visit. Anything the client has not
// explicitly reported reads as GPSNotAsked.
type GPSPermission string

const (
	GPSNotAsked GPSPermission = "not_asked"
	GPSGranted  GPSPermission = "granted"
	GPSDenied   GPSPermission = "denied"
)

// Valid reports whether p is one of the three known permission states.
func (p GPSPermission) Valid() bool {
	switch p {
	case GPSNotAsked, GPSGranted, GPSDenied:
		return true
	}
	return false
}

// NormalizeGPSPermission maps unknown or empty stored values to GPSNotAsked.
func NormalizeGPSPermission(s string) GPSPermission {
	p := GPSPermission(s)
	if !p.Valid() {
		return GPSNotAsked
	}
	return p
}

// User represents a registered user of the Pinmark platform.
type User struct {
	ID            uuid.UUID
	Email         string
	PasswordHash  string // Never expose this in API responses
	Name          string
	IsAdmin       bool
	IsActive      bool
	GPSPermission GPSPermission
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Session represents an authenticated session.
//
// Sessions are stored in the database with a hashed token.
// The raw token is only given to the client once (at login).
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RegisterParams contains the validated parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string // Raw password, will be hashed by service
	Name     string
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User  *User
	Token string // Raw session token (not hashed) - only returned once
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
