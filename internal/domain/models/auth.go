package models

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims represents the JWT claims issued by the identity provider.
// Only the subject is trusted for identity; authority is loaded from the users table.
type AccessClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Username             string `json:"preferred_username"`
	Role                 string `json:"role"`
}

// GetUserID parses the subject claim as a numeric user ID
func (c *AccessClaims) GetUserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Authority levels. Lower is more privileged.
const (
	AuthorityAdmin   = 0 // full rights, including deletion
	AuthorityManager = 1 // can create and edit folder structure, cannot delete
	AuthorityReader  = 2 // read-only on folder structure
)

// Permission is a bitset of the capabilities a user holds
type Permission uint32

const (
	PermFolderCreate Permission = 1 << iota
	PermFolderUpdate
	PermFolderDelete
	PermDocumentWrite
	PermDocumentPurge
	PermMailWrite
	PermMailArchive
	PermResponsibleAdmin
	PermConfidentialAccess
)

// Has reports whether every bit of p is set
func (ps Permission) Has(p Permission) bool {
	return ps&p == p
}

// PermissionsForLevel derives the permission set for an authority level
func PermissionsForLevel(level int) Permission {
	base := PermDocumentWrite | PermMailWrite
	switch {
	case level <= AuthorityAdmin:
		return base | PermFolderCreate | PermFolderUpdate | PermFolderDelete |
			PermDocumentPurge | PermMailArchive | PermResponsibleAdmin | PermConfidentialAccess
	case level == AuthorityManager:
		return base | PermFolderCreate | PermFolderUpdate | PermMailArchive
	default:
		return base
	}
}

// User is the acting identity supplied by the identity collaborator
type User struct {
	ID             int64  `json:"id" db:"id"`
	Username       string `json:"username" db:"username"`
	FullName       string `json:"full_name" db:"full_name"`
	Email          string `json:"email" db:"email"`
	AuthorityLevel int    `json:"authority_level" db:"authority_level"`
	Role           string `json:"role" db:"role"`
	Active         bool   `json:"active" db:"active"`
}

// Permissions returns the bitset for the user's authority level
func (u *User) Permissions() Permission {
	return PermissionsForLevel(u.AuthorityLevel)
}

// Can reports whether the user holds permission p
func (u *User) Can(p Permission) bool {
	return u != nil && u.Permissions().Has(p)
}

// DisplayName returns the full name, falling back to the username
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
