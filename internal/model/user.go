package model

import "time"

// Roles a user may hold.
const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// Identity providers a user may sign in with.
const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
	ProviderGitHub      = "github"
)

// SocialPasswordHash is stored for users created through a social provider.
// It is not a valid bcrypt hash, so password verification always fails.
const SocialPasswordHash = "!social"

// User represents an application account.  The json tags are omitted
// because handlers expose their own response types.
//
// Fields:
//  ID           – primary identifier.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash, or SocialPasswordHash for social accounts.
//  Name         – display name.
//  Role         – user, organizer or admin.
//  Provider     – provider the account was created with.
//  Image        – avatar URL (optional).
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Provider     string
	Image        string
	CreatedAt    time.Time
}

// RefreshToken models a stored refresh token.  The plain token is never
// stored; only its SHA-256 hash.
//
// Fields:
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (nil if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
