package ports

import (
	"context"
	"time"
)

// Credential is the login secret of a personal user. It lives apart from the
// PersonalUser aggregate so the password hash never reaches the domain.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CredentialRepository defines the interface for credential persistence.
type CredentialRepository interface {
	FindByEmail(ctx context.Context, email string) (*Credential, error)
	// Create fails with domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, c *Credential) error
	// UpdateEmail moves the login email of userID. It fails with
	// domain.ErrUserExists when the new email is taken.
	UpdateEmail(ctx context.Context, userID, email string) error
	// Delete removes the credential of userID; a missing one is not an error.
	Delete(ctx context.Context, userID string) error
}
