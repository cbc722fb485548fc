package ports

import (
	"context"

	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/user"
)

// RegisterInput is the DTO passed from the transport layer to AuthService.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*user.Reference, error)
	// Login returns a signed token whose subject is the user id.
	Login(ctx context.Context, email, password string) (string, *user.Reference, error)
}

// PassportFactory turns identity claims into the passport for one request.
type PassportFactory interface {
	// ForIdentity returns the guest passport when userID is empty, unknown or
	// blocked.
	ForIdentity(ctx context.Context, userID string) (passport.Passport, error)
}
