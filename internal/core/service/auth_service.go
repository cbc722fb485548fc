package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/user"
	"github.com/simnova/sharethrift/internal/core/ports"
)

const minPasswordLength = 8

// AuthService implements registration and login.
type AuthService struct {
	creds     ports.CredentialRepository
	users     ports.PersonalUserRepository
	roles     ports.RoleRepository
	events    ports.EventPublisher
	jwtSecret string
	tokenTTL  time.Duration
	clock     domain.Clock
	logger    zerolog.Logger
}

func NewAuthService(
	creds ports.CredentialRepository,
	users ports.PersonalUserRepository,
	roles ports.RoleRepository,
	events ports.EventPublisher,
	jwtSecret string,
	tokenTTL time.Duration,
	clock domain.Clock,
	logger zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		creds:     creds,
		users:     users,
		roles:     roles,
		events:    events,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		clock:     clock,
		logger:    logger,
	}
}

// Register signs up a personal user with the default role. The user is
// created under the system passport since nobody is logged in yet. The
// credential is stored first and removed again when the user save fails.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (ref *user.Reference, err error) {
	ctx, span := startSpan(ctx, "AuthService.Register")
	defer func() { endSpan(span, err) }()

	if len(in.Password) < minPasswordLength {
		return nil, domain.InvariantError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	role, err := s.roles.GetDefault(ctx, passport.System())
	if err != nil {
		return nil, fmt.Errorf("register: default role: %w", err)
	}
	u, err := user.NewInstance(passport.System(), user.Draft{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		RoleID:    role.ID(),
	}, s.clock)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	existing, err := s.creds.FindByEmail(ctx, u.Email())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if err := s.creds.Create(ctx, &ports.Credential{
		UserID:       u.ID(),
		Email:        u.Email(),
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := s.users.Save(ctx, u); err != nil {
		// the credential must not outlive a user that was never stored
		if derr := s.creds.Delete(ctx, u.ID()); derr != nil {
			s.logger.Error().Err(derr).Str("user_id", u.ID()).Msg("orphaned credential left behind")
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	publish(ctx, s.events, u)

	s.logger.Info().Str("user_id", u.ID()).Str("role_id", role.ID()).Msg("user registered")
	out := u.Reference()
	return &out, nil
}

// Login verifies the password and returns a token for the user. Blocked
// accounts cannot log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (token string, ref *user.Reference, err error) {
	ctx, span := startSpan(ctx, "AuthService.Login")
	defer func() { endSpan(span, err) }()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	cred, err := s.creds.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	u, err := s.users.Get(ctx, cred.UserID, passport.System())
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	if u.IsBlocked() {
		return "", nil, &domain.Error{Kind: domain.ErrInvalidCredentials, Message: "account is blocked"}
	}

	token, err = s.generateToken(u)
	if err != nil {
		return "", nil, err
	}
	out := u.Reference()
	return token, &out, nil
}

func (s *AuthService) generateToken(u *user.PersonalUser) (string, error) {
	now := s.clock.Now()
	claims := jwt.MapClaims{
		"sub":   u.ID(),
		"email": u.Email(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
