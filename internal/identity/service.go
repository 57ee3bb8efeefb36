package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classtrack/classtrack/internal/audit"
	"github.com/classtrack/classtrack/internal/id"
)

// Service provides identity-related business logic
type Service struct {
	repo        UserRepository
	hasher      *PasswordHasher
	tokens      *TokenIssuer
	auditLogger audit.Logger
}

// NewService creates a new identity service
func NewService(repo UserRepository, hasher *PasswordHasher, tokens *TokenIssuer, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		auditLogger: auditLogger,
	}
}

// CreateUser provisions a new staff account with credentials.
func (s *Service) CreateUser(ctx context.Context, username, name, role, password string) (*User, error) {
	existing, err := s.repo.GetByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &User{
		ID:           id.NewUUIDv7(),
		Username:     username,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserCreated,
		ActorID:  user.ID,
		Resource: "user",
		Metadata: map[string]any{
			audit.AttrUsername: username,
			audit.AttrRole:     role,
		},
	})

	return user, nil
}

// GetUser retrieves one user by id.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// ListUsers retrieves all active users.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// Login verifies credentials and issues a bearer token for the user's
// principal. Unknown usernames and wrong passwords are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, Principal, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.auditLogin(ctx, audit.TypeLoginFailed, "", username)
			return "", Principal{}, ErrInvalidCredentials
		}
		return "", Principal{}, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", Principal{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.auditLogin(ctx, audit.TypeLoginFailed, user.ID, username)
		return "", Principal{}, ErrInvalidCredentials
	}

	principal := user.Principal()
	token, err := s.tokens.Issue(principal)
	if err != nil {
		return "", Principal{}, err
	}

	s.auditLogin(ctx, audit.TypeLoginSuccess, user.ID, username)
	return token, principal, nil
}

// VerifyToken resolves a bearer token to its principal.
func (s *Service) VerifyToken(raw string) (Principal, error) {
	return s.tokens.Verify(raw)
}

func (s *Service) auditLogin(ctx context.Context, eventType, actorID, username string) {
	s.auditLogger.Log(ctx, audit.Event{
		Type:     eventType,
		ActorID:  actorID,
		Resource: "session",
		Metadata: map[string]any{
			audit.AttrUsername: username,
		},
	})
}
