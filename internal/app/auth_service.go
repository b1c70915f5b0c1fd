package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"mealtracker/internal/model"
	"mealtracker/internal/repository"
)

type AuthService struct {
	userRepo UserStore
	now      func() time.Time
	newToken func() string
}

type RegisterInput struct {
	Name  string
	Email string
}

func NewAuthService(userRepo UserStore) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// Register creates the user with a freshly issued session token. The token
// is returned on the user; it is never taken from the caller so two users
// can not end up sharing one.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if name == "" || email == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	now := s.now().UTC()
	user := &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		SessionID: s.newToken(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// the unique index settles races between concurrent registrations
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return user, nil
}

// ResolveSession maps a session token to its user by exact match. It never
// issues tokens.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	users, err := s.userRepo.ListBySessionID(ctx, token)
	if err != nil {
		return nil, err
	}
	switch len(users) {
	case 0:
		return nil, ErrUnauthenticated
	case 1:
		return &users[0], nil
	default:
		return nil, ErrSessionCorrupted
	}
}
