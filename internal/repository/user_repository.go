package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mealtracker/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create relies on the unique indexes on email and session_id; a violation
// comes back as ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create user failed: %w", ErrDuplicate)
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

// ListBySessionID returns at most two users so callers can detect a broken
// uniqueness guarantee without scanning the table.
func (r *UserRepository) ListBySessionID(ctx context.Context, sessionID string) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Limit(2).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("query user by session failed: %w", err)
	}
	return users, nil
}
