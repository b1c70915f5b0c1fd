package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mealtracker/internal/model"
)

type MealActivityRepository struct {
	db *gorm.DB
}

func NewMealActivityRepository(db *gorm.DB) *MealActivityRepository {
	return &MealActivityRepository{db: db}
}

func (r *MealActivityRepository) Create(ctx context.Context, activity *model.MealActivity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return fmt.Errorf("create meal activity failed: %w", err)
	}
	return nil
}

func (r *MealActivityRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]model.MealActivity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var activity []model.MealActivity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&activity).Error
	if err != nil {
		return nil, fmt.Errorf("list meal activity failed: %w", err)
	}
	return activity, nil
}
