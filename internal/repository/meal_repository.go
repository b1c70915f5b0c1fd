package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mealtracker/internal/model"
)

type MealRepository struct {
	db *gorm.DB
}

func NewMealRepository(db *gorm.DB) *MealRepository {
	return &MealRepository{db: db}
}

func (r *MealRepository) Create(ctx context.Context, meal *model.Meal) error {
	if err := r.db.WithContext(ctx).Create(meal).Error; err != nil {
		return fmt.Errorf("create meal failed: %w", err)
	}
	return nil
}

func (r *MealRepository) GetByID(ctx context.Context, id string) (*model.Meal, error) {
	var meal model.Meal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&meal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get meal failed: %w", err)
	}
	return &meal, nil
}

// ListByUserID orders by occurrence date, newest first. Ties fall back to
// creation order and then id so repeated scans agree with each other.
func (r *MealRepository) ListByUserID(ctx context.Context, userID string) ([]model.Meal, error) {
	var meals []model.Meal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Order("created_at DESC").
		Order("id ASC").
		Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("list meals failed: %w", err)
	}
	return meals, nil
}

// Update replaces the mutable fields of the meal. A map is used so a false
// adherence flag is still written.
func (r *MealRepository) Update(ctx context.Context, meal *model.Meal) error {
	if meal.UpdatedAt.IsZero() {
		meal.UpdatedAt = time.Now()
	}
	err := r.db.WithContext(ctx).
		Model(&model.Meal{}).
		Where("id = ?", meal.ID).
		Updates(map[string]interface{}{
			"name":        meal.Name,
			"description": meal.Description,
			"date":        meal.Date,
			"is_on_diet":  meal.IsOnDiet,
			"updated_at":  meal.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("update meal failed: %w", err)
	}
	return nil
}

// Delete reports whether a row was removed.
func (r *MealRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Meal{})
	if result.Error != nil {
		return false, fmt.Errorf("delete meal failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
