package app

import (
	"context"

	"mealtracker/internal/model"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListBySessionID(ctx context.Context, sessionID string) ([]model.User, error)
}

type MealStore interface {
	Create(ctx context.Context, meal *model.Meal) error
	GetByID(ctx context.Context, id string) (*model.Meal, error)
	ListByUserID(ctx context.Context, userID string) ([]model.Meal, error)
	Update(ctx context.Context, meal *model.Meal) error
	Delete(ctx context.Context, id string) (bool, error)
}

type MealActivityReader interface {
	ListByUserID(ctx context.Context, userID string, limit int) ([]model.MealActivity, error)
}

// MetricsCache mirrors the dirty-marker protocol: writers mark the user
// dirty and drop the cached value, readers only populate a clean entry.
type MetricsCache interface {
	GetMetrics(ctx context.Context, userID string) (model.MealMetrics, bool, error)
	SetMetrics(ctx context.Context, userID string, metrics model.MealMetrics) error
	DeleteMetrics(ctx context.Context, userID string) error
	MarkDirty(ctx context.Context, userID string) error
	IsDirty(ctx context.Context, userID string) (bool, error)
}

type MealEventPublisher interface {
	Publish(ctx context.Context, event model.MealEvent) error
}
