package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mealtracker/internal/model"
)

const metricsComputeTimeout = 10 * time.Second

type MealService struct {
	mealRepo     MealStore
	activityRepo MealActivityReader
	metricsCache MetricsCache
	publisher    MealEventPublisher
	logger       *zap.Logger

	metricsGroup singleflight.Group
	now          func() time.Time
	newID        func() string
}

// MealInput carries the four mutable fields. Create and Update both take a
// complete input; there is no partial merge.
type MealInput struct {
	Name        string
	Description string
	Date        time.Time
	IsOnDiet    bool
}

// NewMealService wires the meal store with the optional metrics cache and
// event publisher; pass nil for either to disable it.
func NewMealService(
	mealRepo MealStore,
	activityRepo MealActivityReader,
	metricsCache MetricsCache,
	publisher MealEventPublisher,
	logger *zap.Logger,
) *MealService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MealService{
		mealRepo:     mealRepo,
		activityRepo: activityRepo,
		metricsCache: metricsCache,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

func (s *MealService) Create(ctx context.Context, user *model.User, input MealInput) (*model.Meal, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if err := checkMealInput(input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	meal := &model.Meal{
		ID:          s.newID(),
		Name:        input.Name,
		Description: input.Description,
		Date:        input.Date.UTC(),
		IsOnDiet:    input.IsOnDiet,
		UserID:      user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.markMetricsDirty(ctx, user.ID)
	if err := s.mealRepo.Create(ctx, meal); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, user.ID, meal.ID, model.MealActionCreated)
	return meal, nil
}

func (s *MealService) List(ctx context.Context, user *model.User) ([]model.Meal, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return s.mealRepo.ListByUserID(ctx, user.ID)
}

func (s *MealService) Get(ctx context.Context, user *model.User, mealID string) (*model.Meal, error) {
	return s.ownedMeal(ctx, user, mealID)
}

func (s *MealService) Update(ctx context.Context, user *model.User, mealID string, input MealInput) error {
	if err := checkMealInput(input); err != nil {
		return err
	}
	meal, err := s.ownedMeal(ctx, user, mealID)
	if err != nil {
		return err
	}

	meal.Name = input.Name
	meal.Description = input.Description
	meal.Date = input.Date.UTC()
	meal.IsOnDiet = input.IsOnDiet
	meal.UpdatedAt = s.now().UTC()

	s.markMetricsDirty(ctx, user.ID)
	if err := s.mealRepo.Update(ctx, meal); err != nil {
		return err
	}
	s.afterWrite(ctx, user.ID, meal.ID, model.MealActionUpdated)
	return nil
}

func (s *MealService) Delete(ctx context.Context, user *model.User, mealID string) error {
	meal, err := s.ownedMeal(ctx, user, mealID)
	if err != nil {
		return err
	}

	s.markMetricsDirty(ctx, user.ID)
	deleted, err := s.mealRepo.Delete(ctx, meal.ID)
	if err != nil {
		return err
	}
	if !deleted {
		// removed by a concurrent request after the ownership check
		return ErrMealNotFound
	}
	s.afterWrite(ctx, user.ID, meal.ID, model.MealActionDeleted)
	return nil
}

// Metrics aggregates over the same newest-first ordering used by List.
func (s *MealService) Metrics(ctx context.Context, user *model.User) (model.MealMetrics, error) {
	if user == nil {
		return model.MealMetrics{}, ErrUnauthenticated
	}

	if s.metricsCache != nil {
		dirty, err := s.metricsCache.IsDirty(ctx, user.ID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.metricsCache.GetMetrics(ctx, user.ID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	// The computation is shared by every caller for this user, so it must not
	// die with the caller that happened to start it.
	resultChan := s.metricsGroup.DoChan(user.ID, func() (interface{}, error) {
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsComputeTimeout)
		defer cancel()
		return s.computeMetrics(computeCtx, user.ID)
	})
	select {
	case <-ctx.Done():
		return model.MealMetrics{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return model.MealMetrics{}, res.Err
		}
		return res.Val.(model.MealMetrics), nil
	}
}

func (s *MealService) Activity(ctx context.Context, user *model.User, limit int) ([]model.MealActivity, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if limit < 0 || limit > 200 {
		return nil, ErrInvalidInput
	}
	if s.activityRepo == nil {
		return []model.MealActivity{}, nil
	}
	return s.activityRepo.ListByUserID(ctx, user.ID, limit)
}

func (s *MealService) computeMetrics(ctx context.Context, userID string) (model.MealMetrics, error) {
	meals, err := s.mealRepo.ListByUserID(ctx, userID)
	if err != nil {
		return model.MealMetrics{}, err
	}
	metrics := AggregateMetrics(meals)

	if s.metricsCache != nil {
		if dirty, err := s.metricsCache.IsDirty(ctx, userID); err == nil && !dirty {
			if err := s.metricsCache.SetMetrics(ctx, userID, metrics); err != nil {
				s.logger.Warn("cache meal metrics failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}
	return metrics, nil
}

// ownedMeal is the ownership gate. A missing meal and another user's meal
// produce the same ErrMealNotFound.
func (s *MealService) ownedMeal(ctx context.Context, user *model.User, mealID string) (*model.Meal, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	mealID = strings.TrimSpace(mealID)
	if mealID == "" {
		return nil, ErrInvalidInput
	}

	meal, err := s.mealRepo.GetByID(ctx, mealID)
	if err != nil {
		return nil, fmt.Errorf("load meal %s: %w", mealID, err)
	}
	if !meal.OwnedBy(user.ID) {
		return nil, ErrMealNotFound
	}
	return meal, nil
}

func (s *MealService) markMetricsDirty(ctx context.Context, userID string) {
	if s.metricsCache == nil {
		return
	}
	if err := s.metricsCache.MarkDirty(ctx, userID); err != nil {
		s.logger.Warn("mark meal metrics dirty failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// afterWrite runs once the store accepted the write. Failures here are
// logged only; the write itself already succeeded.
func (s *MealService) afterWrite(ctx context.Context, userID, mealID, action string) {
	// later readers start a fresh computation instead of joining one that
	// may have read the store before this write
	s.metricsGroup.Forget(userID)
	if s.metricsCache != nil {
		if err := s.metricsCache.DeleteMetrics(ctx, userID); err != nil {
			s.logger.Warn("drop cached meal metrics failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	if s.publisher == nil {
		return
	}
	event := model.MealEvent{
		UserID:     userID,
		MealID:     mealID,
		Action:     action,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish meal event failed",
			zap.String("user_id", userID),
			zap.String("meal_id", mealID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func checkMealInput(input MealInput) error {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Description) == "" || input.Date.IsZero() {
		return ErrInvalidInput
	}
	return nil
}
