package model

import "time"

const (
	MealActionCreated = "created"
	MealActionUpdated = "updated"
	MealActionDeleted = "deleted"
)

// MealEvent is the payload published on every successful meal write.
type MealEvent struct {
	UserID     string    `json:"user_id"`
	MealID     string    `json:"meal_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MealActivity is the persisted form of a MealEvent. Rows are append-only
// and outlive the meal they reference.
type MealActivity struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"size:36;not null;index" json:"user_id"`
	MealID     string    `gorm:"size:36;not null;index" json:"meal_id"`
	Action     string    `gorm:"size:16;not null" json:"action"`
	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}
