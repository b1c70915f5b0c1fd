package model

import "time"

type Meal struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"size:1024;not null" json:"description"`
	Date        time.Time `gorm:"not null;index:idx_meals_user_date,priority:2" json:"date"`
	IsOnDiet    bool      `gorm:"column:is_on_diet;not null" json:"is_on_diet"`
	UserID      string    `gorm:"size:36;not null;index:idx_meals_user_date,priority:1" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnedBy reports whether the meal belongs to the given user.
func (m *Meal) OwnedBy(userID string) bool {
	return m != nil && userID != "" && m.UserID == userID
}
