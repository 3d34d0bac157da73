package models

import "time"

// User is a Google-authenticated account. Each user owns up to a configured
// number of careers.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	GoogleID  string    `gorm:"uniqueIndex;not null" json:"google_id"`
	Name      string    `gorm:"not null" json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Careers []Career `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"careers,omitempty"`
}

func (User) TableName() string {
	return "users"
}
