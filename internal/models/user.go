package models

import (
	"time"
)

type User struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name  string `json:"name"`
	Email string `gorm:"uniqueIndex" json:"email"`
	Image string `json:"image"` // avatar URL, served by the media store
	Bio   string `json:"bio"`

	Password string `json:"-"`
}
