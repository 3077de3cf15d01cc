package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email       string `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"not null"`
	Phone       string `gorm:"uniqueIndex;not null"`
	Role        string `gorm:"default:'user'"`
	Status      string `gorm:"default:'active'"`
	LastLoginAt time.Time
}
