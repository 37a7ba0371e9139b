package model

import "gorm.io/gorm"

// User is an account allowed to drive navigation over the API.
type User struct {
	gorm.Model
	Username string `json:"username" gorm:"uniqueIndex;size:64;not null"`
	Password string `json:"-" gorm:"not null"` // bcrypt hash
	Email    string `json:"email"`
}
