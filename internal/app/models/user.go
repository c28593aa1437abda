package models

import "time"

// User represents an account that can author content or administer courses.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"fullName" db:"full_name"`
	RoleType     RoleType  `json:"roleType" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
