package models

import (
	"time"

	"github.com/lib/pq"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// TokenClaims is the identity carried by a session token.
type TokenClaims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

type Listing struct {
	ID             int64          `json:"id" db:"id"`
	UserID         int64          `json:"userId" db:"user_id"`
	Title          string         `json:"title" db:"title"`
	Description    string         `json:"description" db:"description"`
	Category       string         `json:"category" db:"category"`
	CustomCategory *string        `json:"customCategory,omitempty" db:"custom_category"`
	Location       string         `json:"location" db:"location"`
	County         string         `json:"county" db:"county"`
	Phone          string         `json:"phone" db:"phone"`
	Amenities      pq.StringArray `json:"amenities" db:"amenities"`
	Images         pq.StringArray `json:"images" db:"images"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`

	// Owner columns, populated by joined reads only.
	OwnerName  *string `json:"userName,omitempty" db:"user_name"`
	OwnerEmail *string `json:"userEmail,omitempty" db:"user_email"`
	OwnerPhone *string `json:"userPhone,omitempty" db:"user_phone"`
}

// ListingFilter holds the optional predicates of a listing search. Empty
// fields are ignored.
type ListingFilter struct {
	Category string
	Location string
	Search   string
}

// ListingInput is the full set of writable listing fields. Updates replace
// every field.
type ListingInput struct {
	Title          string   `json:"title" validate:"required"`
	Description    string   `json:"description"`
	Category       string   `json:"category" validate:"required"`
	CustomCategory *string  `json:"customCategory"`
	Location       string   `json:"location" validate:"required"`
	County         string   `json:"county" validate:"required"`
	Phone          string   `json:"phone" validate:"required"`
	Amenities      []string `json:"amenities"`
	Images         []string `json:"images" validate:"min=1,max=5"`
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
