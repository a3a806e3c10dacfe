package user

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest payload of sign-up.
// swagger:model RegisterRequest
type RegisterRequest struct {
	Name     string `json:"name"     binding:"required,min=2"  example:"Ana López"`
	Email    string `json:"email"    binding:"required,email"  example:"ana@example.com"`
	Address  string `json:"address"  binding:"required,min=10" example:"Calle Mayor 12, Madrid"`
	Password string `json:"password" binding:"required,min=8"  example:"supersecreta"`
}

// LoginRequest payload of sign-in.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
