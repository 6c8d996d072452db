package models

import "time"

type Operator struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Initials     string    `json:"initials"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the body of POST /api/auth
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateOperatorRequest is used by the operator add command
type CreateOperatorRequest struct {
	Username    string `validate:"required,min=2,max=100"`
	DisplayName string `validate:"max=200"`
	Initials    string `validate:"required,alpha,min=1,max=10"`
	Password    string `validate:"required,min=8"`
}
