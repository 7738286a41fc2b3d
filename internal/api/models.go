package api

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest is the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse is the successful response for register and login.
type AuthResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Token  string    `json:"token"`
}

// MessageResponse is a minimal acknowledgment body.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateTodoRequest is the payload for creating a todo.
type CreateTodoRequest struct {
	Heading string     `json:"heading" validate:"required,max=200"`
	Body    string     `json:"body"`
	DueAt   *time.Time `json:"due_at,omitempty"`
}

// UpdateTodoRequest is the payload for updating a todo. Absent fields leave
// the record untouched; ClearDue removes the due date (and with it any
// pending reminder).
type UpdateTodoRequest struct {
	Heading   *string    `json:"heading,omitempty"   validate:"omitempty,min=1,max=200"`
	Body      *string    `json:"body,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	ClearDue  bool       `json:"clear_due,omitempty"`
}
