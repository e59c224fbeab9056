package domain

import "time"

// Staff account statuses. Only active accounts may request a recovery OTP.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type StaffMember struct {
	StaffID      string    `json:"id" dynamodbav:"staff_id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Email        string    `json:"email" dynamodbav:"email"`
	Role         string    `json:"role" dynamodbav:"role"`
	Status       string    `json:"status" dynamodbav:"status"` // "active" | "inactive"
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type ChangePasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type WelcomeEmailRequest struct {
	To                string `json:"to" validate:"required,email"`
	Name              string `json:"name" validate:"required"`
	TemporaryPassword string `json:"temporaryPassword" validate:"required"`
}
