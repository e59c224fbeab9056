package domain

import "time"

// ResetToken binds a successful OTP verification to the subsequent
// password reset. Single-use: MarkUsed sets UsedAt, after which the
// token is rejected. One token per email — issuing a new one replaces
// any outstanding token.
type ResetToken struct {
	Email     string     `json:"email" dynamodbav:"email"`
	Token     string     `json:"token" dynamodbav:"token"` // 64-char hex
	ExpiresAt int64      `json:"expires_at" dynamodbav:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty" dynamodbav:"used_at"`
	CreatedAt time.Time  `json:"created_at" dynamodbav:"created_at"`
}
