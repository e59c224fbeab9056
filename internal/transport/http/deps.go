package http

import (
	"context"

	"github.com/staff-directory-api/internal/domain"
	"github.com/staff-directory-api/internal/email"
	"github.com/staff-directory-api/internal/infrastructure/mail"
)

// StaffRepository is the minimal interface the router requires from the staff store.
type StaffRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error)
	Update(ctx context.Context, staffID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor, status, query string) ([]domain.StaffMember, string, error)
}

// OTPRepository is the minimal interface the router requires from the OTP store.
type OTPRepository interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	LatestByEmail(ctx context.Context, email string) (*domain.OTPRecord, error)
	Delete(ctx context.Context, email, otpID string) error
	BumpAttempts(ctx context.Context, email, otpID string) error
	DeleteExpired(ctx context.Context, email string, now int64) error
}

// ResetTokenRepository is the minimal interface the router requires from the reset-token store.
type ResetTokenRepository interface {
	Put(ctx context.Context, t *domain.ResetToken) error
	Get(ctx context.Context, email string) (*domain.ResetToken, error)
	MarkUsed(ctx context.Context, email string) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	StaffRepo      StaffRepository
	OTPRepo        OTPRepository
	ResetTokenRepo ResetTokenRepository
	Sender         mail.Sender
	Templates      *email.Templates
}
