package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/staff-directory-api/internal/domain"
	"github.com/staff-directory-api/internal/pkg/id"
)

// maxAttempts is the number of wrong codes tolerated against one record
// before it is destroyed and the requester must start over.
const maxAttempts = 5

type Service interface {
	// Issue stores a freshly generated code for the email. Outstanding
	// records for the same email are not replaced — verification only ever
	// consults the newest one.
	Issue(ctx context.Context, email string) (*domain.OTPRecord, error)
	// Verify checks the submitted code against the newest record for the
	// email. A correct code consumes the record; an expired record is
	// deleted on sight; a wrong code leaves the record in place so the
	// requester can retry until the attempt budget runs out.
	Verify(ctx context.Context, email, code string) error
}

type otpStore interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	LatestByEmail(ctx context.Context, email string) (*domain.OTPRecord, error)
	Delete(ctx context.Context, email, otpID string) error
	BumpAttempts(ctx context.Context, email, otpID string) error
	DeleteExpired(ctx context.Context, email string, now int64) error
}

type service struct {
	store otpStore
	ttl   time.Duration
	now   func() time.Time
}

type ServiceDeps struct {
	Store otpStore
	TTL   time.Duration
}

func NewService(deps ServiceDeps) Service {
	ttl := deps.TTL
	if ttl == 0 {
		ttl = 60 * time.Second
	}
	return &service{store: deps.Store, ttl: ttl, now: time.Now}
}

// Generate returns a uniformly random 6-digit numeric code. Leading zeros
// are kept — codes are fixed-width strings, never integers.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *service) Issue(ctx context.Context, email string) (*domain.OTPRecord, error) {
	now := s.now()

	// Sweep this email's dead rows while we're here; failure doesn't block
	// issuance, the table TTL will get them eventually.
	if err := s.store.DeleteExpired(ctx, email, now.Unix()); err != nil {
		slog.Warn("failed to sweep expired otp records", "email", email, "err", err)
	}

	code, err := Generate()
	if err != nil {
		return nil, err
	}
	rec := &domain.OTPRecord{
		OTPID:     id.New(),
		Email:     email,
		Code:      code,
		CreatedAt: now.UTC(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("store otp record: %w", err)
	}
	return rec, nil
}

func (s *service) Verify(ctx context.Context, email, code string) error {
	rec, err := s.store.LatestByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no otp issued for this email: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("load otp record: %w", err)
	}

	if rec.Expired(s.now()) {
		if err := s.store.Delete(ctx, rec.Email, rec.OTPID); err != nil {
			slog.Warn("failed to delete expired otp record", "email", email, "err", err)
		}
		return fmt.Errorf("otp expired: %w", domain.ErrExpired)
	}

	if rec.Code != code {
		if rec.Attempts+1 >= maxAttempts {
			if err := s.store.Delete(ctx, rec.Email, rec.OTPID); err != nil {
				slog.Warn("failed to delete locked otp record", "email", email, "err", err)
			}
			return fmt.Errorf("attempt limit reached: %w", domain.ErrTooManyAttempts)
		}
		if err := s.store.BumpAttempts(ctx, rec.Email, rec.OTPID); err != nil {
			slog.Warn("failed to bump otp attempts", "email", email, "err", err)
		}
		return fmt.Errorf("invalid otp: %w", domain.ErrBadRequest)
	}

	// Single use: a verified code is consumed on the spot.
	if err := s.store.Delete(ctx, rec.Email, rec.OTPID); err != nil {
		return fmt.Errorf("consume otp record: %w", err)
	}
	return nil
}
