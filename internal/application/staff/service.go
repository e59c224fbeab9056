package staff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/staff-directory-api/internal/application/recovery"
	"github.com/staff-directory-api/internal/domain"
	"github.com/staff-directory-api/internal/email"
	"github.com/staff-directory-api/internal/infrastructure/mail"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	List(ctx context.Context, limit int32, cursor, status, query string) ([]domain.StaffMember, string, error)
	ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error
	SendWelcomeEmail(ctx context.Context, req domain.WelcomeEmailRequest) error
}

type staffStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error)
	Update(ctx context.Context, staffID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor, status, query string) ([]domain.StaffMember, string, error)
}

type renderer interface {
	RenderWelcome(vars email.WelcomeVars) (string, error)
	ResolveLogo() string
}

type service struct {
	repo     staffStore
	sender   mail.Sender
	renderer renderer

	brandName    string
	loginURL     string
	customURL    string
	supportEmail string
}

type ServiceDeps struct {
	StaffRepo staffStore
	Sender    mail.Sender
	Renderer  renderer

	BrandName    string
	LoginURL     string
	CustomURL    string
	SupportEmail string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:         deps.StaffRepo,
		sender:       deps.Sender,
		renderer:     deps.Renderer,
		brandName:    deps.BrandName,
		loginURL:     deps.LoginURL,
		customURL:    deps.CustomURL,
		supportEmail: deps.SupportEmail,
	}
}

func (s *service) List(ctx context.Context, limit int32, cursor, status, query string) ([]domain.StaffMember, string, error) {
	if limit < 1 {
		limit = 50
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && status != domain.StatusActive && status != domain.StatusInactive {
		return nil, "", fmt.Errorf("status must be active or inactive: %w", domain.ErrBadRequest)
	}
	return s.repo.ScanPage(ctx, limit, cursor, status, strings.TrimSpace(query))
}

func (s *service) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return fmt.Errorf("new passwords do not match: %w", domain.ErrBadRequest)
	}
	if len(req.NewPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", domain.ErrBadRequest)
	}

	m, err := s.repo.GetByEmail(ctx, recovery.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no staff member for this email: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("look up staff account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, m.StaffID, map[string]interface{}{"password_hash": string(hash)})
}

func (s *service) SendWelcomeEmail(ctx context.Context, req domain.WelcomeEmailRequest) error {
	addr := recovery.NormalizeEmail(req.To)
	html, err := s.renderer.RenderWelcome(email.WelcomeVars{
		BrandName:    s.brandName,
		Name:         req.Name,
		Email:        addr,
		Password:     req.TemporaryPassword,
		LoginURL:     s.loginURL,
		CustomURL:    s.customURL,
		SupportEmail: s.supportEmail,
	})
	if err != nil {
		return err
	}

	msg := mail.Message{
		To:       addr,
		Subject:  fmt.Sprintf("Welcome to %s", s.brandName),
		HTMLBody: html,
	}
	if logo := s.renderer.ResolveLogo(); logo != "" {
		msg.Inline = []mail.InlineFile{{Path: logo, ContentID: email.LogoCID}}
	}
	if err := s.sender.Send(msg); err != nil {
		slog.Error("failed to send welcome email", "email", addr, "err", err)
		return fmt.Errorf("dispatch welcome email: %w", domain.ErrSendFailed)
	}
	return nil
}
