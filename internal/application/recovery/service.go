package recovery

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/staff-directory-api/internal/application/otp"
	"github.com/staff-directory-api/internal/domain"
	"github.com/staff-directory-api/internal/email"
	"github.com/staff-directory-api/internal/infrastructure/mail"
	pkgtoken "github.com/staff-directory-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// resetSkewGrace pads the reset-token expiry check to absorb small
// client/server clock differences.
const resetSkewGrace = 5 * time.Second

type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	ResetToken      string `json:"resetToken" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type Service interface {
	// RequestOTP gates on an active staff account, then issues a code and
	// dispatches the branded recovery email. The caller never learns the
	// code. ErrNotFound means no active account — the transport layer masks
	// that with a generic acknowledgement.
	RequestOTP(ctx context.Context, email string) error
	// ResendOTP issues and emails a code with no account gate and a plain
	// unbranded body.
	ResendOTP(ctx context.Context, email string) error
	// VerifyOTP consumes the code and hands back a short-lived single-use
	// reset token binding this verification to the reset call.
	VerifyOTP(ctx context.Context, email, code string) (*domain.ResetToken, error)
	// ResetPassword validates the new credential, burns the reset token and
	// overwrites the stored password hash.
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type staffStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error)
	Update(ctx context.Context, staffID string, updates map[string]interface{}) error
}

type resetTokenStore interface {
	Put(ctx context.Context, t *domain.ResetToken) error
	Get(ctx context.Context, email string) (*domain.ResetToken, error)
	MarkUsed(ctx context.Context, email string) error
}

type renderer interface {
	RenderForgotPassword(vars email.ForgotPasswordVars) (string, error)
	ResolveLogo() string
}

type service struct {
	staff    staffStore
	otpSvc   otp.Service
	tokens   resetTokenStore
	sender   mail.Sender
	renderer renderer

	brandName    string
	loginURL     string
	customURL    string
	supportEmail string
	tokenTTL     time.Duration
	now          func() time.Time
}

type ServiceDeps struct {
	StaffRepo      staffStore
	OTPService     otp.Service
	ResetTokenRepo resetTokenStore
	Sender         mail.Sender
	Renderer       renderer

	BrandName    string
	LoginURL     string
	CustomURL    string
	SupportEmail string
	TokenTTL     time.Duration
}

func NewService(deps ServiceDeps) Service {
	ttl := deps.TokenTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &service{
		staff:        deps.StaffRepo,
		otpSvc:       deps.OTPService,
		tokens:       deps.ResetTokenRepo,
		sender:       deps.Sender,
		renderer:     deps.Renderer,
		brandName:    deps.BrandName,
		loginURL:     deps.LoginURL,
		customURL:    deps.CustomURL,
		supportEmail: deps.SupportEmail,
		tokenTTL:     ttl,
		now:          time.Now,
	}
}

func (s *service) RequestOTP(ctx context.Context, rawEmail string) error {
	addr := NormalizeEmail(rawEmail)
	if addr == "" {
		return fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}

	m, err := s.staff.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("email not registered: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("look up staff account: %w", err)
	}
	if m.Status != domain.StatusActive {
		return fmt.Errorf("account inactive: %w", domain.ErrNotFound)
	}

	rec, err := s.otpSvc.Issue(ctx, addr)
	if err != nil {
		return err
	}

	html, err := s.renderer.RenderForgotPassword(email.ForgotPasswordVars{
		BrandName:    s.brandName,
		Email:        addr,
		OTP:          rec.Code,
		LoginURL:     s.loginURL,
		CustomURL:    s.customURL,
		SupportEmail: s.supportEmail,
	})
	if err != nil {
		return err
	}

	msg := mail.Message{
		To:       addr,
		Subject:  "Your password recovery OTP",
		HTMLBody: html,
	}
	if logo := s.renderer.ResolveLogo(); logo != "" {
		msg.Inline = []mail.InlineFile{{Path: logo, ContentID: email.LogoCID}}
	}

	// The OTP record is not rolled back on a failed send; it expires unused.
	if err := s.sender.Send(msg); err != nil {
		slog.Error("failed to send recovery email", "email", addr, "err", err)
		return fmt.Errorf("dispatch recovery email: %w", domain.ErrSendFailed)
	}
	return nil
}

func (s *service) ResendOTP(ctx context.Context, rawEmail string) error {
	addr := NormalizeEmail(rawEmail)
	if addr == "" {
		return fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}

	rec, err := s.otpSvc.Issue(ctx, addr)
	if err != nil {
		return err
	}

	ttlText := "1 minute"
	body := fmt.Sprintf(`<div style="font-family:Arial,Helvetica,sans-serif;font-size:14px;line-height:1.6">
  <h2>Your One-Time Password</h2>
  <p>Use this OTP. It expires in <b>%s</b>.</p>
  <p style="font-size:24px;font-weight:bold;letter-spacing:3px">%s</p>
  <p>If you didn't request this, you can ignore this email.</p>
</div>`, ttlText, rec.Code)

	if err := s.sender.Send(mail.Message{To: addr, Subject: "Your password recovery OTP", HTMLBody: body}); err != nil {
		slog.Error("failed to send resend email", "email", addr, "err", err)
		return fmt.Errorf("dispatch resend email: %w", domain.ErrSendFailed)
	}
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, rawEmail, code string) (*domain.ResetToken, error) {
	addr := NormalizeEmail(rawEmail)
	code = strings.TrimSpace(code)
	if addr == "" || code == "" {
		return nil, fmt.Errorf("email and code are required: %w", domain.ErrBadRequest)
	}

	if err := s.otpSvc.Verify(ctx, addr, code); err != nil {
		return nil, err
	}

	tok, err := pkgtoken.NewResetToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	rt := &domain.ResetToken{
		Email:     addr,
		Token:     tok,
		ExpiresAt: now.Add(s.tokenTTL).Unix(),
		CreatedAt: now.UTC(),
	}
	if err := s.tokens.Put(ctx, rt); err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}
	return rt, nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	addr := NormalizeEmail(req.Email)
	password := strings.TrimSpace(req.Password)
	confirm := strings.TrimSpace(req.ConfirmPassword)
	resetToken := strings.TrimSpace(req.ResetToken)

	if addr == "" || password == "" || confirm == "" || resetToken == "" {
		return fmt.Errorf("email, reset token, password and confirm password are required: %w", domain.ErrBadRequest)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match: %w", domain.ErrBadRequest)
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", domain.ErrBadRequest)
	}

	rt, err := s.tokens.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("invalid or expired reset token: %w", domain.ErrUnauthorized)
		}
		return fmt.Errorf("load reset token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(rt.Token), []byte(resetToken)) != 1 {
		return fmt.Errorf("invalid or expired reset token: %w", domain.ErrUnauthorized)
	}
	if rt.UsedAt != nil {
		return fmt.Errorf("reset token already used: %w", domain.ErrUnauthorized)
	}
	if rt.ExpiresAt <= s.now().Add(-resetSkewGrace).Unix() {
		return fmt.Errorf("invalid or expired reset token: %w", domain.ErrUnauthorized)
	}

	m, err := s.staff.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no staff member for this email: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("look up staff account: %w", err)
	}

	// Not fatal for the caller, but a token left unburned is worth a log line.
	if err := s.tokens.MarkUsed(ctx, addr); err != nil {
		slog.Warn("failed to mark reset token used", "email", addr, "err", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.staff.Update(ctx, m.StaffID, map[string]interface{}{"password_hash": string(hash)})
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
