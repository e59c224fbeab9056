package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/staff-directory-api/internal/application/otp"
	"github.com/staff-directory-api/internal/application/recovery"
	"github.com/staff-directory-api/internal/application/staff"
	"github.com/staff-directory-api/internal/config"
	"github.com/staff-directory-api/internal/transport/http/handler"
	appmiddleware "github.com/staff-directory-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to the OTP and reset endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, cfg.TrustProxyHeaders)

	otpSvc := otp.NewService(otp.ServiceDeps{
		Store: deps.OTPRepo,
		TTL:   cfg.OTPTTL,
	})
	recoverySvc := recovery.NewService(recovery.ServiceDeps{
		StaffRepo:      deps.StaffRepo,
		OTPService:     otpSvc,
		ResetTokenRepo: deps.ResetTokenRepo,
		Sender:         deps.Sender,
		Renderer:       deps.Templates,
		BrandName:      cfg.BrandName,
		LoginURL:       cfg.AppLoginURL,
		CustomURL:      cfg.AppCustomURL,
		SupportEmail:   cfg.SupportEmail,
		TokenTTL:       cfg.ResetTokenTTL,
	})
	staffSvc := staff.NewService(staff.ServiceDeps{
		StaffRepo:    deps.StaffRepo,
		Sender:       deps.Sender,
		Renderer:     deps.Templates,
		BrandName:    cfg.BrandName,
		LoginURL:     cfg.AppLoginURL,
		CustomURL:    cfg.AppCustomURL,
		SupportEmail: cfg.SupportEmail,
	})

	healthH := handler.NewHealthHandler()
	recoveryH := handler.NewRecoveryHandler(recoverySvc)
	staffH := handler.NewStaffHandler(staffSvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/otp/request", recoveryH.Request)
		r.With(sensitiveRL.Limit).Post("/otp/request/resend", recoveryH.Resend)
		r.With(sensitiveRL.Limit).Post("/otp/verify", recoveryH.Verify)
		r.With(sensitiveRL.Limit).Post("/reset-password", recoveryH.ResetPassword)

		r.Get("/staff", staffH.List)
		r.With(sensitiveRL.Limit).Post("/staff/change-password", staffH.ChangePassword)
		r.Post("/staff/welcome-email", staffH.WelcomeEmail)
	})

	return r
}
