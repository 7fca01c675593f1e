package http

import (
	"context"
	"net/http"

	"github.com/foreverweb/auth-api/internal/application/account"
	"github.com/foreverweb/auth-api/internal/application/recovery"
	"github.com/foreverweb/auth-api/internal/application/registration"
	"github.com/foreverweb/auth-api/internal/config"
	"github.com/foreverweb/auth-api/internal/transport/http/handler"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds and returns the application router. The reaper for stale
// pending registrations runs until ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	registrationSvc := registration.NewService(registration.ServiceDeps{
		AccountRepo:  deps.AccountRepo,
		PendingStore: registration.NewPendingStore(),
		Mailer:       deps.Mailer,
		Hasher:       deps.Hasher,
		OTPTTL:       cfg.OTPTTL,
	})
	registrationSvc.StartReaper(ctx, cfg.ReaperInterval)
	accountSvc := account.NewService(deps.AccountRepo, deps.Hasher)
	recoverySvc := recovery.NewService(recovery.ServiceDeps{
		AccountRepo: deps.AccountRepo,
		Mailer:      deps.Mailer,
		Hasher:      deps.Hasher,
		OTPTTL:      cfg.OTPTTL,
	})

	healthH := handler.NewHealthHandler()
	registrationH := handler.NewRegistrationHandler(registrationSvc)
	accountH := handler.NewAccountHandler(accountSvc)
	recoveryH := handler.NewPasswordRecoveryHandler(recoverySvc)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/check-username", registrationH.CheckUsername)
			r.Post("/register", registrationH.Register)
			r.Post("/verify-otp", registrationH.VerifyOTP)
			r.Post("/login", accountH.Login)
			r.Post("/forgot-password", recoveryH.Forgot)
			r.Post("/reset-password", recoveryH.Reset)
			r.Post("/enable-pin", accountH.EnablePin)
			r.Post("/disable-pin", accountH.DisablePin)
		})
	})

	return r
}
