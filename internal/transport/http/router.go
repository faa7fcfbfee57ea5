package http

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-marketplace-auth/internal/config"
	"github.com/go-marketplace-auth/internal/domain"
	"github.com/go-marketplace-auth/internal/transport/http/gate"
	"github.com/go-marketplace-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-marketplace-auth/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		// Credentialed requests need an explicit origin list.
		AllowCredentials: !slices.Contains(cfg.AllowedOrigins, "*"),
		MaxAge:           300,
	}))
	if deps.Gate != nil {
		r.Use(gate.Middleware(deps.Sessions, deps.Gate))
	}
	r.Use(appmiddleware.Identify(deps.Sessions))

	// 5 requests/second, burst of 10, applied to credential and code endpoints.
	sensitiveRL := deps.RateLimiter
	if sensitiveRL == nil {
		sensitiveRL = appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	}

	secure := cfg.IsProduction()
	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(deps.Auth, secure)
	otpH := handler.NewOTPHandler(deps.Auth, secure)
	accountH := handler.NewAccountHandler(deps.Accounts)

	r.Get("/health-check/{action}", healthH.Ping)
	r.Post("/health-check/{action}", healthH.Ping)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(sensitiveRL.Limit).Post("/signup", authH.Signup)
			r.With(sensitiveRL.Limit).Post("/signin", authH.Signin)
			r.With(sensitiveRL.Limit).Post("/signin/google", authH.SigninGoogle)
			r.Post("/signout", authH.Signout)
			r.Get("/session", authH.Session)
		})
		r.Route("/otp", func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/send", otpH.Send)
			r.Post("/verify", otpH.Verify)
		})

		// Admin-only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.Sessions))
			r.Use(appmiddleware.RequireRole(domain.RoleAdmin))
			r.Get("/accounts", accountH.List)
			r.Get("/accounts/{id}", accountH.Get)
		})
	})

	return r
}
