package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/proxypurple/commerce-api/internal/config"
	"github.com/proxypurple/commerce-api/internal/handler/middleware"
	"github.com/proxypurple/commerce-api/internal/model"
	"github.com/proxypurple/commerce-api/shared/auth"
)

// RouterParams bundles everything the HTTP router needs.
type RouterParams struct {
	Config      *config.Config
	TokenIssuer *auth.TokenIssuer
	Redis       *redis.Client
	Logger      *zerolog.Logger

	AuthHandler    *AuthHandler
	UserHandler    *UserHandler
	CouponHandler  *CouponHandler
	ProductHandler *ProductHandler
	OrderHandler   *OrderHandler
}

// NewRouter assembles the full route tree. Authentication routes sit behind
// the rate limiter; everything under the authenticated group requires a valid
// access token, and the admin group additionally requires the admin role.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", healthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(params.Config.RateLimit, params.Redis, params.Logger))
			params.AuthHandler.RegisterRoutes(r)
		})

		params.ProductHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(params.TokenIssuer))

			params.UserHandler.RegisterRoutes(r)
			params.CouponHandler.RegisterRoutes(r)
			params.OrderHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))

				params.UserHandler.RegisterAdminRoutes(r)
				params.CouponHandler.RegisterAdminRoutes(r)
				params.ProductHandler.RegisterAdminRoutes(r)
				params.OrderHandler.RegisterAdminRoutes(r)
			})
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
