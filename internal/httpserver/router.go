package httpserver

import (
	"net/http"

	"lv-markup/internal/auth"
	"lv-markup/internal/health"
	"lv-markup/internal/httputil"
	"lv-markup/internal/pricing"
	"lv-markup/internal/profiles"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	AuthHandler     *auth.Handler
	AuthService     *auth.Service
	ProfilesHandler *profiles.Handler
	PricingHandler  *pricing.Handler
	HealthHandler   *health.Handler
	QuotesWS        http.Handler
	InternalToken   string
	RateLimiter     *RateLimiter
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Internal-Token")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Use(SecurityHeaders)

	r.Get("/health", d.HealthHandler.Ready)
	r.Get("/health/live", d.HealthHandler.Live)
	r.Route("/v1", func(r chi.Router) {
		// tick ingest runs at feed rate and is not throttled
		r.Group(func(r chi.Router) {
			r.Use(InternalAuth(d.InternalToken))
			r.Post("/internal/ticks", d.PricingHandler.Ingest)
			r.Post("/internal/tokens", d.AuthHandler.IssueClientToken)
		})

		r.Group(func(r chi.Router) {
			if d.RateLimiter != nil {
				r.Use(d.RateLimiter.Middleware)
			}
			r.Get("/quotes/ws", d.QuotesWS.ServeHTTP)
			r.With(WithAuth(d.AuthService), RequireRole(auth.RoleClient)).Get("/quotes/{pair}", func(w http.ResponseWriter, r *http.Request) {
				claims, ok := Claims(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.PricingHandler.Quote(w, r, claims.Group)
			})
			r.Post("/admin/login", d.AuthHandler.AdminLogin)
		})

		r.Route("/admin/markup", func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Use(RequireRole(auth.RoleAdmin))
			r.Get("/profiles", d.ProfilesHandler.List)
			r.Post("/profiles", d.ProfilesHandler.Create)
			r.Get("/profiles/{id}", d.ProfilesHandler.Get)
			r.Post("/profiles/{id}/disabled", d.ProfilesHandler.SetDisabled)
			r.Put("/profiles/{id}/instruments/{instrument}", d.ProfilesHandler.SetInstrument)
			r.Delete("/profiles/{id}/instruments/{instrument}", d.ProfilesHandler.RemoveInstrument)
			r.Get("/groups", d.ProfilesHandler.Groups)
			r.Put("/groups/{group}", d.ProfilesHandler.AssignGroup)
			r.Delete("/groups/{group}", d.ProfilesHandler.UnassignGroup)
		})
	})
	return r
}
