package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nurseport/staffing-backend/internal/analysis"
	"github.com/nurseport/staffing-backend/internal/api/handlers"
	"github.com/nurseport/staffing-backend/internal/api/middleware"
	"github.com/nurseport/staffing-backend/internal/auth"
	"github.com/nurseport/staffing-backend/internal/config"
	"github.com/nurseport/staffing-backend/internal/presence"
	"github.com/nurseport/staffing-backend/internal/tenant"
)

type Router struct {
	mux      *chi.Mux
	db       *pgxpool.Pool
	redis    *redis.Client
	cfg      *config.Config
	tenants  *tenant.Service
	presence *presence.Service
	analyses *analysis.Service
	jwt      *auth.JWTMiddleware
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config,
	ps *presence.Service, as *analysis.Service, ts *tenant.Service) *Router {
	return &Router{
		mux:      chi.NewRouter(),
		db:       db,
		redis:    rdb,
		cfg:      cfg,
		tenants:  ts,
		presence: ps,
		analyses: as,
		jwt:      auth.NewJWTMiddleware(cfg.Auth.JWTSecret, ts),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Endpoints kept for the previous dashboard frontend.
	legacy := handlers.NewLegacyHandler(rt.presence, rt.analyses, rt.tenants, rt.cfg.Presence.TimeoutMinutes)
	r.Get("/api/update-user-status", legacy.UpdateUserStatus)
	r.Post("/api/update-user-status", legacy.UpdateUserStatus)
	r.Post("/api/qa-analysis-chatgpt", legacy.QAAnalysisChatGPT)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		agencyH := handlers.NewAgencyHandler(rt.tenants)
		r.Route("/agencies", func(r chi.Router) {
			r.Post("/", agencyH.Create)
			r.Get("/", agencyH.List)
			r.Get("/{id}", agencyH.Get)
		})

		presenceH := handlers.NewPresenceHandler(rt.presence, rt.cfg.Presence.TimeoutMinutes)
		r.Route("/presence", func(r chi.Router) {
			r.Post("/signin", presenceH.SignIn)
			r.Post("/signout", presenceH.SignOut)
			r.Get("/status", presenceH.Status)
			r.Post("/sweep", presenceH.Sweep)
		})

		analysisH := handlers.NewAnalysisHandler(rt.analyses)
		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", analysisH.Create)
			r.Get("/", analysisH.List)
			r.Get("/{id}", analysisH.Get)
			r.Get("/{id}/status", analysisH.Status)
		})
	})

	return r
}
