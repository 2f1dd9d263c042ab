package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rowanvale/daybook/internal/email"
	"github.com/rowanvale/daybook/internal/handler"
	"github.com/rowanvale/daybook/internal/middleware"
	"github.com/rowanvale/daybook/internal/panel"
	"github.com/rowanvale/daybook/internal/store"
	ws "github.com/rowanvale/daybook/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	scheduleH      *handler.ScheduleHandler
	panelH         *handler.PanelHandler
	authH          *handler.AuthHandler
	sessionStore   *store.SessionStore
	magicLinkStore *store.MagicLinkStore
	panels         *panel.Registry
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	scheduleStore := store.NewScheduleStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	magicLinkStore := store.NewMagicLinkStore(db)

	panels := panel.NewRegistry(scheduleStore, logger.With("component", "panel"))

	return &Server{
		db:             db,
		hub:            hub,
		scheduleH:      handler.NewScheduleHandler(panels, hub, logger.With("component", "schedule")),
		panelH:         handler.NewPanelHandler(panels, logger.With("component", "panel_handler")),
		authH:          handler.NewAuthHandler(userStore, sessionStore, magicLinkStore, panels, emailClient, logger.With("component", "auth")),
		sessionStore:   sessionStore,
		magicLinkStore: magicLinkStore,
		panels:         panels,
		rateLimiter:    middleware.NewRateLimiter(),
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// MagicLinkStore returns the magic link store for cleanup tasks.
func (s *Server) MagicLinkStore() *store.MagicLinkStore {
	return s.magicLinkStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Panels returns the panel registry so expired sessions can be torn down.
func (s *Server) Panels() *panel.Registry {
	return s.panels
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /verify", s.rateLimitedHandler(s.authH.Verify))
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Schedule API routes
	mux.HandleFunc("POST /api/schedules", s.scheduleH.Create)
	mux.HandleFunc("GET /api/schedules", s.scheduleH.List)
	mux.HandleFunc("GET /api/schedules/{id}", s.scheduleH.Get)
	mux.HandleFunc("PUT /api/schedules/{id}", s.scheduleH.Update)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.scheduleH.Delete)

	// Panel state routes
	mux.HandleFunc("GET /api/panel", s.panelH.Get)
	mux.HandleFunc("PUT /api/panel/view", s.panelH.SetView)
	mux.HandleFunc("PUT /api/panel/filter", s.panelH.SetFilter)
	mux.HandleFunc("POST /api/panel/refresh", s.panelH.Refresh)
	mux.HandleFunc("POST /api/panel/modal/add", s.panelH.OpenAddModal)
	mux.HandleFunc("POST /api/panel/modal/edit/{id}", s.panelH.OpenEditModal)
	mux.HandleFunc("POST /api/panel/modal/close", s.panelH.CloseModal)
	mux.HandleFunc("POST /api/panel/reset", s.panelH.Reset)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))
}
