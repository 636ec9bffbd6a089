// Package web exposes the journal over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"trading-journal/internal/auth"
	"trading-journal/internal/config"
	"trading-journal/internal/imaging"
	"trading-journal/internal/playbook"
	"trading-journal/internal/repository"
)

const sweepInterval = 5 * time.Minute

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Auth       *auth.Service
	Repo       repository.Repository
	Compressor imaging.Compressor
	Playbook   *playbook.Playbook
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// Server is the journal's HTTP server.
type Server struct {
	server     *http.Server
	router     *gin.Engine
	workspaces *Workspaces
	auth       *auth.Service
	log        *zap.Logger
	stop       context.CancelFunc
}

// NewServer wires the routes and returns a server that is not yet listening.
func NewServer(cfg config.Server, deps Deps, log *zap.Logger) *Server {
	log = log.Named("web")
	workspaces := NewWorkspaces(deps.Repo, log)

	h := &APIHandler{
		log:        log,
		auth:       deps.Auth,
		repo:       deps.Repo,
		compressor: deps.Compressor,
		playbook:   deps.Playbook,
		workspaces: workspaces,
		cookie:     cookieSettings{secure: deps.SecureCookies, maxAge: deps.Auth.Sessions().TTL()},
		origins:    cfg.AllowedOrigins,
	}

	router := gin.New()
	router.Use(recoveryMiddleware(log), loggerMiddleware(log), metricsMiddleware())
	if cfg.MaxUploadBytes > 0 {
		router.Use(bodyLimitMiddleware(cfg.MaxUploadBytes))
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}
	h.routes(router)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		router:     router,
		workspaces: workspaces,
		auth:       deps.Auth,
		log:        log,
	}
}

func (h *APIHandler) routes(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		a := api.Group("/auth")
		a.POST("/signup", h.SignUp)
		a.POST("/login", h.Login)
		a.POST("/logout", h.Logout)
		a.GET("/session", h.authMiddleware(), h.CurrentSession)

		api.GET("/playbook", h.Playbook)

		private := api.Group("", h.authMiddleware())
		private.GET("/options", h.Options)
		private.GET("/trades", h.ListTrades)
		private.GET("/trades/:id", h.GetTrade)
		private.POST("/trades", h.CreateTrade)
		private.PUT("/trades/:id", h.UpdateTrade)
		private.DELETE("/trades/:id", h.DeleteTrade)
		private.GET("/stats", h.Stats)
		private.GET("/equity", h.Equity)
		private.GET("/ws", h.ChangeFeed)
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	go s.sweep(ctx)

	s.log.Info("Starting web server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Web server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server and releases every workspace.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Stopping web server...")
	if s.stop != nil {
		s.stop()
	}
	err := s.server.Shutdown(ctx)
	s.workspaces.CloseAll()
	return err
}

// sweep closes the workspaces of sessions that have expired.
func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.auth.Sessions().Prune()
			n := s.workspaces.Sweep(func(sessionID string) bool {
				_, err := s.auth.Lookup(sessionID)
				return err == nil
			})
			if n > 0 {
				s.log.Debug("Closed idle workspaces", zap.Int("count", n))
			}
		}
	}
}
