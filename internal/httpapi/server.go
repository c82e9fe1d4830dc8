package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arenapulse/arena/pkg/arena"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server exposes the arena service over HTTP.
type Server struct {
	cfg     Config
	logger  *zap.Logger
	service *arena.Service
	auth    *Authenticator
}

// NewServer validates the configuration and wires the HTTP layer.
func NewServer(cfg Config, logger *zap.Logger, service *arena.Service) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if service == nil {
		return nil, errors.New("arena service is required")
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		service: service,
		auth:    NewAuthenticator(cfg, time.Now),
	}, nil
}

// Router builds the gin engine with all routes mounted.
func (server *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     server.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metricsHandler())

	api := router.Group("/api")

	api.POST("/auth/signup", server.handleSignUp)
	api.POST("/auth/login", server.handleLogin)

	api.GET("/games", server.handleListGames)
	api.GET("/games/:id", server.handleGetGame)
	api.GET("/tournaments", server.handleListTournaments)
	api.GET("/tournaments/:id", server.handleGetTournament)

	authed := api.Group("")
	authed.Use(server.auth.GinMiddleware())

	authed.GET("/user", server.handleCurrentUser)
	authed.GET("/user/tournaments", server.handleUserTournaments)
	authed.GET("/transactions", server.handleListTransactions)
	authed.POST("/wallet/deposit", server.handleDeposit)
	authed.POST("/wallet/withdraw", server.handleWithdraw)
	authed.POST("/tournaments/:id/register", server.handleRegister)

	admin := authed.Group("")
	admin.Use(requireAdmin())

	admin.POST("/tournaments", server.handleCreateTournament)
	admin.PATCH("/tournaments/:id/status", server.handleUpdateTournamentStatus)
	admin.POST("/registrations/:id/result", server.handleRecordResult)

	return router
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully.
func (server *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    server.cfg.ListenAddr,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		server.logger.Info("arena api listening", zap.String("addr", server.cfg.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			server.logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
