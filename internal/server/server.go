package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/medsecurex/gateway/internal/api/middleware"
	"github.com/medsecurex/gateway/internal/api/routes"
	"github.com/medsecurex/gateway/internal/config"
	"github.com/medsecurex/gateway/internal/inspection"
	"github.com/medsecurex/gateway/internal/rules"
	"github.com/medsecurex/gateway/internal/semantic"
	"github.com/medsecurex/gateway/internal/services"
)

// Server wraps the HTTP engine and shared dependencies for easier testing.
type Server struct {
	Engine *gin.Engine
	cfg    config.Config
}

// New wires up the HTTP router: request plumbing, CORS, the inspection
// pipeline, the API routes and the catch-all forwarder for allowed traffic.
func New(db *gorm.DB, cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AddAllowHeaders("Authorization", "X-Request-ID")
	router.Use(cors.New(corsCfg))

	recorder := services.NewRecorder(db)
	if notifier := services.NewNotifier(cfg.NotifyURL); notifier != nil {
		recorder.SetNotifier(notifier)
	}
	inspector := inspection.New(
		rules.DefaultSignatureSet(),
		rules.DefaultRegexSet(),
		semantic.NewClient(cfg.RAGServiceURL, cfg.RAGTimeout),
		recorder,
		cfg.FailOpen,
	)
	router.Use(inspector.Middleware())

	if err := routes.Register(router, db, cfg, recorder); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	// Allowed traffic that matches no route still gets an acknowledgement,
	// so the pipeline always has somewhere to forward to.
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Request processed successfully.",
			"path":    c.Request.URL.Path,
		})
	})

	return &Server{Engine: router, cfg: cfg}, nil
}

// Run starts the HTTP server with proper shutdown semantics.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.HTTPPort),
		Handler: s.Engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
