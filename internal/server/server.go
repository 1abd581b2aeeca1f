package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/devcircularity/commerce-backend/internal/config"
	filedomain "github.com/devcircularity/commerce-backend/internal/file/domain"
	"github.com/devcircularity/commerce-backend/internal/observability/logger"
	"github.com/devcircularity/commerce-backend/internal/observability/metrics"
	"github.com/devcircularity/commerce-backend/internal/payment/adapters"
	"github.com/devcircularity/commerce-backend/internal/payment/webhook"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Engine     *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	Registry   *adapters.Registry
	WebhookSvc *webhook.Service
	FileSvc    filedomain.Provider
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	registry   *adapters.Registry
	webhookSvc *webhook.Service
	fileSvc    filedomain.Provider
}

// NewEngine builds the gin engine with logging, metrics and CORS middleware.
func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(httpMetrics))

	origins := append([]string{}, cfg.HTTP.StoreCORS...)
	origins = append(origins, cfg.HTTP.AdminCORS...)
	origins = append(origins, cfg.HTTP.AuthCORS...)
	if len(origins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		engine:     p.Engine,
		cfg:        p.Cfg,
		log:        p.Log.Named("server"),
		registry:   p.Registry,
		webhookSvc: p.WebhookSvc,
		fileSvc:    p.FileSvc,
	}
}

// RegisterRoutes wires the webhook surface, static assets and operational
// endpoints.
func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.cfg.HTTP.StaticDir != "" {
		s.engine.Static("/static", s.cfg.HTTP.StaticDir)
	}

	s.engine.POST("/pesapal/webhook", s.PesapalWebhookPost)
	s.engine.GET("/api/webhooks/pesapal", s.PesapalWebhookGet)
	s.engine.POST("/api/webhooks/:provider", s.ProviderWebhook)

	uploads := s.engine.Group("/admin/uploads")
	uploads.POST("", s.UploadFile)
	uploads.DELETE("/:key", s.DeleteFile)
	uploads.GET("/:key/download-url", s.GetFileDownloadURL)
}

// RunHTTP starts the HTTP server under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    ":" + s.cfg.HTTP.Port,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
