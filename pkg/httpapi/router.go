package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joripage/matching-engine/pkg/logging"
	"go.uber.org/zap"
)

type Config struct {
	Addr                string `yaml:"addr"`
	Mode                string `yaml:"mode"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

func RegisterRoutes(router *gin.Engine, service Service) {
	orderHandler := NewOrderHandler(service)

	api := router.Group("/api")
	{
		api.POST("/orders", orderHandler.PlaceOrder)
		api.GET("/orders", orderHandler.ListOrders)
		api.GET("/orders/:id", orderHandler.GetOrder)
		api.DELETE("/orders/:id", orderHandler.CancelOrder)
		api.GET("/orders/:id/events", orderHandler.OrderEvents)

		api.GET("/orderbook/:symbol", orderHandler.GetOrderBook)
		api.GET("/trades", orderHandler.ListTrades)

		api.GET("/positions/:owner", orderHandler.GetPositions)
		api.PUT("/positions/:owner/:symbol", orderHandler.SetPosition)

		api.GET("/stats", orderHandler.Stats)
		api.GET("/health", orderHandler.Health)
	}
}

// NewRouter builds the gin engine with request ids, access logs and panic
// recovery in front of the API routes.
func NewRouter(service Service, logger *logging.Logger) *gin.Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(zap.String("component", "http"))

	router := gin.New()
	router.Use(RequestID(), AccessLog(logger), Recovery(logger))
	router.NoRoute(func(c *gin.Context) {
		respondError(c, newAPIError(http.StatusNotFound, CodeNotFound, "Route not found"))
	})
	RegisterRoutes(router, service)
	return router
}

type Server struct {
	srv    *http.Server
	logger *logging.Logger
}

func NewServer(cfg Config, service Service, logger *logging.Logger) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(service, logger),
			ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

// Start serves in the background; a listen failure is logged.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.logger.Info(ctx, "http server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, "http server failed", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
