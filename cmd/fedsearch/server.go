package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/fedsearch"
	"github.com/BaSui01/fedsearch/api/handlers"
	"github.com/BaSui01/fedsearch/config"
	"github.com/BaSui01/fedsearch/internal/metrics"
	"github.com/BaSui01/fedsearch/internal/server"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 FedSearch 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 联邦检索服务
	service *fedsearch.Service

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// Handlers
	searchHandler *handlers.SearchHandler
	nodeHandler   *handlers.NodeHandler
	healthHandler *handlers.HealthHandler

	// 指标收集器
	metricsCollector *metrics.Collector

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc

	// 健康监控后台循环的生命周期
	serviceCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	s.metricsCollector = metrics.NewCollector("fedsearch", logger)

	service, err := fedsearch.NewService(cfg, logger, fedsearch.WithMetrics(s.metricsCollector))
	if err != nil {
		return nil, fmt.Errorf("failed to create federation service: %w", err)
	}
	s.service = service

	s.searchHandler = handlers.NewSearchHandler(service, logger)
	s.nodeHandler = handlers.NewNodeHandler(service, logger)
	s.healthHandler = handlers.NewHealthHandler(service, Version, logger)

	return s, nil
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 启动后台健康监控
	serviceCtx, serviceCancel := context.WithCancel(context.Background())
	s.serviceCancel = serviceCancel
	s.service.Start(serviceCtx)

	// 2. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 3. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("auth_enabled", s.cfg.Auth.Enabled),
		zap.Bool("cache_enabled", s.cfg.Redis.Enabled),
	)

	return nil
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查端点
	// ========================================
	mux.HandleFunc("/health", s.healthHandler.Health)

	// ========================================
	// API 路由
	// ========================================
	mux.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.searchHandler.Search(w, r)
	})

	mux.HandleFunc("/api/v1/nodes", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.nodeHandler.List(w, r)
		case http.MethodPost:
			s.nodeHandler.Register(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// 精确模式优先于前缀模式, discover 不会落入 {id} 路由
	mux.HandleFunc("/api/v1/nodes/discover", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.nodeHandler.Discover(w, r)
	})

	mux.HandleFunc("/api/v1/nodes/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		s.nodeHandler.Remove(w, r)
	})

	// ========================================
	// 构建中间件链
	// ========================================
	skipAuthPaths := []string{"/health", "/metrics"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	}
	if s.cfg.Auth.Enabled {
		middlewares = append(middlewares, JWTAuth(s.cfg.Auth, skipAuthPaths, s.logger))
	}
	handler := Chain(mux, middlewares...)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// methodNotAllowed 写入统一的 405 响应
func methodNotAllowed(w http.ResponseWriter) {
	handlers.WriteJSON(w, http.StatusMethodNotAllowed, handlers.Response{
		Success:   false,
		Error:     &handlers.ErrorInfo{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"},
		Timestamp: time.Now(),
	})
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	// 1. 停止 rate limiter 清理 goroutine
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 2. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 3. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 4. 停止健康监控与缓存连接
	if s.serviceCancel != nil {
		s.serviceCancel()
	}
	if s.service != nil {
		s.service.Stop()
	}

	s.logger.Info("Graceful shutdown completed")
}
