package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/novenoa/cards/handlers"
	"github.com/novenoa/cards/internal/card/handler"
	"github.com/novenoa/cards/internal/card/service"
	"github.com/novenoa/cards/internal/config"
	"github.com/novenoa/cards/pkg/logger"
	"github.com/novenoa/cards/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// LOG_LEVEL is read before config so config errors are logged at the right level
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: store=%s database=%s collection=%s aliases=%v empty_patch=%s",
		cfg.Cards.Store, cfg.MongoDB.Database, cfg.MongoDB.Collection, cfg.Cards.RouteAliases, cfg.Cards.EmptyPatch)

	policy, err := service.ParseEmptyPatchPolicy(cfg.Cards.EmptyPatch)
	if err != nil {
		logger.Fatalf("invalid CARDS_EMPTY_PATCH: %v", err)
	}
	svc := service.New(policy)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(cfg, svc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// not awaited: data routes answer 503 until the store is attached
	store := connectStore(ctx, cfg, svc)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("card service listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("server shutdown: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Warnf("store disconnect: %v", err)
	}
}

func newRouter(cfg *config.Config, svc service.Service) *gin.Engine {
	r := gin.New()

	// Permissive CORS, the API is consumed from browser front ends on other origins.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
	r.Use(logger.Middleware(), gin.Recovery())

	handlers.RegisterDiagnostics(r, svc)
	handlers.RegisterSwagger(r)
	handler.RegisterCardRoutes(r, svc, handler.Options{Aliases: cfg.Cards.RouteAliases})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
