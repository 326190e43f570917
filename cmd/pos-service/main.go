package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/club-pos/internal/api/httpx"
	"github.com/jcmexdev/club-pos/internal/config"
	"github.com/jcmexdev/club-pos/internal/pkg/interceptors"
	"github.com/jcmexdev/club-pos/internal/pkg/telemetry"
	"github.com/jcmexdev/club-pos/internal/pos/app"
	"github.com/jcmexdev/club-pos/internal/pos/domain"
	"github.com/jcmexdev/club-pos/internal/pos/orderlog"
	orderlogsqlite "github.com/jcmexdev/club-pos/internal/pos/orderlog/sqlite"
	"github.com/jcmexdev/club-pos/internal/pos/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("pos-service stopped", "error", err)
		os.Exit(1)
	}
}

// run wires and serves the POS service until a signal arrives or a server
// fails. Deferred cleanup runs on every return path.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		telemetry.InitLogger("info")
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTelEndpoint, cfg.Environment)
		if err != nil {
			return fmt.Errorf("initialise tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	kvStore, err := cfg.OpenStore(ctx, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	defer kvStore.Close()

	// The order log is optional: an empty path disables it.
	var orderLog orderlog.Repository
	if cfg.OrderLogPath != "" {
		repo, err := orderlogsqlite.Open(cfg.OrderLogPath)
		if err != nil {
			return fmt.Errorf("open order log %q: %w", cfg.OrderLogPath, err)
		}
		defer repo.Close()
		orderLog = repo
	}

	menu, err := cfg.Catalog()
	if err != nil {
		return fmt.Errorf("load menu: %w", err)
	}

	svc, err := app.New(app.Options{
		KV:       kvStore,
		Orders:   store.New(kvStore, logger.With("component", "store")),
		Catalog:  menu,
		OrderLog: orderLog,
		Fees:     cfg.Fees(),
		CartTTL:  cfg.CartTTL,
		Defaults: domain.SessionContext{
			OutletName:     cfg.DefaultOutlet,
			RestaurantName: cfg.DefaultRestaurant,
		},
		Logger: logger.With("component", "app"),
	})
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(httpx.NewHandler(svc)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.UnaryServerInterceptor(logger.With("component", "grpc"))),
	)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("pos HTTP API running", "addr", cfg.HTTPAddr, "backend", cfg.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("pos gRPC health running", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
		logger.Error("server failed", "error", serveErr)
	}

	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	return serveErr
}
