package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/grpc"

	"github.com/rl1809/cardapio/internal/adapter/handler"
	"github.com/rl1809/cardapio/internal/adapter/storage"
	"github.com/rl1809/cardapio/internal/config"
	"github.com/rl1809/cardapio/internal/core/domain"
	"github.com/rl1809/cardapio/internal/core/service"
)

// system is the identity used for startup configuration.
var system = domain.Identity{UserID: "system", Role: domain.RoleAdmin}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	cfg.ConfigureLogging()
	loc, _ := cfg.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.WithError(err).Fatal("Failed to open mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("Failed to ping mysql")
	}
	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
		log.WithError(err).Fatal("Failed to apply schema")
	}
	log.Info("Connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("Failed to connect redis")
	}
	log.Info("Connected to redis")

	store := storage.NewGuardedStore(mysqlAdapter, cfg.LookupTimeout, cfg.WriteTimeout)
	cache := storage.NewRedisAdapter(rdb)

	orderService := service.NewOrderService(store, cache, cfg.IdempotencyTTL)
	if err := orderService.SetAcceptingOrders(system, cfg.AcceptingOrders); err != nil {
		log.WithError(err).Fatal("Failed to set order intake")
	}
	reportService := service.NewReportService(store, cache, loc, cfg.MetricsCacheTTL)
	catalogService := service.NewCatalogService(store)

	auth := handler.NewAuthenticator(tokenVerifier(ctx, cfg), cfg.AdminRole)

	// gRPC
	grpcServer := grpc.NewServer()
	handler.RegisterOrderServer(grpcServer, handler.NewGRPCHandler(orderService, auth))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.WithError(err).Fatal("Failed to listen")
	}
	go func() {
		log.WithField("addr", cfg.GRPCAddr).Info("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.WithError(err).Error("gRPC server error")
		}
	}()

	// HTTP
	httpHandler := handler.NewHTTPHandler(orderService, reportService, catalogService, auth)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown")
	}
	log.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	_ = rdb.Close()
	_ = db.Close()
	log.Info("Connections closed")
}

// tokenVerifier initializes Firebase Auth. Without it every caller is
// anonymous and admin operations are refused.
func tokenVerifier(ctx context.Context, cfg *config.Config) handler.TokenVerifier {
	if strings.TrimSpace(cfg.FirebaseProjectID) == "" {
		log.Warn("FIREBASE_PROJECT_ID not set, admin operations disabled")
		return nil
	}

	var opts []option.ClientOption
	if credFile := strings.TrimSpace(cfg.FirebaseCredentials); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		log.WithError(err).Warn("Firebase app init failed, admin operations disabled")
		return nil
	}
	client, err := app.Auth(ctx)
	if err != nil {
		log.WithError(err).Warn("Firebase auth init failed, admin operations disabled")
		return nil
	}
	log.Info("Firebase Auth initialized")
	return client
}
