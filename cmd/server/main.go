package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/rl1809/livemart/internal/adapter/handler"
	"github.com/rl1809/livemart/internal/adapter/notify"
	"github.com/rl1809/livemart/internal/adapter/security"
	"github.com/rl1809/livemart/internal/adapter/storage"
	"github.com/rl1809/livemart/internal/config"
	"github.com/rl1809/livemart/internal/core/service"
	"github.com/rl1809/livemart/internal/port"
	"github.com/rl1809/livemart/pkg/logging"
	"github.com/rl1809/livemart/pkg/shutdown"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	db, dbCloser, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}

	cache, cacheCloser, err := openCache(ctx, cfg, log)
	if err != nil {
		if dbCloser != nil {
			dbCloser.Close(ctx)
		}
		return err
	}

	sender, senderCloser := newSender(cfg, log)
	dispatcher := notify.NewDispatcher(sender, cfg.NotifyWorkers, cfg.NotifyQueue, log)
	log.Info().Str("notifier", cfg.Notifier).Int("workers", cfg.NotifyWorkers).Msg("started notification workers")

	orderService := service.NewOrderService(db, cache, dispatcher, log)
	services := handler.Services{
		Auth: service.NewAuthService(db, cache,
			security.NewBcryptHasher(bcrypt.DefaultCost),
			security.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL),
			dispatcher, cfg.OTPTTL, log),
		Products:  service.NewProductService(db),
		Inventory: service.NewInventoryService(db, log),
		Orders:    orderService,
		Wholesale: service.NewWholesaleService(db, log),
		Feedback:  service.NewFeedbackService(db),
	}

	grpcServer := handler.NewGRPCServer(handler.NewGRPCHandler(orderService), log)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}
	go func() {
		log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("gRPC server error")
		}
	}()

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(services, log).Routes(limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	// transports first, then drain the dispatcher, then close its sender
	closers := []shutdown.Closer{
		{Name: "http", Close: httpServer.Shutdown},
		{Name: "grpc", Close: func(context.Context) error {
			grpcServer.GracefulStop()
			return nil
		}},
		{Name: "notifications", Close: func(context.Context) error {
			dispatcher.Close()
			return nil
		}},
	}
	for _, c := range []*shutdown.Closer{senderCloser, cacheCloser, dbCloser} {
		if c != nil {
			closers = append(closers, *c)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdown.Run(shutdownCtx, closers, func(name string, err error) {
		log.Error().Err(err).Str("component", name).Msg("shutdown failed")
	})
	log.Info().Msg("stopped")
	return nil
}

func openDatabase(ctx context.Context, cfg config.Config, log zerolog.Logger) (port.DatabaseRepository, *shutdown.Closer, error) {
	if cfg.Storage == config.StorageMemory {
		log.Info().Msg("using in-memory storage")
		return storage.NewMemoryAdapter(), nil, nil
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping mysql: %w", err)
	}
	if err := storage.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info().Msg("connected to mysql")

	return storage.NewMySQLAdapter(db), &shutdown.Closer{Name: "mysql", Close: func(context.Context) error {
		return db.Close()
	}}, nil
}

func openCache(ctx context.Context, cfg config.Config, log zerolog.Logger) (port.CacheRepository, *shutdown.Closer, error) {
	if cfg.Cache == config.CacheMemory {
		log.Info().Msg("using in-memory cache")
		cache := storage.NewMemoryCache()
		go cache.RunSweeper(ctx, sweepInterval)
		return cache, nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")

	return storage.NewRedisAdapter(rdb), &shutdown.Closer{Name: "redis", Close: func(context.Context) error {
		return rdb.Close()
	}}, nil
}

func newSender(cfg config.Config, log zerolog.Logger) (notify.Sender, *shutdown.Closer) {
	switch cfg.Notifier {
	case config.NotifierSMTP:
		return notify.NewSMTPSender(notify.SMTPConfig{
			Addr:     cfg.SMTPAddr,
			Host:     cfg.SMTPHost,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}), nil
	case config.NotifierKafka:
		sender := notify.NewKafkaSender(cfg.KafkaBrokers, cfg.NotifyTopic)
		return sender, &shutdown.Closer{Name: "kafka", Close: func(context.Context) error {
			return sender.Close()
		}}
	default:
		return notify.NewLogSender(log), nil
	}
}
