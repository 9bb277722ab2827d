package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/partysnap/partyhub/libs/config"
	"github.com/partysnap/partyhub/libs/db"
	"github.com/partysnap/partyhub/libs/grpcx"
	"github.com/partysnap/partyhub/libs/httpx"
	"github.com/partysnap/partyhub/libs/kafkax"
	otelx "github.com/partysnap/partyhub/libs/otel"
	"github.com/partysnap/partyhub/libs/runtime"
	"github.com/partysnap/partyhub/services/availability-service/internal/cache"
	"github.com/partysnap/partyhub/services/availability-service/internal/consumer"
	"github.com/partysnap/partyhub/services/availability-service/internal/handlers"
	"github.com/partysnap/partyhub/services/availability-service/internal/inbox"
	"github.com/partysnap/partyhub/services/availability-service/internal/outbox"
	"github.com/partysnap/partyhub/services/availability-service/internal/scheduling"
	"github.com/partysnap/partyhub/services/availability-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "availability-service")
	port, err := config.Port("PORT", "8086")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	maxConns, err := config.Int("DB_MAX_CONNS", 10)
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: int32(maxConns)})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	rdb := openRedis(logger)
	if rdb != nil {
		defer rdb.Close()
	}
	recordCache, err := newRecordCache(rdb, logger)
	if err != nil {
		panic(err)
	}

	loc, err := time.LoadLocation(config.String("APP_TIMEZONE", "Europe/London"))
	if err != nil {
		logger.Warn("invalid APP_TIMEZONE, using UTC", "err", err)
		loc = time.UTC
	}

	brokers := config.String("KAFKA_BROKERS", "")
	repo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	svc := scheduling.NewService(repo, scheduling.NewTxWriter(pool, repo, outboxRepo), recordCache, logger,
		scheduling.WithLocation(loc),
	)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	topics := config.List("KAFKA_CONSUME_TOPICS")
	if len(topics) == 0 {
		topics = []string{outbox.EventAvailabilityUpdated, scheduling.TopicOrderPlaced}
	}
	if len(kafkax.SplitBrokers(brokers)) > 0 {
		groupID := config.String("KAFKA_GROUP_ID", service)
		eventConsumer := consumer.New(logger, inbox.NewRepository(pool, groupID), consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topics:  topics,
		}, svc.HandleEvent)
		go eventConsumer.Run(ctx)
	} else {
		logger.Warn("event consumer disabled (no kafka brokers configured)")
	}

	grpcSrv, grpcAddr, err := startGrpc(ctx, logger)
	if err != nil {
		logger.Error("grpc server disabled", "err", err)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
		runtime.ReadyCheck{Name: "redis", Check: recordCache.ReadyCheck()},
		runtime.ReadyCheck{Name: "grpc", Check: grpcx.HealthReadyCheck(grpcAddr, "availability")},
	)
	handlers.NewAvailabilityHandler(svc, logger).Register(mux)

	rateLimit, err := rateLimiter(rdb, logger)
	if err != nil {
		panic(err)
	}
	httpHandler := httpx.Chain(mux,
		httpx.WithRecover(logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.DefaultCORSPolicy(config.List("CORS_ALLOWED_ORIGINS"))),
		rateLimit,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(10*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "availability")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()
	if grpcSrv != nil {
		grpcSrv.SetServing(true, "availability")
	}

	<-ctx.Done()
	if grpcSrv != nil {
		grpcSrv.SetServing(false, "availability")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func openRedis(logger *slog.Logger) *redis.Client {
	addr := config.String("REDIS_ADDR", "")
	if addr == "" {
		logger.Info("redis disabled; record cache and shared rate limiting off")
		return nil
	}
	dbIndex, err := config.Int("REDIS_DB", 0)
	if err != nil {
		panic(err)
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       dbIndex,
	})
}

func newRecordCache(rdb *redis.Client, logger *slog.Logger) (*cache.RecordCache, error) {
	if rdb == nil {
		return nil, nil
	}
	ttl, err := config.Duration("RECORD_CACHE_TTL_SECONDS", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	return cache.New(rdb, ttl, logger), nil
}

func rateLimiter(rdb *redis.Client, logger *slog.Logger) (httpx.Middleware, error) {
	perMinute, err := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		return httpx.NewRedisRateLimiter(rdb, perMinute, time.Minute, "availability:rl").Middleware(logger, true), nil
	}
	return httpx.NewRateLimiter(perMinute, time.Minute).Middleware(), nil
}

// startGrpc returns the server and the loopback address the readiness check dials.
func startGrpc(ctx context.Context, logger *slog.Logger) (*grpcx.Server, string, error) {
	if config.String("GRPC_PORT", "") == "" {
		return nil, "", nil
	}
	port, err := config.Port("GRPC_PORT", "")
	if err != nil {
		return nil, "", err
	}
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, "", err
	}
	srv := grpcx.NewServer(logger)
	go srv.Serve(ctx, lis)
	return srv, net.JoinHostPort("127.0.0.1", port), nil
}
