// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pairhub/internal/audit"
	"pairhub/internal/identity"
	"pairhub/internal/names"
	"pairhub/internal/platform/config"
	"pairhub/internal/platform/httpserver"
	"pairhub/internal/platform/logger"
	"pairhub/internal/platform/metrics"
	"pairhub/internal/platform/postgres"
	"pairhub/internal/platform/redis"
	"pairhub/internal/prefs"
	"pairhub/internal/ratelimit"
	"pairhub/internal/records"
	"pairhub/internal/room"
	"pairhub/internal/session"
	"pairhub/internal/stream"
	httptransport "pairhub/internal/transport/http"
)

const auditBuffer = 256

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := postgres.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	if pg != nil {
		defer pg.Close()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	broker := newBroker(ctx, cfg, log, pg, redisClient)

	var (
		profiles    identity.ProfileStore
		rooms       room.RoomStore
		memberships room.MembershipStore
		recordStore records.Store
		auditStore  audit.Store
	)
	if pg != nil {
		profiles = identity.NewPostgresProfileStore(pg.Pool)
		rooms = room.NewPostgresRoomStore(pg.Pool)
		memberships = room.NewPostgresMembershipStore(pg.Pool)
		recordStore = records.NewPostgresStore(pg.Pool,
			records.WithPostgresEventPublisher(broker),
			records.WithPostgresLogger(log),
		)
		auditStore = audit.NewPostgresStore(pg.Pool)
	} else {
		log.Warn("no postgres configured, using in-memory stores")
		profiles = identity.NewInMemoryProfileStore()
		rooms = room.NewInMemoryRoomStore()
		memberships = room.NewInMemoryMembershipStore()
		recordStore = records.NewInMemoryStore(
			records.WithEventPublisher(broker),
			records.WithStoreLogger(log),
		)
		auditStore = audit.NewInMemoryStore()
	}

	auditor := audit.NewChannelPublisher(auditBuffer, log)
	workerOpts := []audit.WorkerOption{audit.WithWorkerLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka sink unavailable", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		workerOpts = append(workerOpts, audit.WithSink(sink))
	}
	worker := audit.NewWorker(auditStore, auditor.Inbox(), workerOpts...)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	tokens := session.NewTokenService(cfg.JWTSigningKey, "pairhub")
	sessions, err := session.NewPasswordless(tokens,
		session.WithLogger(log),
		session.WithChallengeTTL(cfg.ChallengeTTL),
		session.WithSessionTTL(cfg.SessionTTL),
	)
	if err != nil {
		log.Error("session provider init failed", "error", err)
		os.Exit(1)
	}

	prefStore := newPrefStore(cfg, log)

	nameOpts := []names.Option{names.WithLogger(log), names.WithMetrics(m)}
	if redisClient != nil {
		nameOpts = append(nameOpts, names.WithMemo(names.NewRedisMemo(redisClient.Client, 0)))
	}
	nameCache, err := names.NewCache(profiles, nameOpts...)
	if err != nil {
		log.Error("name cache init failed", "error", err)
		os.Exit(1)
	}

	manager, err := room.NewManager(httptransport.RequestIdentities(), rooms, memberships, prefStore,
		room.WithAudit(auditor),
		room.WithMetrics(m),
		room.WithLogger(log),
	)
	if err != nil {
		log.Error("room manager init failed", "error", err)
		os.Exit(1)
	}

	var limitStore ratelimit.Store = ratelimit.NewInMemoryStore()
	if redisClient != nil {
		limitStore = ratelimit.NewRedisStore(redisClient.Client)
	}
	signInLimiter := ratelimit.NewLimiter(limitStore, cfg.SignInLimit, cfg.SignInWindow, log)

	health := map[string]httptransport.Healther{}
	if pg != nil {
		health["postgres"] = pg
	}
	if redisClient != nil {
		health["redis"] = redisClient
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Tokens:     tokens,
		Auth:       httptransport.NewAuthHandler(sessions, auditor),
		Profile:    httptransport.NewProfileHandler(profiles, nameCache),
		Rooms:      httptransport.NewRoomsHandler(manager, auditStore),
		Records:    httptransport.NewRecordsHandler(recordStore, nameCache, memberships, auditor, m),
		SignInLimiter: signInLimiter,
		AdminToken:    cfg.AdminToken,
		Health:     health,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting pairhub", "addr", cfg.Addr, "stream", string(cfg.Stream))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// newBroker selects the change-stream backend, falling back to the in-process
// hub when the configured backend's dependency is missing.
func newBroker(ctx context.Context, cfg config.Server, log *slog.Logger, pg *postgres.Client, redisClient *redis.Client) stream.Broker {
	switch cfg.Stream {
	case config.StreamPostgres:
		if pg == nil {
			log.Warn("postgres stream requested without postgres, using memory broker")
			break
		}
		broker, err := stream.NewPostgresBroker(pg.Pool, stream.WithPostgresBrokerLogger(log))
		if err != nil {
			log.Warn("postgres broker init failed, using memory broker", "error", err)
			break
		}
		broker.Start(ctx)
		return broker
	case config.StreamRedis:
		if redisClient == nil {
			log.Warn("redis stream requested without redis, using memory broker")
			break
		}
		broker, err := stream.NewRedisBroker(redisClient.Client, stream.WithRedisBrokerLogger(log))
		if err != nil {
			log.Warn("redis broker init failed, using memory broker", "error", err)
			break
		}
		return broker
	}
	return stream.NewMemoryBroker(stream.WithMemoryLogger(log))
}

func newPrefStore(cfg config.Server, log *slog.Logger) prefs.Store {
	if cfg.PrefsPath == "" {
		return prefs.NewMemoryStore()
	}
	store, err := prefs.NewFileStore(cfg.PrefsPath)
	if err != nil {
		log.Warn("prefs file unavailable, using memory store", "path", cfg.PrefsPath, "error", err)
		return prefs.NewMemoryStore()
	}
	return store
}
