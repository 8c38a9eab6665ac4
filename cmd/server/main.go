package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"profilegate/internal/audit"
	"profilegate/internal/gateway/federated"
	"profilegate/internal/gateway/federated/google"
	"profilegate/internal/gateway/mailer"
	gatewaysvc "profilegate/internal/gateway/service"
	gatewaystore "profilegate/internal/gateway/store"
	"profilegate/internal/gateway/store/revocation"
	"profilegate/internal/gateway/token"
	"profilegate/internal/platform/config"
	"profilegate/internal/platform/httpserver"
	"profilegate/internal/platform/logger"
	"profilegate/internal/platform/metrics"
	platformredis "profilegate/internal/platform/redis"
	profilehandler "profilegate/internal/profile/handler"
	profilesvc "profilegate/internal/profile/service"
	profilestore "profilegate/internal/profile/store"
	httptransport "profilegate/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores default to in-memory so the binary runs without any backing
	// services; a DSN switches everything to postgres.
	var (
		identities gatewaystore.IdentityStore
		profiles   profilestore.Store
		db         *sql.DB
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		identities = gatewaystore.NewPostgres(db)
		profiles = profilestore.NewPostgres(db)
		defer db.Close()
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
		identities = gatewaystore.NewInMemoryStore()
		profiles = profilestore.NewInMemoryStore()
	}

	var revocations gatewaysvc.RevocationStore
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("redis connect failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		revocations = revocation.NewRedisStore(redisClient.Client)
	} else {
		log.Warn("REDIS_URL not set, using in-memory revocation store")
		revocations = revocation.NewInMemoryStore()
	}

	tokens := token.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TokenTTL, revocations)

	var verifiers []federated.Verifier
	if cfg.Google.ClientID != "" {
		googleVerifier, err := google.New(ctx, cfg.Google)
		if err != nil {
			log.Error("google verifier init failed", "error", err)
			os.Exit(1)
		}
		verifiers = append(verifiers, googleVerifier)
	}

	gw := gatewaysvc.New(log, identities, tokens, revocations, mailer.NewLogMailer(log), verifiers...)

	var auditor audit.Publisher = audit.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(ctx, log, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("audit publisher init failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		auditor = kafka
	}

	profileService := profilesvc.New(log, profiles, gw, m, auditor)
	handler := profilehandler.New(profileService, log, m, tokens)

	readiness := &httptransport.Readiness{}
	router := httptransport.NewRouter(readiness, handler)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting server", "addr", cfg.Addr, "extended_profile", cfg.ExtendedProfile)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	// Flip ready only once the backing stores answer.
	if db != nil {
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres not healthy at startup", "error", err)
			os.Exit(1)
		}
	}
	readiness.SetReady(true)

	<-ctx.Done()
	log.Info("shutting down")
	readiness.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
