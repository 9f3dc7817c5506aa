// Server runs the eventfair backend: session lifecycle API, tenant listings,
// and health, with OTel and Kafka telemetry when configured.
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"eventfair/backend/internal/audit"
	auditrepo "eventfair/backend/internal/audit/repository"
	"eventfair/backend/internal/auth/cookie"
	"eventfair/backend/internal/auth/refreshlock"
	"eventfair/backend/internal/auth/upstream"
	"eventfair/backend/internal/config"
	"eventfair/backend/internal/db"
	healthhandler "eventfair/backend/internal/health/handler"
	listinghandler "eventfair/backend/internal/listing/handler"
	listingrepo "eventfair/backend/internal/listing/repository"
	listingservice "eventfair/backend/internal/listing/service"
	"eventfair/backend/internal/server"
	sessionhandler "eventfair/backend/internal/session/handler"
	sessionservice "eventfair/backend/internal/session/service"
	"eventfair/backend/internal/session/store"
	"eventfair/backend/internal/telemetry"
	telemetryotel "eventfair/backend/internal/telemetry/otel"
	"eventfair/backend/internal/telemetry/producer"
)

const shutdownTimeout = 15 * time.Second

// recorders fans session events out to every configured sink.
type recorders []sessionservice.EventRecorder

func (rs recorders) RecordSessionEvent(ctx context.Context, userID, eventType, metadata string) {
	for _, r := range rs {
		r.RecordSessionEvent(ctx, userID, eventType, metadata)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("config")
	}

	log := newLogger(cfg)
	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Settings{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "eventfair-backend",
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("otel providers")
	}
	providers.SetGlobal()

	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Fatal().Err(err).Msg("kafka producer")
	}

	var database *sql.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("database")
		}
		defer database.Close()
		log.Info().Msg("database connected")
	} else {
		log.Warn().Msg("DATABASE_URL not set; using in-memory listing store and no audit trail")
	}

	// Session event sinks: audit trail (Postgres), Kafka topic, OTel logs.
	var sinks recorders
	if database != nil {
		sinks = append(sinks, audit.NewLogger(auditrepo.NewPostgresRepository(database)))
	}
	var emitters []telemetry.EventEmitter
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
	}
	emitters = append(emitters, telemetryotel.NewEventEmitter(providers.LoggerProvider))
	sinks = append(sinks, telemetry.NewRecorder(audit.Source, emitters...))

	authClient := upstream.NewClient(cfg.UpstreamAuthURL, log)
	cookies := cookie.NewSynchronizer(cfg.SharedCookieDomain, cfg.Production(), log)

	sessSvc := sessionservice.New(
		store.NewMemoryStore(),
		authClient,
		refreshlock.New(),
		cookies,
		sinks,
		cfg.RefreshBufferDuration(),
		cfg.RefreshCooldownDuration(),
		cfg.SessionLifetimeDuration(),
		cfg.RememberedSessionLifetimeDuration(),
		log,
	)

	var listRepo listingservice.Repo
	if database != nil {
		listRepo = listingrepo.NewPostgresRepository(database)
	} else {
		listRepo = listingrepo.NewMemoryRepository()
	}

	router := server.NewRouter(server.Deps{
		Session: sessionhandler.New(sessSvc, cfg.Production(), log),
		Listing: listinghandler.New(listingservice.New(listRepo), log),
		Health:  healthhandler.New(pinger(database)),
	}, log)

	srv := server.New(cfg.HTTPAddr, router, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("serve")
		}
		return
	case <-quit:
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	// Let in-flight async telemetry emits finish before tearing providers down.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Error().Err(err).Msg("kafka close")
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("stopped")
}

// pinger keeps the health handler's Pinger nil when no database is configured.
func pinger(database *sql.DB) healthhandler.Pinger {
	if database == nil {
		return nil
	}
	return database
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if !cfg.Production() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}
