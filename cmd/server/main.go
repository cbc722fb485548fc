// Command server runs the ShareThrift HTTP API and its domain-event workers.
//
// @title                       ShareThrift API
// @version                     1.0
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	_ "github.com/simnova/sharethrift/docs"
	"github.com/simnova/sharethrift/internal/api"
	"github.com/simnova/sharethrift/internal/core/domain/reservation"
	"github.com/simnova/sharethrift/internal/core/service"
	"github.com/simnova/sharethrift/internal/infrastructure/config"
	mongodb "github.com/simnova/sharethrift/internal/infrastructure/db/mongo"
	redisdb "github.com/simnova/sharethrift/internal/infrastructure/db/redis"
	"github.com/simnova/sharethrift/internal/infrastructure/http/handlers"
	"github.com/simnova/sharethrift/internal/infrastructure/queue"
	"github.com/simnova/sharethrift/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg, err := config.Load(ctx, boot)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "sharethrift",
		Env:     cfg.Env,
	})
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty, tokens are signed with an empty key")
	}

	// --- Stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Error().Err(err).Msg("mongo unavailable")
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Error().Err(err).Msg("redis unavailable")
		return err
	}
	defer func() { _ = rdb.Close() }()

	policy := reservation.Policy{AllowCancelAccepted: cfg.Reservation.AllowCancelAccepted}

	listingRepo := mongodb.NewListingRepository(db, nil)
	reservationRepo := mongodb.NewReservationRepository(db, policy, nil)
	conversationRepo := mongodb.NewConversationRepository(db, nil)
	userRepo := mongodb.NewUserRepository(db, nil)
	roleRepo := mongodb.NewRoleRepository(db, nil)
	credentialRepo := mongodb.NewCredentialRepository(db)
	eventLog := mongodb.NewEventLog(db, nil)

	if err := mongodb.EnsureIndexes(ctx, listingRepo, reservationRepo, conversationRepo, userRepo, roleRepo, credentialRepo, eventLog); err != nil {
		log.Error().Err(err).Msg("index creation failed")
		return err
	}
	if err := roleRepo.EnsureDefaultRoles(ctx); err != nil {
		log.Error().Err(err).Msg("default role seeding failed")
		return err
	}

	// --- Domain events ---
	eventService := service.NewEventService(listingRepo, redisdb.NewDedupChecker(rdb), eventLog, logger.Component("events"))
	dispatcher := queue.NewDispatcher(cfg.Dispatcher.Workers, eventService, logger.Component("dispatcher"))

	// --- Use cases ---
	e := api.NewRouter(api.Deps{
		JWTSecret:     cfg.JWTSecret,
		Log:           log,
		Passports:     service.NewPassportFactory(userRepo, roleRepo, log),
		Auth:          service.NewAuthService(credentialRepo, userRepo, roleRepo, dispatcher, cfg.JWTSecret, cfg.JWTTTL, nil, log),
		Listings:      service.NewListingService(listingRepo, dispatcher, nil, log),
		Reservations:  service.NewReservationService(reservationRepo, listingRepo, dispatcher, policy, nil, log),
		Conversations: service.NewConversationService(conversationRepo, listingRepo, dispatcher, nil, log),
		Users:         service.NewUserService(userRepo, roleRepo, credentialRepo, dispatcher, log),
		Roles:         service.NewRoleService(roleRepo, dispatcher, nil, log),
		ReadinessChecks: map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		},
	})

	g, gctx := errgroup.WithContext(ctx)

	// The dispatcher outlives the HTTP server so events published by
	// in-flight requests are still drained.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	g.Go(func() error { return dispatcher.Run(dispatchCtx) })

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("starting sharethrift api")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		stopDispatch()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
