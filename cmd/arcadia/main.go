package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	apiv1 "github.com/arcadia-lab/project-arcadia/internal/api/v1"
	"github.com/arcadia-lab/project-arcadia/internal/config"
	"github.com/arcadia-lab/project-arcadia/internal/eventsourcing"
	"github.com/arcadia-lab/project-arcadia/internal/eventstore"
	espostgres "github.com/arcadia-lab/project-arcadia/internal/eventstore/postgres"
	"github.com/arcadia-lab/project-arcadia/internal/game"
	"github.com/arcadia-lab/project-arcadia/internal/library"
	"github.com/arcadia-lab/project-arcadia/internal/messaging/kafka"
	"github.com/arcadia-lab/project-arcadia/internal/migrations"
	"github.com/arcadia-lab/project-arcadia/internal/outbox"
	obpostgres "github.com/arcadia-lab/project-arcadia/internal/outbox/postgres"
	"github.com/arcadia-lab/project-arcadia/internal/payment"
	rmpostgres "github.com/arcadia-lab/project-arcadia/internal/readmodel/postgres"
	"github.com/arcadia-lab/project-arcadia/internal/server"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "arcadia.yaml", "Path to configuration file")
	rebuild := flag.Bool("rebuild-projections", false, "Replay all events through the projectors and exit")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Storage (PostgreSQL)
	db, err := espostgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 3. Event codec and store with inline read-model projection
	codec := eventsourcing.NewCodec()
	game.RegisterEvents(codec)
	library.RegisterEvents(codec)

	projectors := func(tx *sql.Tx) []eventstore.Projector {
		return []eventstore.Projector{
			game.NewProjector(rmpostgres.NewGameStore(tx)),
			library.NewProjector(rmpostgres.NewLibraryStore(tx)),
		}
	}
	store := espostgres.NewAdapter(db, codec, projectors)

	if *rebuild {
		if err := rebuildProjections(db, store); err != nil {
			slog.Error("Projection rebuild failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// 4. Messaging (Kafka) and the outbox relay
	broker := kafka.NewBroker(cfg.Messaging.Brokers)
	defer broker.Close()

	relay := outbox.NewRelay(
		obpostgres.NewStore(db),
		broker,
		cfg.Outbox.EffectivePollInterval(),
		cfg.Outbox.BatchSize,
	)

	// 5. Payment client with retries
	var authorizer payment.Authorizer = payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.EffectiveAttemptTimeout())
	authorizer = payment.NewRetrying(authorizer, cfg.Payment.MaxAttempts, logger)

	// 6. Domain services
	limits := game.Limits{
		MaxNameLength:        cfg.Catalog.MaxNameLength,
		MaxDescriptionLength: cfg.Catalog.MaxDescriptionLength,
		MaxPrice:             decimal.NewFromFloat(cfg.Catalog.MaxPrice),
	}
	gameSvc := game.NewService(store, limits)

	gameReads := rmpostgres.NewGameStore(db)
	libraryReads := rmpostgres.NewLibraryStore(db)
	librarySvc := library.NewService(store, gameReads, authorizer, logger)

	// 7. HTTP server and routes
	srv := server.New(db, server.Options{
		Addr:          fmtAddr(cfg.Server.Host, cfg.Server.Port),
		Mode:          cfg.Server.Mode,
		MaxBodySizeMB: cfg.Server.MaxBodySizeMB,
		Logger:        logger,
	})
	v1 := srv.Engine.Group("/v1")
	apiv1.NewGameHandler(gameSvc, gameReads).Register(v1)
	apiv1.NewLibraryHandler(librarySvc, libraryReads).Register(v1)

	// 8. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay.Start(gctx)
	})
	if cfg.Messaging.ConsumersEnable {
		consumer := library.NewPaymentConsumer(librarySvc, logger)
		g.Go(func() error {
			return consumer.Run(gctx, broker)
		})
	}
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		slog.Error("Service stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

// rebuildProjections replays every committed event through the same
// projectors the append path uses, writing through the query pool. Intended
// to run while the service is stopped.
func rebuildProjections(db *sql.DB, store eventstore.Store) error {
	ctx := context.Background()
	for _, p := range []eventstore.Projector{
		game.NewProjector(rmpostgres.NewGameStore(db)),
		library.NewProjector(rmpostgres.NewLibraryStore(db)),
	} {
		if err := eventstore.Rebuild(ctx, store, p); err != nil {
			return err
		}
	}
	return nil
}
