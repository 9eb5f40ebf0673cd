package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/seatside/pkg"
	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/appetiteclub/seatside/pkg/lib/events"
	"github.com/appetiteclub/seatside/pkg/lib/seed"

	"github.com/appetiteclub/seatside/services/ledger/internal/ledger"
	"github.com/appetiteclub/seatside/services/ledger/internal/mongo"
)

//go:embed seed.json
var seedFS embed.FS

const (
	appNamespace = "LEDGER"
	appName      = "ledger"
	appVersion   = "0.1.0"
)

func main() {
	config, err := core.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := core.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	lifecycle := []interface{}{}

	conn, err := mongo.Dial(ctx, mongo.SettingsFrom(config), logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot open ledger store: %v", appName, appVersion, err)
	}
	db := conn.Database()

	orderRecordRepo := mongo.NewOrderRecordRepo(db)
	if err := orderRecordRepo.EnsureIndexes(ctx); err != nil {
		logger.Error("cannot ensure order record indexes", "error", err)
	}

	repos := ledger.Repos{
		ReservationRepo: mongo.NewReservationRepo(db),
		OrderRecordRepo: orderRecordRepo,
		MenuItemRepo:    mongo.NewMenuItemRepo(db),
	}

	publisher, err := newPublisher(config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	publisherLifecycle := core.LifecycleHooks{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	}
	lifecycle = append(lifecycle, publisherLifecycle)

	service := ledger.NewService(repos, publisher, logger)
	handler := ledger.NewHandler(service, logger)

	tracker := seed.NewMongoTracker(db)

	// Choose seeding strategy based on config
	var seedingFunc func(ctx context.Context) error
	if config.GetBoolOrDef("seeding.demo", false) {
		logger.Info("Demo seeding enabled for ledger service")
		seedingFunc = ledger.DemoSeedingFunc(seedCtx, repos, tracker, seedFS, logger)
	} else {
		seedingFunc = ledger.SeedingFunc(seedCtx, repos, tracker, seedFS, logger)
	}

	seedHooks := core.LifecycleHooks{
		OnStart: seedingFunc,
		OnStop:  ledger.StopFunc(cancelSeeds),
	}
	lifecycle = append(lifecycle, seedHooks)

	stack := core.DefaultStack(core.StackOptions{
		Logger:         logger,
		RequestTimeout: config.GetDurationOrDef("web.timeout", 30*time.Second),
	})

	options := []core.Option{
		core.WithConfig(config),
		core.WithLogger(logger),
		core.WithHTTPMiddleware(stack...),
		core.WithHTTPServerModules("web.port", handler),
		core.WithLifecycle(lifecycle...),
		core.WithHealthChecks(appName),
	}

	ms := core.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		_ = conn.Close(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	_ = conn.Close(context.Background())
	logger.Infof("%s(%s) stopped", appName, appVersion)
}

type closingPublisher interface {
	events.Publisher
	Close() error
}

// newPublisher writes to the durable ledger stream when nats.stream.enabled
// is set and to plain NATS otherwise.
func newPublisher(config *core.Config, logger core.Logger) (closingPublisher, error) {
	if config.GetBoolOrDef("nats.stream.enabled", false) {
		return pkg.NewNATSStream(pkg.NATSStreamConfigFrom(config, ""), logger)
	}
	return pkg.NewNATSPublisher(config.GetStringOrDef("nats.url", "nats://localhost:4222"))
}
