package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/seatside/pkg"
	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/appetiteclub/seatside/pkg/lib/events"

	"github.com/appetiteclub/seatside/services/ordering/internal/ledgerclient"
	"github.com/appetiteclub/seatside/services/ordering/internal/ordering"
	"github.com/appetiteclub/seatside/services/ordering/internal/session"
	"github.com/appetiteclub/seatside/services/ordering/internal/window"
)

const (
	appNamespace = "ORDERING"
	appName      = "ordering"
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

	loc, err := time.LoadLocation(config.GetStringOrDef("venue.timezone", "Local"))
	if err != nil {
		log.Fatalf("%s(%s) invalid venue.timezone: %v", appName, appVersion, err)
	}
	lead := config.GetDurationOrDef("window.lead", window.DefaultLead)
	calc := window.NewCalculator(lead, loc)

	ledger := ledgerclient.NewFromConfig(config)

	registry := session.NewRegistry(session.Deps{
		Boundary: ledger,
		Window:   calc,
		Logger:   logger,
	})

	sub, err := newSubscriber(config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	// Ledger change events trigger a fresh read of open sessions
	orderSub := session.NewOrderEventSubscriber(sub, registry, logger)

	subLifecycle := core.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	handler := ordering.NewHandler(registry, logger)

	stack := core.DefaultStack(core.StackOptions{
		Logger:         logger,
		RequestTimeout: config.GetDurationOrDef("web.timeout", 30*time.Second),
	})

	options := []core.Option{
		core.WithConfig(config),
		core.WithLogger(logger),
		core.WithHTTPMiddleware(stack...),
		core.WithHTTPServerModules("web.port", handler),
		core.WithLifecycle(orderSub, subLifecycle),
		core.WithHealthChecks(appName),
	}

	ms := core.NewMicro(options...)
	logger.Infof("Starting %s(%s) lead=%s tz=%s", appName, appVersion, lead, loc)

	err = ms.Run(ctx)
	if err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

type closingSubscriber interface {
	events.Subscriber
	Close() error
}

// newSubscriber consumes the durable ledger stream when nats.stream.enabled
// is set and plain NATS otherwise.
func newSubscriber(config *core.Config, logger core.Logger) (closingSubscriber, error) {
	if config.GetBoolOrDef("nats.stream.enabled", false) {
		consumer := config.GetStringOrDef("nats.stream.consumer", appName)
		return pkg.NewNATSStream(pkg.NATSStreamConfigFrom(config, consumer), logger)
	}
	return pkg.NewNATSSubscriber(config.GetStringOrDef("nats.url", "nats://localhost:4222"), logger)
}
