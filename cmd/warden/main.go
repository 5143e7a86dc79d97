package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shse/warden/actor"
	"github.com/shse/warden/admin"
	"github.com/shse/warden/bans"
	"github.com/shse/warden/broadcast"
	"github.com/shse/warden/command"
	"github.com/shse/warden/commands"
	"github.com/shse/warden/hub"
	"github.com/shse/warden/permission"
	"github.com/shse/warden/storage"
	"github.com/shse/warden/transport"
)

type Config struct {
	Port           uint16        `required:"true"`
	AdminAddress   string        `default:"0.0.0.0:8080" split_words:"true"`
	Database       string        `default:"warden.db"`
	Permissions    string        `default:""`
	CommandRate    float64       `default:"5" split_words:"true"`
	CommandBurst   int           `default:"10" split_words:"true"`
	StoreTimeout   time.Duration `default:"2s" split_words:"true"`
	BroadcastQueue int           `default:"256" split_words:"true"`
}

func main() {
	logger, err := zap.NewProduction()

	if err != nil {
		log.Fatal(err.Error())
	}

	defer logger.Sync()

	if err = godotenv.Load(); err != nil {
		logger.Info("No .env file found, using the environment only")
	}

	var config Config

	err = envconfig.Process("warden", &config)

	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	signals := make(chan os.Signal, 1)

	signal.Notify(signals,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		<-signals
		logger.Info("Shutting down")
		cancel()
	}()

	if err = run(ctx, config, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(ctx context.Context, config Config, logger *zap.Logger) error {
	store, err := storage.Open(config.Database)

	if err != nil {
		return err
	}

	defer store.Close()

	registry := bans.NewRegistry(store, config.StoreTimeout)

	if err = registry.Load(ctx); err != nil {
		return err
	}

	directory := actor.NewDirectory(logger, registry, store, config.StoreTimeout)

	if err = directory.Load(ctx); err != nil {
		return err
	}

	oracle, err := loadPermissions(config.Permissions)

	if err != nil {
		return err
	}

	console := actor.NewConsole(os.Stdout)
	channel := broadcast.NewChannel(logger, config.BroadcastQueue)
	server := transport.NewServer(logger, prometheus.DefaultRegisterer)
	catalog := command.NewCatalog()

	var h *hub.Hub

	kicker := commands.KickerFunc(func(name string) bool {
		return h.Kick(name)
	})

	if err = commands.Register(catalog, oracle, registry, directory, channel, kicker); err != nil {
		return err
	}

	dispatcher := command.NewDispatcher(catalog, oracle, logger, prometheus.DefaultRegisterer)

	h = hub.NewHub(hub.Options{
		Unicast:    server,
		Dispatcher: dispatcher,
		Directory:  directory,
		Bans:       registry,
		Oracle:     oracle,
		Announcer:  channel,
		Console:    console,
		Limits:     hub.Limits{Rate: rate.Limit(config.CommandRate), Burst: config.CommandBurst},
		Logger:     logger,
	})

	logger.Info("Loaded state",
		zap.Int("bans", registry.Len()),
		zap.Strings("commands", catalog.Aliases()))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.Run(ctx, fmt.Sprintf("0.0.0.0:%d", config.Port), h)
	})

	group.Go(func() error {
		return channel.Run(ctx, h)
	})

	group.Go(func() error {
		return admin.Serve(ctx, config.AdminAddress, admin.NewRouter(registry, prometheus.DefaultGatherer), logger)
	})

	group.Go(func() error {
		return runConsole(ctx, os.Stdin, console, dispatcher)
	})

	return group.Wait()
}

func loadPermissions(path string) (*permission.Set, error) {
	if path == "" {
		return permission.NewSet(nil, nil, nil), nil
	}

	return permission.Load(path)
}
