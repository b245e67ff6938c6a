package main

//	@title						netwatch API
//	@version					0.1.0
//	@description				Connectivity monitoring API for registered network devices.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Shared API key. Format: "Bearer {key}"

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/HerbHall/netwatch/api/swagger"
	"github.com/HerbHall/netwatch/internal/config"
	"github.com/HerbHall/netwatch/internal/event"
	"github.com/HerbHall/netwatch/internal/probe"
	"github.com/HerbHall/netwatch/internal/server"
	"github.com/HerbHall/netwatch/internal/store"
	"github.com/HerbHall/netwatch/internal/telemetry"
	"github.com/HerbHall/netwatch/internal/version"
	"github.com/HerbHall/netwatch/internal/ws"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Println(version.Info())
			return
		case "hash-key":
			runHashKey()
			return
		}
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	v, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("netwatch server starting", zap.String("version", version.Short()))

	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("component", "config"), zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults", zap.String("component", "config"))
	}

	loc, err := time.LoadLocation(v.GetString("display.timezone"))
	if err != nil {
		logger.Fatal("invalid display.timezone", zap.Error(err))
	}

	dbPath := v.GetString("database.path")
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		logger.Fatal("database version check failed", zap.Error(err))
	}
	if err := db.Migrate(ctx, telemetry.Component, telemetry.Migrations()); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}
	logger.Info("database initialized", zap.String("component", "database"), zap.String("path", dbPath))

	var probeCfg probe.Config
	if err := v.UnmarshalKey("probe", &probeCfg); err != nil {
		logger.Fatal("invalid probe configuration", zap.Error(err))
	}
	probes := probe.NewSystem(probeCfg.WithDefaults(), logger.Named("probe"))

	bus := event.NewBus(logger.Named("event"))
	tasks := telemetry.NewTasks(logger.Named("tasks"))
	svc := telemetry.NewService(
		telemetry.NewStore(db.DB()),
		probes,
		bus,
		tasks,
		telemetry.Config{
			LatencyHost: v.GetString("telemetry.latency_host"),
			StaleAfter:  v.GetDuration("liveness.stale_after"),
		},
		logger.Named("telemetry"),
	)

	var pollCfg telemetry.PollerConfig
	if err := v.UnmarshalKey("poller", &pollCfg); err != nil {
		logger.Fatal("invalid poller configuration", zap.Error(err))
	}
	if pollCfg.Enabled {
		poller := telemetry.NewPoller(svc, probes, pollCfg, logger.Named("poller"))
		svc.EnablePolling(poller.Run)
		if err := svc.StartPolling(ctx); err != nil {
			logger.Fatal("failed to start collection tasks", zap.Error(err))
		}
	}

	monitor := telemetry.NewMonitor(svc, bus, v.GetDuration("liveness.sweep_interval"), logger.Named("liveness"))
	monitor.Start(ctx)

	wsHandler := ws.NewHandler(bus, logger.Named("ws"))

	cfg := server.Config{
		Host: v.GetString("server.host"),
		Port: v.GetInt("server.port"),
	}
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return db.DB().PingContext(ctx)
	})
	srv := server.New(cfg.Addr(), logger, readyCheck, server.OptionsFromViper(v),
		telemetry.NewHandler(svc, loc, logger.Named("api")),
		wsHandler,
	)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("netwatch server ready",
		zap.String("addr", cfg.Addr()),
		zap.String("display_timezone", loc.String()),
		zap.Bool("poller", pollCfg.Enabled),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	monitor.Stop()
	wsHandler.Close()
	tasks.StopAll()
	cancel()

	logger.Info("netwatch server stopped")
}

// runHashKey reads an API key from stdin and prints the bcrypt hash to put
// in auth.api_key_hash.
func runHashKey() {
	fmt.Fprint(os.Stderr, "API key: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintf(os.Stderr, "read key: %v\n", err)
		os.Exit(1)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		fmt.Fprintln(os.Stderr, "key must not be empty")
		os.Exit(1)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash key: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
