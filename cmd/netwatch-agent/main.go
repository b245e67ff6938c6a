package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HerbHall/netwatch/internal/agent"
	"github.com/HerbHall/netwatch/internal/config"
	"github.com/HerbHall/netwatch/internal/probe"
	"github.com/HerbHall/netwatch/internal/version"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to agent configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	v, err := agent.LoadConfig(*configPath)
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

	cfg, err := agent.ConfigFromViper(v)
	if err != nil {
		logger.Fatal("invalid agent configuration", zap.Error(err))
	}

	probes := probe.NewSystem(cfg.Probe.Config, logger.Named("probe"))

	var buffer agent.Buffer
	if cfg.Buffer.Path != "" {
		spool, err := agent.OpenBoltSpool(cfg.Buffer.Path, cfg.Buffer.Capacity)
		if err != nil {
			logger.Fatal("failed to open retry spool", zap.String("path", cfg.Buffer.Path), zap.Error(err))
		}
		buffer = spool
	} else {
		buffer = agent.NewRingBuffer(cfg.Buffer.Capacity)
	}
	defer buffer.Close()

	hostname := ""
	if id, err := probes.DeviceIdentity(); err == nil {
		hostname = id.Hostname
	}
	client := agent.NewClient(cfg.Server.Endpoint, cfg.Server.APIKey, hostname, cfg.Server.Timeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	a := agent.New(cfg, probes, client, buffer, logger.Named("agent"))
	if err := a.Run(ctx); err != nil {
		logger.Error("agent error", zap.Error(err))
	}

	logger.Info("netwatch agent stopped", zap.String("version", version.Short()))
}
