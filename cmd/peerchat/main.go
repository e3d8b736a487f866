package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/peerline/internal/chat"
	"github.com/danmuck/peerline/internal/logging"
	"github.com/danmuck/peerline/internal/observability"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "peerchat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a TOML config file")
	listen := flag.String("listen", "", "address to accept peers on, overrides listen_addr")
	name := flag.String("name", "", "display name, overrides name")
	flag.Parse()

	logging.ConfigureRuntime()
	observability.RegisterMetrics()

	cfg := chat.DefaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *name != "" {
		cfg.Name = *name
	}
	cfg.Session.Node = cfg.Name

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		ln, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listen: %w", err)
		}
		go func() {
			if err := observability.ServeMetrics(ctx, ln); err != nil {
				log.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	c := chat.New(cfg, os.Stdin, os.Stdout)
	if cfg.ListenAddr != "" {
		addr, err := c.Listen(cfg.ListenAddr)
		if err != nil {
			return err
		}
		c.Write(fmt.Sprintf("listening on %s", addr))
	}
	c.Write(fmt.Sprintf("peerchat ready as %s, type help for commands", cfg.Name))
	return c.Run(ctx)
}
