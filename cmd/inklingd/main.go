// Command inklingd runs the always-on companion core: it loads
// configuration, constructs the controller that wires every component
// together, and serves either a terminal or HTTP chat front-end while the
// heartbeat ticks in the background.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/inkling-labs/inkling-core/internal/config"
	"github.com/inkling-labs/inkling-core/internal/controller"
	"github.com/inkling-labs/inkling-core/internal/frontend/httpchat"
	"github.com/inkling-labs/inkling-core/internal/frontend/termchat"
)

func main() {
	configPath := flag.String("config", os.Getenv("INKLING_CONFIG"), "path to config.yaml")
	mode := flag.String("mode", "terminal", "front-end to serve: terminal or http")
	httpAddr := flag.String("http-addr", ":8080", "address to listen on when -mode=http")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	if err := run(*configPath, *mode, *httpAddr, log); err != nil {
		log.Fatal().Err(err).Msg("inklingd exited")
	}
}

func run(configPath, mode, httpAddr string, log zerolog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl, err := controller.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("constructing controller: %w", err)
	}

	go ctrl.Run(ctx)
	defer ctrl.Stop()

	switch mode {
	case "http":
		if log.GetLevel() > zerolog.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := httpchat.NewServer(ctrl, log)
		log.Info().Str("addr", httpAddr).Msg("serving HTTP chat front-end")
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Router().Run(httpAddr) }()
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		}
	default:
		session := termchat.New(ctrl, os.Stdin, os.Stdout)
		return session.Run(ctx)
	}
}
