package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiny-http/application/http"
	"tiny-http/application/http/router"
	"tiny-http/application/http/server"
	"tiny-http/config"
	"tiny-http/storage"
	"tiny-http/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := tcp.Listen(ctx, cfg.Addr)
	if err != nil {
		return err
	}

	store := storage.NewFileStore(cfg.Directory)
	if store.Dir() == "" {
		logger.Warn("no directory configured, /files/ answers 404")
	} else if err := config.CheckDirectory(store.Dir()); err != nil {
		logger.Warn("directory is not usable, /files/ answers 404 until it is", "error", err.Error())
	}
	rt := router.New(store)

	s := server.New(l, logger, clock.New(), rt.Handle, server.Options{
		Decode: http.DefaultDecodeOptions,
		Timeout: server.TimeoutOptions{
			ReadTimeout:  time.Duration(cfg.ReadTimeout),
			WriteTimeout: time.Duration(cfg.WriteTimeout),
		},
		MaxConnections: cfg.MaxConnections,
	})
	s.Start()

	<-ctx.Done()
	logger.Info("shutting down")

	return s.Close()
}
