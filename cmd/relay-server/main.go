package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bravonokoth/store-sub000/config"
	"github.com/bravonokoth/store-sub000/core/api"
	"github.com/bravonokoth/store-sub000/core/bridge"
	"github.com/bravonokoth/store-sub000/core/journal"
	"github.com/bravonokoth/store-sub000/core/relay"
	"github.com/bravonokoth/store-sub000/pkg/observe"
	"github.com/bravonokoth/store-sub000/ws"
	"github.com/bravonokoth/store-sub000/ws/presence"
)

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// newJournal opens the emit journal. The relay runs fine without one.
func newJournal(dsn string) *journal.Store {
	if dsn == "" {
		return nil
	}

	store, err := journal.NewStore(dsn)
	if err != nil {
		slog.Warn("running without journal", "err", err)
		return nil
	}
	if err := store.Init(context.Background()); err != nil {
		slog.Warn("running without journal", "err", err)
		store.Close()
		return nil
	}
	return store
}

func main() {
	conf, err := config.New()
	if err != nil {
		panic(err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout,
		&slog.HandlerOptions{Level: logLevel(conf.LogLevel)})))

	observeOpts := observe.Options().
		WithService("relay-server", "storefront").
		EnableTraceProvider().
		EnableMeterProvider()

	otelShutdown, err := observe.SetupOTelSDK(context.TODO(), observeOpts)
	if err != nil {
		panic(fmt.Errorf("can't setup opentelementry: %w", err))
	}
	defer otelShutdown(context.Background())

	var (
		relayJournal relay.Journal
		recentReader api.JournalReader
	)
	if store := newJournal(conf.JournalDSN); store != nil {
		defer store.Close()
		relayJournal = store
		recentReader = store
	}

	rooms := ws.NewRoomServer()
	svc := relay.NewService(rooms, relayJournal)
	pres := presence.NewMemService()

	wsServer := ws.NewServer(rooms, svc, pres, ws.Config{
		ReadTimeout:  conf.ReadTimeout,
		WriteTimeout: conf.WriteTimeout,
	})

	app, err := api.Initialize(svc, recentReader, pres, api.Config{AllowedOrigins: conf.AllowedOrigins})
	if err != nil {
		panic(err)
	}
	wsServer.Register(app)

	if conf.NatsURL != "" {
		br, err := bridge.Connect(conf.NatsURL, conf.NatsSubject, svc)
		if err != nil {
			slog.Warn("Running without NATS connection. Backend broadcasts arrive over HTTP only.", "err", err)
		} else {
			defer br.Close()
		}
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down")
		app.Shutdown()
	}()

	if err := app.Listen(conf.HTTPAddr); err != nil {
		slog.Error("server stopped", "err", err)
	}
}
