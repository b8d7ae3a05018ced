package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/app"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/bridge"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/config"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/gateway"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/handlers"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/ipc"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/notify"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/relay"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/session"
)

func main() {
	cfg := config.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Session state, restored from the previous renderer session if any.
	repo := session.NewFileRepository(cfg.SessionFile)
	store := session.NewStore(repo, logger.With("component", "session"))

	center := notify.NewCenter(cfg.NotificationAutoClose, logger.With("component", "notify"))
	defer center.Close()

	// The isolation boundary: the dispatcher applies state, the hub mirrors
	// the same stream to attached renderer windows.
	hub := ipc.NewHub(logger.With("component", "ipc"))
	dispatcher := app.NewDispatcher(store, center, nil, logger.With("component", "app"))
	sink := ipc.Fanout{dispatcher, hub}

	// The one connection to the café backend.
	gw := gateway.NewGateway(cfg.ServerURL, cfg.ConnectAttempts, cfg.ConnectDelay, logger.With("component", "gateway"))
	defer gw.Close()

	pushRelay := relay.NewRelay(gw, sink, logger.With("component", "relay"))
	pushRelay.Start()

	br := bridge.NewBridge(gw, logger.With("component", "bridge"))
	defer br.Close()

	// Connection failures are non-fatal: the agent keeps serving the
	// renderer with connectivity-dependent actions disabled.
	go func() {
		if err := gw.Connect(context.Background()); err != nil {
			logger.Error("could not reach server, manual retry required", "error", err)
		}
	}()

	handler := handlers.NewApiHandler(br, store, center, dispatcher)
	router := handlers.NewRouter(handler, hub, logger.With("component", "http"))

	addr := "127.0.0.1:" + cfg.HTTPPort
	logger.Info("starting renderer control API", "addr", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Error("control API stopped", "error", err)
		os.Exit(1)
	}
}
