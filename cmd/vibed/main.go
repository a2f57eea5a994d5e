package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Saplyn/vibe/internal/config"
	"github.com/Saplyn/vibe/internal/engine"
	"github.com/Saplyn/vibe/internal/session"
	"github.com/Saplyn/vibe/internal/store"
	"github.com/Saplyn/vibe/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// local editor tool, any origin may connect
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting vibed",
		logger.String("listen_addr", cfg.Server.ListenAddr),
		logger.String("store_path", cfg.Store.Path),
	)

	// Load the project store
	st := store.Load(cfg.Store.Path, store.Defaults{
		Name:       cfg.Store.DefaultName,
		Bpm:        cfg.Store.DefaultBpm,
		TargetAddr: cfg.Target.DefaultAddr,
	})

	// Wire the engine: store → communicator → controller → ticker
	hub := session.NewHub()
	ticks := engine.NewWatch(engine.TickState{Tick: -1})
	communicator := engine.NewCommunicator(st, cfg.Server.CommandBuffer, cfg.Target.ReconnectDelay)
	controller := engine.NewController(
		st,
		communicator,
		hub,
		ticks,
		cfg.Store.Path,
		cfg.Store.SaveInterval,
		cfg.Server.CommandBuffer,
	)
	ticker := engine.NewTicker(st, controller, ticks, cfg.Server.CommandBuffer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go communicator.Run(ctx)
	go controller.Run(ctx)
	go ticker.Run(ctx)

	deps := session.Deps{
		Store:        st,
		Ticker:       ticker,
		Controller:   controller,
		Communicator: communicator,
		Hub:          hub,
	}
	sessionCfg := session.Config{
		WriteTimeout: cfg.Server.WriteTimeout,
		PingInterval: cfg.Server.PingInterval,
		SendBuffer:   cfg.Server.BroadcastBuffer,
	}

	// Set up HTTP server
	router := mux.NewRouter()

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(deps, sessionCfg, w, r)
	})

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: router,
	}

	go func() {
		logger.Info("Listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", logger.ErrorField(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down vibed")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", logger.ErrorField(err))
	}

	// persist the project before exiting
	if err := st.Save(cfg.Store.Path); err != nil {
		logger.Error("Failed to save store on shutdown",
			logger.String("path", cfg.Store.Path),
			logger.ErrorField(err),
		)
	} else {
		logger.Info("Store saved", logger.String("path", cfg.Store.Path))
	}

	logger.Info("vibed stopped")
}

// handleWebSocket upgrades a client connection and serves its session
func handleWebSocket(deps session.Deps, cfg session.Config, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade connection", logger.ErrorField(err))
		return
	}

	id := uuid.New().String()
	logger.Info("Client connected",
		logger.String("session_id", id),
		logger.String("remote_addr", r.RemoteAddr),
	)

	s := session.New(id, deps, cfg, conn)
	go func() {
		s.Run()
		logger.Info("Client disconnected",
			logger.String("session_id", id),
			logger.String("remote_addr", r.RemoteAddr),
		)
	}()
}
