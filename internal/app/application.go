package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"callboard/internal/api"
	"callboard/internal/auth"
	"callboard/internal/broadcast"
	"callboard/internal/config"
	"callboard/internal/delivery"
	"callboard/internal/directory"
	"callboard/internal/presence"
	"callboard/internal/registry"
	"callboard/internal/router"
	"callboard/internal/signaling"
	"callboard/internal/ws"
	"callboard/pkg/database"
)

// Application wires all components and owns their lifecycle. Construction
// follows dependency order: directory store, then registry and fanout,
// then presence, relay, router, and finally the HTTP surface.
type Application struct {
	config     *config.Config
	store      *directory.Store
	redis      *directory.RedisPresence
	registry   *registry.Registry
	presence   *presence.Manager
	httpServer *http.Server
	listener   net.Listener
}

// NewApplication builds a fully wired application from configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// The sqlite directory holds user accounts and is the default
	// presence store.
	store, err := directory.NewStore(database.DefaultConfig(cfg.Database.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open directory store: %w", err)
	}

	var apiDirectory api.Directory = store
	var redisPresence *directory.RedisPresence
	if cfg.Presence.Backend == config.PresenceBackendRedis {
		redisPresence, err = directory.NewRedisPresence(
			context.Background(),
			cfg.Presence.RedisAddr,
			cfg.Presence.RedisPassword,
			cfg.Presence.RedisDB,
		)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		apiDirectory = redisPresence
	}

	reg := registry.New()
	fanout := broadcast.NewFanout(reg)

	presenceManager := presence.NewManager(apiDirectory, fanout)
	relay := signaling.NewRelay(reg)
	messageRouter := router.New(presenceManager, relay)

	verifier := auth.NewVerifier([]byte(cfg.Auth.Secret))
	wsHandler := ws.NewHandler(verifier, reg, presenceManager, messageRouter, cfg.WebSocket)

	bridge := delivery.NewBridge(reg)
	apiServer := api.NewServer(apiDirectory, reg, bridge)

	mux := http.NewServeMux()
	mux.Handle("/health", apiServer)
	mux.Handle("/api/", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		store:      store,
		redis:      redisPresence,
		registry:   reg,
		presence:   presenceManager,
		httpServer: httpServer,
	}, nil
}

// Start binds the listener and begins serving. It returns once the server
// is accepting connections.
func (app *Application) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	app.listener = listener

	log.Printf("Starting callboard on %s", listener.Addr())

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("Callboard started")
		return nil
	case <-ctx.Done():
		_ = app.httpServer.Close()
		return ctx.Err()
	}
}

// Stop shuts the application down in reverse dependency order: HTTP first
// so no new connections arrive, then the stores.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down callboard")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			log.Printf("Redis shutdown error: %v", err)
		}
	}

	if err := app.store.Close(); err != nil {
		log.Printf("Directory store shutdown error: %v", err)
	}

	log.Printf("Callboard shutdown complete")
	return nil
}

// Addr returns the bound listen address, available after Start.
func (app *Application) Addr() string {
	if app.listener != nil {
		return app.listener.Addr().String()
	}
	return app.httpServer.Addr
}

// EnsureUser seeds a user row in the directory. Registration proper lives
// in the external account service.
func (app *Application) EnsureUser(ctx context.Context, userID, username, displayName string) error {
	return app.store.EnsureUser(ctx, userID, username, displayName)
}
