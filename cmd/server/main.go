package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-church-portal/authprovider"
	"github.com/jrsteele09/go-church-portal/internal/config"
	"github.com/jrsteele09/go-church-portal/internal/logging"
	"github.com/jrsteele09/go-church-portal/server"
	"github.com/jrsteele09/go-church-portal/sessions"
	"github.com/jrsteele09/go-church-portal/sessions/filestorage"
	"github.com/jrsteele09/go-church-portal/sessions/redisstorage"
	"github.com/rs/zerolog/log"
)

const janitorInterval = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Setup(c.GetEnv())
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	endpoints, err := authprovider.Discover(ctx, c, c.GetBaseURL()+c.GetRedirectPath())
	if err != nil {
		return err
	}
	newStorage, closeStorage, err := storageFactory(ctx, c)
	if err != nil {
		return err
	}
	defer closeStorage()

	providerLogger := logging.Component("authprovider")
	portal, err := server.New(c, server.Dependencies{
		NewProvider: func() authprovider.CodeFlowProvider {
			return authprovider.New(endpoints, authprovider.WithLogger(providerLogger))
		},
		NewStorage: newStorage,
	})
	if err != nil {
		return err
	}
	go portal.RunJanitor(ctx, janitorInterval, c.GetShellIdleTimeout())

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           portal,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()
	if err := waitForStop(serveErr); err != nil {
		return err
	}
	return shutdown(httpServer)
}

// storageFactory picks where each browser's session snapshot is kept.
func storageFactory(ctx context.Context, c config.Config) (server.StorageFactory, func(), error) {
	switch backend := c.GetStorageBackend(); backend {
	case config.StorageMemory:
		return nil, func() {}, nil

	case config.StorageFile:
		root := filepath.Join(c.GetDataFolder(), "sessions")
		var options []filestorage.Option
		if key := c.GetStorageKey(); key != "" {
			options = append(options, filestorage.WithHexKey(key))
		} else {
			log.Warn().Str("dir", root).Msg("STORAGE_KEY_HEX not set, session files are stored unsealed")
		}
		return func(browserID string) (sessions.Storage, error) {
			return filestorage.New(filepath.Join(root, browserID), options...)
		}, func() {}, nil

	case config.StorageRedis:
		client, err := redisstorage.Connect(ctx, c.GetRedisAddr(), c.GetRedisPassword())
		if err != nil {
			return nil, nil, err
		}
		ttl := c.GetMaxSessionAge()
		newStorage := func(browserID string) (sessions.Storage, error) {
			return redisstorage.New(client, browserID, ttl), nil
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				log.Err(err).Msg("Failed to close redis client")
			}
		}
		return newStorage, closeClient, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_BACKEND %q", backend)
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// waitForStop blocks until a stop signal arrives or the listener fails.
func waitForStop(serveErr <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		return nil
	case err := <-serveErr:
		return err
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
