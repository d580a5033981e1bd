package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tlscope/internal/config"
	"tlscope/internal/discovery"
	"tlscope/internal/identity"
	"tlscope/internal/node"
	"tlscope/internal/securechannel"
	"tlscope/internal/shell"
	"tlscope/internal/storage/peercache"
	"tlscope/internal/storage/userstore"
	"tlscope/internal/util/logger/handlers/slogpretty"
	"tlscope/internal/util/logger/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting tlscope",
		slog.String("name", cfg.Name),
		slog.String("env", cfg.Env),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChanel := make(chan os.Signal, 1)
	signal.Notify(signalChanel, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signalChanel
		log.Info("Shutdown signal received", slog.Any("signal", sig))
		cancel()
	}()

	// both the TLS context and the trust anchor are mandatory preconditions
	// for the session layer; refusing to start beats silently degrading
	secure, err := securechannel.New(cfg.TLS.CACertPath)
	if err != nil {
		log.Error("TLS context init failed", sl.Err(err))
		os.Exit(1)
	}

	store, err := userstore.New(userstore.Config{Dir: cfg.DataDir})
	if err != nil {
		log.Error("user store init failed", sl.Err(err))
		os.Exit(1)
	}

	deriver := identity.NewDeriver(nil)

	sh, err := shell.New(nil, store, deriver, os.Stdin, os.Stdout, log)
	if err != nil {
		log.Error("shell init failed", sl.Err(err))
		os.Exit(1)
	}

	watcher, err := userstore.NewWatcher(store.Dir(), sh.Reload, log)
	if err != nil {
		log.Warn("user store watcher unavailable", sl.Err(err))
	} else {
		defer watcher.Close()
	}

	user, err := sh.Menu(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error("menu failed", sl.Err(err))
		}
		return
	}
	if user == nil {
		log.Info("no user selected, exiting")
		return
	}

	token, err := resolveToken(cfg, user, deriver, store, log)
	if err != nil {
		log.Error("token derivation failed", sl.Err(err))
		os.Exit(1)
	}
	log.Info("session token derived", slog.String("token", token))

	cache, err := peercache.New(peercache.Config{Path: cfg.PeerCache})
	if err != nil {
		log.Warn("peer cache unavailable, continuing without it", sl.Err(err))
		cache = nil
	} else {
		defer cache.Close()
	}

	n := node.New(user.Name, token, user, secure, log)
	if err := n.StartDiscovery(ctx, discoveryConfig(cfg), cache); err != nil {
		log.Error("discovery startup failed", sl.Err(err))
		os.Exit(1)
	}
	defer n.StopDiscovery()

	// a dead discovery session must end the interactive session too
	go func() {
		if err := <-n.DiscoveryDone(); err != nil {
			log.Error("discovery session terminated", sl.Err(err))
			cancel()
		}
	}()

	sh.SetNode(n)
	if cache != nil {
		sh.SetPeerHistory(cache)
	}

	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shell terminated", sl.Err(err))
	}

	log.Info("Application shutting down gracefully")
}

func discoveryConfig(cfg *config.Config) discovery.Config {
	return discovery.Config{
		MulticastGroup:  cfg.Discovery.MulticastGroup,
		StartPort:       cfg.Discovery.StartPort,
		TTL:             cfg.Discovery.TTL,
		ProbeInterval:   cfg.Discovery.ProbeInterval,
		ReceiveTimeout:  cfg.Discovery.ReceiveTimeout,
		PresenceTimeout: cfg.Discovery.PresenceTimeout,
		BindAttempts:    cfg.Discovery.BindAttempts,
	}
}

// resolveToken honors the configured token mode: pinned reuses (and
// persists) one token per account, rotating derives a fresh one per
// session.
func resolveToken(
	cfg *config.Config,
	user *userstore.UserRecord,
	deriver *identity.Deriver,
	store *userstore.Store,
	log *slog.Logger,
) (string, error) {
	if cfg.Identity.TokenMode == "pinned" {
		if user.Token != "" {
			return user.Token, nil
		}

		token, err := deriver.DeriveToken(user.ID)
		if err != nil {
			return "", err
		}

		user.Token = token
		if err := store.Save(user); err != nil {
			log.Warn("could not persist pinned token", sl.Err(err))
		}
		return token, nil
	}

	return deriver.DeriveToken(user.ID)
}

func setupLogger(env string) *slog.Logger {

	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = setupPrettySlog()
	}
	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
