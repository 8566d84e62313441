// walletd holds a signed-in user's identity session and drives secure
// wallet onboarding against the provisioning backend. It exposes a local
// HTTP API for the client shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/hederavault/walletd/internal/api"
	"github.com/hederavault/walletd/internal/api/handler"
	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
	"github.com/hederavault/walletd/internal/core/service"
	"github.com/hederavault/walletd/internal/infrastructure/config"
	mongostore "github.com/hederavault/walletd/internal/infrastructure/db/mongo"
	redisstore "github.com/hederavault/walletd/internal/infrastructure/db/redis"
	"github.com/hederavault/walletd/internal/infrastructure/httpauth"
	"github.com/hederavault/walletd/internal/infrastructure/identity"
	"github.com/hederavault/walletd/internal/infrastructure/mirror"
	"github.com/hederavault/walletd/internal/infrastructure/provisioning"
	"github.com/hederavault/walletd/internal/infrastructure/scheduler"
	"github.com/hederavault/walletd/internal/infrastructure/session"
	"github.com/hederavault/walletd/pkg/logger"
)

const shutdownPeriod = 10 * time.Second

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "walletd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("walletd", pflag.ContinueOnError)
	demo := flagSet.Bool("demo", false, "serve canned backend data (DEMO_MODE)")
	port := flagSet.StringP("port", "p", "", "listen port (PORT)")
	logLevel := flagSet.String("log-level", "", "trace, debug, info, warn or error (LOG_LEVEL)")
	showVersion := flagSet.Bool("version", false, "print version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println("walletd", version)
		return nil
	}

	overrides := map[string]string{}
	if flagSet.Changed("demo") {
		overrides["DEMO_MODE"] = fmt.Sprint(*demo)
	}
	if *port != "" {
		overrides["PORT"] = *port
	}
	if *logLevel != "" {
		overrides["LOG_LEVEL"] = *logLevel
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, zerolog.New(os.Stderr).With().Timestamp().Logger(), overrides)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "walletd",
		Version: version,
	})

	var readiness []handler.Dependency

	// --- Session store ---
	var store ports.SessionStore = session.NewMemoryStore()
	if cfg.Session.Store == config.SessionStoreRedis {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("close redis")
			}
		}()
		store, err = redisstore.NewSessionStore(rdb, cfg.Session.Secret, "")
		if err != nil {
			return err
		}
		readiness = append(readiness, handler.Dependency{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) },
		})
	}

	// --- Identity provider ---
	var (
		idp       ports.IdentityProvider
		idpClient *identity.Client
	)
	if cfg.DemoMode {
		idp = identity.Demo{}
	} else {
		idpClient = identity.NewClient(identity.Config{
			Region:   cfg.Identity.Region,
			ClientID: cfg.Identity.ClientID,
			Endpoint: cfg.Identity.Endpoint,
		}, &http.Client{
			Timeout:   cfg.Endpoints.HTTPTimeout,
			Transport: httpauth.Instrumented("identity", http.DefaultTransport),
		})
		idp = idpClient
	}

	tokens := service.NewTokenManager(store, idp, logger.Component("token_manager"))

	// --- Remote services ---
	var (
		backend ports.ProvisioningAPI
		ledger  ports.LedgerMirror
		profile ports.ProfileUpdater
	)
	if cfg.DemoMode {
		backend = provisioning.NewDemoClient()
		ledger = mirror.Demo{}
		profile = identity.Demo{}
		log.Warn().Msg("demo mode: serving canned backend data")
	} else {
		authed := &http.Client{
			Timeout: cfg.Endpoints.HTTPTimeout,
			Transport: &httpauth.Transport{
				Base:              httpauth.Instrumented("provisioning", http.DefaultTransport),
				Tokens:            tokens,
				Kind:              domain.TokenKindID,
				RetryUnauthorized: cfg.Endpoints.RetryOnUnauthorized,
				Log:               logger.Component("http_auth"),
			},
		}
		backend = provisioning.NewClient(provisioning.Config{
			BaseURL:        cfg.Endpoints.ProvisioningBaseURL,
			BalanceBaseURL: cfg.Endpoints.BalanceBaseURL,
			Timeout:        cfg.Endpoints.HTTPTimeout,
		}, authed)
		ledger = mirror.NewClient(cfg.Endpoints.MirrorBaseURL, &http.Client{
			Timeout:   cfg.Endpoints.HTTPTimeout,
			Transport: httpauth.Instrumented("mirror", http.DefaultTransport),
		})
		profile = identity.NewProfileUpdater(idpClient, tokens)
	}

	// --- Audit trail ---
	var audit ports.AuditLog
	if cfg.Mongo.URI != "" {
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				log.Warn().Err(err).Msg("close mongo")
			}
		}()
		repo := mongostore.NewAuditRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("audit indexes not created")
		}
		audit = repo
		readiness = append(readiness, handler.Dependency{Name: "mongodb", Ping: repo.Ping})
	}

	// --- Core services ---
	poll := ports.PollOptions{MaxAttempts: cfg.Onboarding.PollMaxAttempts, Interval: cfg.Onboarding.PollInterval}
	status := service.NewStatusTracker(backend, poll, logger.Component("status_tracker"))
	wallets := service.NewWalletClient(backend, ledger, profile, tokens, cfg.Endpoints.HBARUSDRate, logger.Component("wallet_client"))

	onboardingLog := logger.Component("onboarding")
	flow := service.NewOrchestrator(tokens, status, wallets, audit, service.OrchestratorOptions{
		StepDelay:       cfg.Onboarding.StepDelay,
		CompletionDelay: cfg.Onboarding.CompletionDelay,
		Poll:            poll,
		OnComplete: func(_ context.Context, snap ports.OnboardingSnapshot) {
			ev := onboardingLog.Info().Str("run_id", snap.RunID)
			if snap.Wallet != nil {
				ev = ev.Str("account_id", snap.Wallet.AccountAlias)
			}
			ev.Msg("onboarding complete")
		},
	}, onboardingLog)
	tokens.OnSignOut(func(context.Context) { flow.Reset() })

	refresher := scheduler.NewRefresher(tokens, cfg.Session.RefreshCheckInterval, logger.Component("refresher"))
	refresher.Start(ctx)

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		Sessions:       tokens,
		Status:         status,
		Onboarding:     flow,
		Wallets:        wallets,
		Dependencies:   readiness,
		SupportContact: cfg.SupportContact,
		Log:            logger.Component("api"),
	})

	srvErrCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Address()).Str("network", cfg.Network).Bool("demo", cfg.DemoMode).Msg("listening")
		srvErrCh <- e.Start(cfg.Address())
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-srvErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	flow.Reset()
	refresher.Wait()

	log.Info().Msg("server exited cleanly")
	return nil
}
