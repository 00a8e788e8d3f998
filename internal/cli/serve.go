// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mensahe/passkey/internal/config"
	"github.com/mensahe/passkey/internal/rest"
	"github.com/mensahe/passkey/pkg/health"
	"github.com/mensahe/passkey/pkg/logging"
	"github.com/mensahe/passkey/pkg/passkey"
	"github.com/mensahe/passkey/pkg/ratelimit"
)

// NewServeCommand creates the serve command, which runs the HTTP server
// until interrupted.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the passkey registration server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	passkeyConfig := cfg.Passkey()
	passkeyConfig.SetDefaults()

	checker := health.NewChecker()

	var sessions passkey.SessionStore
	switch cfg.Session.Driver {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := passkey.NewRedisSessionStore(client, passkeyConfig.PendingMaxAge())
		checker.Register("redis", store.Ping)
		sessions = store
		logger.Info("using redis session store", "addr", cfg.Redis.Addr)
	default:
		sessions = passkey.NewMemorySessionStore()
		logger.Info("using in-memory session store")
	}

	var tokens passkey.TokenIssuer
	if cfg.Token.Enabled {
		issuer, err := passkey.NewJWTTokenIssuer(&passkey.JWTTokenIssuerConfig{
			SigningKey: []byte(cfg.Token.SigningKey),
			Issuer:     cfg.Token.Issuer,
			TTL:        time.Duration(cfg.Token.TTLMinutes) * time.Minute,
		})
		if err != nil {
			return fmt.Errorf("create token issuer: %w", err)
		}
		tokens = issuer
	}

	service, err := passkey.NewService(passkey.ServiceParams{
		Config:         passkeyConfig,
		SessionStore:   sessions,
		CredentialSink: passkey.NewMemoryCredentialSink(),
		TokenIssuer:    tokens,
	})
	if err != nil {
		return fmt.Errorf("create registration service: %w", err)
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			Enabled:           true,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		})
		defer limiter.Stop()
	}

	server, err := rest.NewServer(rest.ServerParams{
		Config:  cfg,
		Service: service,
		Logger:  logger,
		Checker: checker,
		Limiter: limiter,
	})
	if err != nil {
		return fmt.Errorf("create http server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting passkey server",
		"app", cfg.App.Name,
		"env", cfg.App.Environment,
		"session_driver", cfg.Session.Driver)

	return server.Run(ctx)
}
