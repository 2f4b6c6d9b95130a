package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Craig-Turley/listsync/internal/api"
	"github.com/Craig-Turley/listsync/internal/auth"
	"github.com/Craig-Turley/listsync/internal/config"
	"github.com/Craig-Turley/listsync/internal/db"
	"github.com/Craig-Turley/listsync/internal/locks"
	"github.com/Craig-Turley/listsync/internal/logging"
	"github.com/Craig-Turley/listsync/internal/mailchimp"
	"github.com/Craig-Turley/listsync/internal/oops"
	"github.com/Craig-Turley/listsync/internal/repos"
	"github.com/Craig-Turley/listsync/internal/services"
	"github.com/Craig-Turley/listsync/pkg/idgen"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var cfg *config.Config

func main() {
	rootCommand := &cobra.Command{
		Use:   "listsync",
		Short: "Keeps local mailing lists and their members in sync with MailChimp",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}

			logging.Setup(cfg.LogLevel, cfg.LogFormat)
			auth.Init(cfg.JWTSecret)

			return idgen.Init(cfg.NodeId)
		},
		SilenceUsage: true,
	}

	serveCommand := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, err := openDb(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			locker, err := newLocker(ctx)
			if err != nil {
				return err
			}

			store := repos.NewSqlStore(conn)
			remote := mailchimp.NewClient(mailchimp.Config{
				BaseURL: cfg.MailChimpBaseURL,
				APIKey:  cfg.MailChimpAPIKey,
				Timeout: cfg.MailChimpTimeout,
			})

			if cfg.AuditSchedule != "" {
				audit := services.NewAuditService(store.Lists)
				if err := audit.Start(cfg.AuditSchedule); err != nil {
					return oops.New(err, "bad AUDIT_SCHEDULE %q", cfg.AuditSchedule)
				}
				defer audit.Stop()
			}

			server := api.NewServer(cfg.Addr, cfg.CORSOrigins, services.NewSyncService(store, remote, locker))
			return server.Run(ctx)
		},
	}
	rootCommand.AddCommand(serveCommand)

	migrateCommand := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDb(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			logging.Info().Str("driver", conn.Driver).Msg("schema is up to date")
			return nil
		},
	}
	rootCommand.AddCommand(migrateCommand)

	auditCommand := &cobra.Command{
		Use:   "audit",
		Short: "List local lists that never got a MailChimp id",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDb(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			lists, err := services.NewAuditService(repos.NewSqlListRepo(conn)).Run(cmd.Context())
			if err != nil {
				return err
			}

			for _, l := range lists {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", l.Id, l.Name())
			}
			return nil
		},
	}
	rootCommand.AddCommand(auditCommand)

	var tokenTTL time.Duration
	tokenCommand := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint an API token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !auth.Enabled() {
				return oops.New(nil, "JWT_SECRET is not set")
			}

			token, err := auth.NewToken(args[0], tokenTTL)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCommand.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCommand.AddCommand(tokenCommand)

	if err := rootCommand.Execute(); err != nil {
		logging.Error().Err(err).Msg("listsync failed")
		os.Exit(1)
	}
}

// openDb connects and brings the schema up to date.
func openDb(ctx context.Context) (*db.DB, error) {
	conn, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	if err := conn.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func newLocker(ctx context.Context) (locks.Locker, error) {
	if cfg.RedisURL == "" {
		return locks.NewStripedLocker(0), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, oops.New(err, "bad REDIS_URL")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, oops.New(err, "failed to reach redis")
	}

	logging.Info().Str("addr", opts.Addr).Msg("using redis locks")
	return locks.NewRedisLocker(client, cfg.LockTTL), nil
}
