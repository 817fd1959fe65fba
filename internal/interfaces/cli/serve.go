package cli

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sj-huang/rdkit-m/internal/bootstrap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/auth/jwt"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/database/postgres"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// serviceLogger builds the structured logger of a long-running process from
// the log section of the configuration.
func (c *CLIContext) serviceLogger() (logging.Logger, error) {
	return logging.NewLogger(c.Config.Log)
}

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if port > 0 {
				cliCtx.Config.Server.Port = port
			}
			logger, err := cliCtx.serviceLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signalContext(cmd)
			defer stop()
			return bootstrap.RunAPIServer(ctx, cliCtx.Config, cliCtx.ConfigPath, Version, logger)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "override server.port")
	return cmd
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume map jobs from Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			logger, err := cliCtx.serviceLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signalContext(cmd)
			defer stop()
			return bootstrap.RunWorker(ctx, cliCtx.Config, logger)
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// migrate
// ─────────────────────────────────────────────────────────────────────────────

type migrationState struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s migrationState) TableHeaders() []string { return []string{"VERSION", "DIRTY"} }

func (s migrationState) TableRows() [][]string {
	dirty := "no"
	if s.Dirty {
		dirty = "yes"
	}
	return [][]string{{uintString(s.Version), dirty}}
}

// withMigrator opens the configured database and runs fn against the
// embedded migrations.
func withMigrator(cmd *cobra.Command, fn func(m *postgres.Migrator) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if !cliCtx.Config.Postgres.Enabled {
		return errors.New(errors.ErrCodeFeatureDisabled, "postgres is not configured")
	}
	conn, err := postgres.NewConnection(cliCtx.Config.Postgres, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	m, err := postgres.NewMigrator(conn, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// parseVersion accepts a schema version or -1 for "no version".
func parseVersion(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < -1 {
		return 0, errors.InvalidParam("invalid migration version").WithDetail(s)
	}
	return v, nil
}

func printMigrationState(cmd *cobra.Command, m *postgres.Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	return PrintResult(cmd, migrationState{Version: version, Dirty: dirty})
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m *postgres.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				return printMigrationState(cmd, m)
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.InvalidParam("--steps must be at least 1")
			}
			return withMigrator(cmd, func(m *postgres.Migrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				return printMigrationState(cmd, m)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m *postgres.Migrator) error {
				return printMigrationState(cmd, m)
			})
		},
	}

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without migrating, clearing the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, func(m *postgres.Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				return printMigrationState(cmd, m)
			})
		},
	}

	cmd.AddCommand(up, down, version, force)
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// token
// ─────────────────────────────────────────────────────────────────────────────

type tokenView struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t tokenView) String() string { return t.Token }

func newTokenCmd() *cobra.Command {
	var (
		subject string
		roles   []string
		ttl     time.Duration
		secret  string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an HS256 bearer token for the API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if secret == "" {
				secret = cliCtx.Config.Auth.Secret
			}
			if secret == "" {
				return errors.InvalidParam("a signing secret is required").WithDetail("set --secret or auth.secret")
			}
			if ttl <= 0 {
				return errors.InvalidParam("--ttl must be positive")
			}
			tok, err := jwt.Sign(secret, subject, roles, ttl)
			if err != nil {
				return err
			}
			return PrintResult(cmd, tokenView{Token: tok, Subject: subject, ExpiresAt: time.Now().Add(ttl).UTC()})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject")
	cmd.Flags().StringSliceVar(&roles, "roles", nil, "roles claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 secret (default auth.secret)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

//Personal.AI order the ending
