// Command refdatactl uploads reference data and manages upload jobs from the
// command line, against the same database as the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refdata/internal/config"
	"github.com/JonMunkholm/refdata/internal/core"
	_ "github.com/JonMunkholm/refdata/internal/core/tables" // Register all datasets
	"github.com/JonMunkholm/refdata/internal/database"
	"github.com/JonMunkholm/refdata/internal/logging"
)

// app holds what the subcommands share once the root command has run.
type app struct {
	cfg     *config.Config
	pool    *pgxpool.Pool
	service *core.Service
	out     io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{out: os.Stdout}
	var envFile string

	root := &cobra.Command{
		Use:           "refdatactl",
		Short:         "Upload reference data and manage upload jobs",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), envFile)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load if present")

	root.AddCommand(
		newUploadCmd(a),
		newCancelCmd(a),
		newStatusCmd(a),
		newMigrateCmd(a),
	)
	return root
}

func (a *app) open(ctx context.Context, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	pool, err := database.OpenPool(ctx, cfg.Database)
	if err != nil {
		return err
	}

	service, err := core.NewService(core.NewPgStore(pool), cfg)
	if err != nil {
		pool.Close()
		return err
	}

	a.cfg, a.pool, a.service = cfg, pool, service
	return nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// printJSON writes v indented to the command output.
func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
