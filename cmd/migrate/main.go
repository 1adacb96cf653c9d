// Command migrate moves event_follows.user_id from the legacy integer user
// reference to a text follower key and verifies the result.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Foresight-builder/Foresight-backend/internal/config"
	"github.com/Foresight-builder/Foresight-backend/internal/migrate"
	"github.com/Foresight-builder/Foresight-backend/pkg/database"
	pkglog "github.com/Foresight-builder/Foresight-backend/pkg/log"
)

var timeout time.Duration

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Fix the event_follows schema for wallet-address followers",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply every migration step, then verify",
	RunE:  runApply,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that a wallet-address follow can be stored (rolled back)",
	RunE:  runVerify,
}

var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Print the migration statements without running them",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, step := range migrate.Steps {
			fmt.Fprintf(cmd.OutOrStdout(), "-- %s\n%s;\n", step.Name, step.SQL)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")
	rootCmd.AddCommand(applyCmd, verifyCmd, sqlCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		l := pkglog.L()
		l.Error().Err(err).Msg("migrate failed")
		os.Exit(1)
	}
}

func open(cmd *cobra.Command) (context.Context, *gorm.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	pkglog.Init(pkglog.Config{Level: cfg.Log.Level, ServiceName: "follow-migrate"})
	ctx := pkglog.WithLogger(cmd.Context(), pkglog.L())

	db, err := database.New(cfg.Database.Connection())
	if err != nil {
		return nil, nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, db, func() {
		cancel()
		sqlDB.Close()
	}, nil
}

func runApply(cmd *cobra.Command, _ []string) error {
	ctx, db, closeFn, err := open(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := migrate.Run(ctx, db)
	if err != nil {
		return fmt.Errorf("applied %d of %d steps: %w", res.Applied, len(migrate.Steps), err)
	}

	if err := migrate.Verify(ctx, db); err != nil {
		return fmt.Errorf("verification failed after migration: %w", err)
	}

	l := pkglog.Ctx(ctx)
	l.Info().Int("steps", res.Applied).Dur("duration", res.Duration).Msg("event_follows accepts wallet-address followers")
	return nil
}

func runVerify(cmd *cobra.Command, _ []string) error {
	ctx, db, closeFn, err := open(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := migrate.Verify(ctx, db); err != nil {
		return fmt.Errorf("schema still rejects wallet-address followers: %w", err)
	}

	l := pkglog.Ctx(ctx)
	l.Info().Msg("event_follows accepts wallet-address followers")
	return nil
}
