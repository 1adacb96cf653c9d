// Package migrate converts event_follows.user_id from the legacy integer
// user reference to a text follower key.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Foresight-builder/Foresight-backend/internal/domain"
	"github.com/Foresight-builder/Foresight-backend/internal/drift"
	pkglog "github.com/Foresight-builder/Foresight-backend/pkg/log"
)

// Step is one idempotent DDL statement.
type Step struct {
	Name string
	SQL  string
}

// Steps are applied in order. Every statement may be re-run on an already
// migrated table and is a no-op when the table does not exist.
var Steps = []Step{
	{
		Name: "drop legacy user foreign key",
		SQL:  "ALTER TABLE IF EXISTS public.event_follows DROP CONSTRAINT IF EXISTS " + drift.FollowerKeyConstraint,
	},
	{
		Name: "convert user_id to text",
		SQL:  "ALTER TABLE IF EXISTS public.event_follows ALTER COLUMN user_id TYPE TEXT USING user_id::text",
	},
	{
		Name: "drop non-unique pair index",
		SQL:  "DROP INDEX IF EXISTS public.event_follows_user_id_event_id_idx",
	},
	{
		// CREATE INDEX has no table guard of its own.
		Name: "create unique pair index",
		SQL: `DO $$ BEGIN
  IF to_regclass('public.event_follows') IS NOT NULL THEN
    CREATE UNIQUE INDEX IF NOT EXISTS event_follows_user_id_event_id_key ON public.event_follows (user_id, event_id);
  END IF;
END $$`,
	},
	{
		// Deletes must carry the whole row for the CDC consumer.
		Name: "full replica identity",
		SQL:  "ALTER TABLE IF EXISTS public.event_follows REPLICA IDENTITY FULL",
	},
}

// Values written by Verify. The row never survives the transaction.
const (
	ValidationFollowerKey = "0xTESTWALLET_VALIDATE_TYPE"
	ValidationEventID     = 999999
)

var errValidationRollback = errors.New("validation rollback")

// Result summarises a Run.
type Result struct {
	Applied  int
	Duration time.Duration
}

// Run applies every step. It stops at the first failing step.
func Run(ctx context.Context, db *gorm.DB) (*Result, error) {
	l := pkglog.Ctx(ctx)
	start := time.Now()

	res := &Result{}
	for _, step := range Steps {
		if err := db.WithContext(ctx).Exec(step.SQL).Error; err != nil {
			return res, fmt.Errorf("%s: %w", step.Name, err)
		}
		l.Info().Str("step", step.Name).Msg("migration step applied")
		res.Applied++
	}

	res.Duration = time.Since(start)
	return res, nil
}

// Verify inserts a wallet-address follower inside a transaction that is
// always rolled back. It fails while the schema still rejects text keys.
func Verify(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &domain.FollowModel{UserID: ValidationFollowerKey, EventID: ValidationEventID}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return errValidationRollback
	})
	if errors.Is(err, errValidationRollback) {
		return nil
	}
	if err == nil {
		return errors.New("validation transaction committed unexpectedly")
	}
	return drift.Wrap(err)
}
