// Package drift recognises the backend failures caused by the follower-key
// column of event_follows still being an integer while the product stores
// wallet addresses in it.
package drift

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Class is the closed set of failure tags produced by Classify.
type Class int

const (
	ClassUnclassified Class = iota
	ClassMissingRelation
	ClassForeignKeyViolation
	ClassIntegerRangeOrSyntax
)

// FollowerKeyConstraint is the legacy foreign key from event_follows.user_id
// to the numeric users table.
const FollowerKeyConstraint = "event_follows_user_id_fkey"

// Postgres SQLSTATE codes.
const (
	codeUndefinedTable            = "42P01"
	codeForeignKeyViolation       = "23503"
	codeNumericValueOutOfRange    = "22003"
	codeInvalidTextRepresentation = "22P02"
)

// SetupSQL is returned to clients as the permanent fix for every migration symptom.
const SetupSQL = `
ALTER TABLE public.event_follows ALTER COLUMN user_id TYPE TEXT;
CREATE UNIQUE INDEX IF NOT EXISTS event_follows_user_id_event_id_key ON public.event_follows (user_id, event_id);`

func (c Class) String() string {
	switch c {
	case ClassMissingRelation:
		return "missing-relation"
	case ClassForeignKeyViolation:
		return "foreign-key-violation"
	case ClassIntegerRangeOrSyntax:
		return "integer-range-or-syntax"
	default:
		return "unclassified"
	}
}

// IsMigrationSymptom reports whether c is one of the observable symptoms of
// the unmigrated follower-key column.
func (c Class) IsMigrationSymptom() bool {
	return c != ClassUnclassified
}

// failure is the structured view of a backend error the predicates run on.
// pg is nil when the error did not come from Postgres.
type failure struct {
	pg  *pgconn.PgError
	msg string
}

func (f failure) code() string {
	if f.pg == nil {
		return ""
	}
	return f.pg.Code
}

func (f failure) contains(s string) bool {
	return strings.Contains(f.msg, s)
}

type rule struct {
	class Class
	match func(failure) bool
}

// Rules are evaluated in order; the first match wins.
var rules = []rule{
	{ClassMissingRelation, isMissingRelation},
	{ClassForeignKeyViolation, isFollowerKeyForeignKeyViolation},
	{ClassIntegerRangeOrSyntax, isIntegerTypeError},
}

func isMissingRelation(f failure) bool {
	if f.code() == codeUndefinedTable {
		return true
	}
	return f.contains("relation") && f.contains("does not exist")
}

func isFollowerKeyForeignKeyViolation(f failure) bool {
	if f.code() == codeForeignKeyViolation && f.pg.ConstraintName == FollowerKeyConstraint {
		return true
	}
	return f.contains("violates foreign key constraint") && f.contains(FollowerKeyConstraint)
}

func isIntegerTypeError(f failure) bool {
	switch f.code() {
	case codeNumericValueOutOfRange, codeInvalidTextRepresentation:
		if strings.Contains(strings.ToLower(f.pg.Message), "type integer") {
			return true
		}
	}
	return f.contains("out of range for type integer") || f.contains("invalid input syntax for type integer")
}

// Classify tags err. A nil error is unclassified.
func Classify(err error) Class {
	if err == nil {
		return ClassUnclassified
	}

	f := failure{msg: strings.ToLower(err.Error())}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		f.pg = pgErr
	}

	for _, r := range rules {
		if r.match(f) {
			return r.class
		}
	}
	return ClassUnclassified
}
