package drift

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_MessagePatterns(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want Class
	}{
		{"missing relation", `relation "event_follows" does not exist`, ClassMissingRelation},
		{"missing relation upper case", `ERROR: Relation "x" Does Not Exist`, ClassMissingRelation},
		{"follower key fk", `insert or update on table "event_follows" violates foreign key constraint "event_follows_user_id_fkey"`, ClassForeignKeyViolation},
		{"other fk", `insert or update on table "event_follows" violates foreign key constraint "event_follows_event_id_fkey"`, ClassUnclassified},
		{"invalid syntax", `invalid input syntax for type integer: "0xabc"`, ClassIntegerRangeOrSyntax},
		{"out of range", `value "99999999999" is out of range for type integer`, ClassIntegerRangeOrSyntax},
		{"bigint out of range", `value "1e30" is out of range for type bigint`, ClassUnclassified},
		{"timeout", "canceling statement due to statement timeout", ClassUnclassified},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(errors.New(tc.msg)))
		})
	}
}

func TestClassify_PgError(t *testing.T) {
	cases := []struct {
		name string
		err  *pgconn.PgError
		want Class
	}{
		{
			name: "undefined table",
			err:  &pgconn.PgError{Code: "42P01", Message: `relation "public.event_follows" does not exist`},
			want: ClassMissingRelation,
		},
		{
			name: "fk on follower key",
			err:  &pgconn.PgError{Code: "23503", ConstraintName: FollowerKeyConstraint, Message: "insert or update violates foreign key constraint"},
			want: ClassForeignKeyViolation,
		},
		{
			name: "fk on other constraint",
			err:  &pgconn.PgError{Code: "23503", ConstraintName: "event_follows_event_id_fkey", Message: "insert or update violates foreign key constraint"},
			want: ClassUnclassified,
		},
		{
			name: "invalid text representation",
			err:  &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type integer: "0xabc"`},
			want: ClassIntegerRangeOrSyntax,
		},
		{
			name: "invalid uuid is not a symptom",
			err:  &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "x"`},
			want: ClassUnclassified,
		},
		{
			name: "unique violation",
			err:  &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"},
			want: ClassUnclassified,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("count follows: %w", tc.err)
			assert.Equal(t, tc.want, Classify(wrapped))
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.Equal(t, ClassUnclassified, Classify(nil))
	assert.False(t, Classify(nil).IsMigrationSymptom())
}

func TestClass_String(t *testing.T) {
	assert.Equal(t, "missing-relation", ClassMissingRelation.String())
	assert.Equal(t, "foreign-key-violation", ClassForeignKeyViolation.String())
	assert.Equal(t, "integer-range-or-syntax", ClassIntegerRangeOrSyntax.String())
	assert.Equal(t, "unclassified", ClassUnclassified.String())
}

func TestWrap(t *testing.T) {
	t.Run("symptom becomes setup", func(t *testing.T) {
		cause := errors.New(`relation "event_follows" does not exist`)
		e := Wrap(cause)
		require.NotNil(t, e)
		assert.Equal(t, KindSetup, e.Kind)
		assert.True(t, e.SetupRequired())
		assert.Equal(t, cause.Error(), e.Detail())
		assert.ErrorIs(t, e, cause)
	})

	t.Run("other failures become query", func(t *testing.T) {
		e := Wrap(errors.New("connection reset by peer"))
		require.NotNil(t, e)
		assert.Equal(t, KindQuery, e.Kind)
		assert.False(t, e.SetupRequired())
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil))
	})

	t.Run("errors.As through wrapping", func(t *testing.T) {
		err := fmt.Errorf("batch: %w", Wrap(errors.New("invalid input syntax for type integer")))
		var de *Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, ClassIntegerRangeOrSyntax, de.Class)
	})
}
