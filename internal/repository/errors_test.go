package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPostgresError(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "no rows", in: pgx.ErrNoRows, want: ErrNotFound},
		{name: "email unique", in: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: usersEmailConstraint}, want: ErrEmailTaken},
		{name: "slug unique", in: &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: orgsSlugConstraint}, want: ErrSlugTaken},
		{name: "serialization", in: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, want: ErrVersionConflict},
		{name: "passthrough", in: other, want: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapPostgresError(tt.in), tt.want)
		})
	}

	assert.NoError(t, mapPostgresError(nil))
}
