package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	boom := errors.New("connection reset")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: "23503"}, ErrNotFound},
		{"bad uuid text", &pgconn.PgError{Code: "22P02"}, ErrNotFound},
		{"other", boom, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, translate(tt.in))
		})
	}
}

func TestValidIDs(t *testing.T) {
	assert.True(t, validIDs("3f1b2c4d-5e6f-4a1b-8c9d-0e1f2a3b4c5d"))
	assert.True(t, validIDs())
	assert.False(t, validIDs("3f1b2c4d-5e6f-4a1b-8c9d-0e1f2a3b4c5d", "nope"))
	assert.False(t, validIDs(""))
}
