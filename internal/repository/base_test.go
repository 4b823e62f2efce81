package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestConstraintErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		unique bool
		check  bool
	}{
		{"nil", nil, false, false},
		{"gorm duplicate", gorm.ErrDuplicatedKey, true, false},
		{"gorm check", gorm.ErrCheckConstraintViolated, false, true},
		{"pg unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true, false},
		{"pg check", &pgconn.PgError{Code: "23514"}, false, true},
		{"pg other", &pgconn.PgError{Code: "23503", Message: "unique constraint"}, false, false},
		{"sqlite unique", errors.New("UNIQUE constraint failed: follows.follower_id"), true, false},
		{"sqlite check", errors.New("CHECK constraint failed: chk_follows_no_self"), false, true},
		{"other", errors.New("connection reset"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, isUniqueConstraintError(tt.err))
			assert.Equal(t, tt.check, isCheckConstraintError(tt.err))
		})
	}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%ab\%c\_d%`, likePattern("AB%c_d"))
}
