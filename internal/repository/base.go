package repository

import (
	"errors"
	"strings"

	"socialconnect/internal/database"
	"socialconnect/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// paginate applies a page window. Unbounded pages leave the query untouched.
func paginate(db *gorm.DB, page models.Page) *gorm.DB {
	if page.Unbounded() {
		return db
	}
	limit := page.Limit
	if limit > models.MaxPageLimit {
		limit = models.MaxPageLimit
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	return db.Limit(limit).Offset(offset)
}

// newestFirst is the single ordering used by every content listing.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// forUpdate locks the selected rows until the transaction ends. SQLite
// ignores the clause and serializes writers instead.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func notFoundOrStoreFailure(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewStoreFailure(err)
}

// pgErrorCode extracts the SQLSTATE from a pgx error.
func pgErrorCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if code, ok := pgErrorCode(err); ok {
		return code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// isCheckConstraintError checks for CHECK violations (SQLSTATE 23514).
func isCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	if code, ok := pgErrorCode(err); ok {
		return code == "23514"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "check constraint") || strings.Contains(msg, "23514")
}

// likePattern builds a case-insensitive substring pattern with LIKE
// wildcards in the input escaped.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}
