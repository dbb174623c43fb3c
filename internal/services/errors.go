package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Vendor duplicate-key identifiers.
const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// isUniqueConstraintError reports whether err is a uniqueness violation,
// regardless of which driver produced it. SQLite exposes no typed error for
// this, so its message text is matched as a fallback.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"unique", "duplicate", "constraint"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
