package db

import (
	"strings"

	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint failure from
// Postgres or SQLite. A non-empty constraintName must match as well: by name
// for Postgres, by message text for SQLite which reports columns instead.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if driver, ok := pkgerrors.Driver(err); ok {
		if driver.Code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || driver.Constraint == constraintName ||
			strings.Contains(driver.Message, constraintName)
	}

	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") && !strings.Contains(msg, "duplicate key value") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
