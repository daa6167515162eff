package sqlitedb

import (
	"errors"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY failure.
// When fragments are given, the message must name one of them, e.g.
// "visit.sequence_number".
func IsUniqueViolation(err error, fragments ...string) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
	default:
		return false
	}
	if len(fragments) == 0 {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(message, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// IsBusy reports whether err is lock contention that can be retried.
func IsBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
		return true
	}
	return false
}
