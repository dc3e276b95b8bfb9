package storage

import (
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"conti/internal/core"
)

// mapError translates driver errors into the core error classes. Unknown
// errors pass through untouched.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}

	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}

	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return core.Conflictf("record already exists")
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return core.Conflictf("record is still referenced")
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return core.Invalidf("constraint failed: %s", se.Error())
	}

	// Without extended result codes only the primary code is set.
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := se.Error()
		switch {
		case strings.Contains(msg, "UNIQUE"):
			return core.Conflictf("record already exists")
		case strings.Contains(msg, "FOREIGN KEY"):
			return core.Conflictf("record is still referenced")
		default:
			return core.Invalidf("constraint failed: %s", msg)
		}
	}
	return err
}
