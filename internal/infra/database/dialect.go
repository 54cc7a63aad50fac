package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pqClassInsufficientResource pq.ErrorClass = "53"
	pqClassOperatorIntervention pq.ErrorClass = "57"
	pqClassConnectionException  pq.ErrorClass = "08"
)

// isTransient reports whether err is worth retrying: lost connections, timeouts,
// lock contention and server-side resource exhaustion.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case pqClassConnectionException, pqClassInsufficientResource, pqClassOperatorIntervention:
			return true
		}
		return false
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL:
			return true
		}
		return false
	}

	// Unknown driver errors are treated as an unreachable store.
	return true
}
