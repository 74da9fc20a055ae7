package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes worth retrying: connection exceptions, serialization
// failures, deadlocks and a server that is still starting up.
var transientSQLStates = map[string]bool{
	"08000": true,
	"08001": true,
	"08003": true,
	"08004": true,
	"08006": true,
	"40001": true,
	"40P01": true,
	"57P03": true,
}

var transientPatterns = []string{
	"connection reset by peer",
	"connection refused",
	"broken pipe",
	"i/o timeout",
	"no such host",
	"database is locked",
	"sqlite_busy",
	"loading the dataset in memory",
}

// IsTransient reports whether err is a network, Postgres or SQLite failure
// that may succeed on retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLStates[pgErr.Code]
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
