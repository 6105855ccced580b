package resilience

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// transientStates are SQLSTATE codes worth retrying: connection exceptions,
// server start-up and shutdown, connection exhaustion, and serialization
// conflicts.
var transientStates = map[string]bool{
	"08000": true,
	"08001": true,
	"08003": true,
	"08004": true,
	"08006": true,
	"53300": true,
	"57P01": true,
	"57P03": true,
	"40001": true,
	"40P01": true,
}

// IsTransient reports whether err is a database or network failure that may
// succeed on retry. Context cancellation and deadlines never are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientStates[pgErr.Code]
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection reset", "broken pipe", "no such host", "i/o timeout"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
