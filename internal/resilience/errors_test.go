package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("invalid input"), false},
		{"conn reset", fmt.Errorf("write tcp: %w", syscall.ECONNRESET), true},
		{"conn refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"conn refused message", eris.New("postgres: ping: dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"net timeout", &net.DNSError{IsTimeout: true, Err: "timeout"}, true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"pg serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"pg cannot connect now", fmt.Errorf("ping: %w", &pgconn.PgError{Code: "57P03"}), true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"pg auth failure", &pgconn.PgError{Code: "28P01"}, false},
		{"redis loading", errors.New("LOADING Redis is loading the dataset in memory"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
