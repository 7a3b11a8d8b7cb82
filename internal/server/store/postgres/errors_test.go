package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkhin/roost/internal/server/store"
)

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "dial tcp: connection refused" }
func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

var _ net.Error = fakeNetError{}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want store.Kind
	}{
		{name: "nil passes through", err: nil},
		{name: "no rows", err: sql.ErrNoRows, want: store.KindRecordNotFound},
		{name: "bad conn", err: driver.ErrBadConn, want: store.KindConnectionFailed},
		{name: "conn done", err: sql.ErrConnDone, want: store.KindConnectionFailed},
		{name: "deadline", err: context.DeadlineExceeded, want: store.KindConnectionFailed},
		{name: "canceled", err: context.Canceled, want: store.KindConnectionFailed},
		{name: "net error", err: fakeNetError{}, want: store.KindConnectionFailed},
		{name: "pg connection exception", err: &pgconn.PgError{Code: "08006"}, want: store.KindConnectionFailed},
		{name: "pg too many connections", err: &pgconn.PgError{Code: "53300"}, want: store.KindConnectionFailed},
		{name: "pg unique violation", err: &pgconn.PgError{Code: "23505"}, want: store.KindInvalidSyntax},
		{name: "pg syntax error", err: &pgconn.PgError{Code: "42601"}, want: store.KindInvalidSyntax},
		{name: "pg data exception", err: &pgconn.PgError{Code: "22001"}, want: store.KindInvalidSyntax},
		{name: "pg undefined table", err: &pgconn.PgError{Code: "42P01"}, want: store.KindInvalidSyntax},
		{name: "pg other class", err: &pgconn.PgError{Code: "P0001", Message: "raised"}, want: store.KindUnknown},
		{name: "arbitrary error", err: errors.New("boom"), want: store.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}

			var se *store.Error
			if !errors.As(got, &se) {
				t.Fatalf("expected *store.Error, got %T", got)
			}
			if se.Kind != tt.want {
				t.Fatalf("kind = %v, want %v", se.Kind, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Fatalf("native cause must stay reachable via errors.Is")
			}
		})
	}
}

func TestMapError_UnknownKeepsDiagnostic(t *testing.T) {
	got := mapError(errors.New("something odd happened"))

	var se *store.Error
	if !errors.As(got, &se) {
		t.Fatalf("expected *store.Error, got %T", got)
	}
	if se.Msg != "something odd happened" {
		t.Fatalf("diagnostic message lost: %q", se.Msg)
	}
}

func TestMapError_AlreadyNormalized(t *testing.T) {
	in := store.NewError(store.KindRecordNotFound, "", sql.ErrNoRows)
	if got := mapError(in); got != in {
		t.Fatalf("normalized errors must pass through unchanged, got %v", got)
	}
}

func TestMapError_TimeoutWrappedInNetOpError(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("i/o timeout")}
	got := mapError(opErr)
	if !store.IsConnectionFailed(got) {
		t.Fatalf("want ConnectionFailed, got %v", got)
	}
}
