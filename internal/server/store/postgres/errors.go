package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkhin/roost/internal/server/store"
)

// mapError normalizes the native error surface of database/sql and the
// pgx driver into the store error model. Every failure leaving this
// backend goes through here; no pg-specific type reaches callers.
//
//	dead connection, pool exhaustion, I/O       -> KindConnectionFailed
//	zero rows on a single-row fetch             -> KindRecordNotFound
//	SQLSTATE data/constraint/name/syntax class  -> KindInvalidSyntax
//	anything else                               -> KindUnknown + message
func mapError(err error) error {
	if err == nil {
		return nil
	}

	// already normalized (e.g. by a nested helper)
	var se *store.Error
	if errors.As(err, &se) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return store.NewError(store.KindRecordNotFound, "", err)
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return store.NewError(store.KindConnectionFailed, "", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return store.NewError(store.KindConnectionFailed, "", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch classOf(pgErr.Code) {
		case "08", "53", "57": // connection exception, insufficient resources, operator intervention
			return store.NewError(store.KindConnectionFailed, "", err)
		case "22", "23", "26", "42": // data, integrity constraint, invalid name, syntax/access
			return store.NewError(store.KindInvalidSyntax, "", err)
		default:
			return store.NewError(store.KindUnknown, pgErr.Message, err)
		}
	}

	return store.NewError(store.KindUnknown, err.Error(), err)
}

// classOf returns the two-character SQLSTATE class of a code.
func classOf(code string) string {
	if len(code) < 2 {
		return ""
	}
	return code[:2]
}
