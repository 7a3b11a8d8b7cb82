// Package postgres implements the Store contract against PostgreSQL,
// with one-time passwords held in Redis so their single-use TTL
// semantics come from the store that has them natively.
//
// Schema: accounts and account_profiles keyed by localpart, devices
// keyed by (localpart, device_id). All user-supplied values are bound
// as query parameters.
package postgres

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"

	"github.com/avolkhin/roost/internal/dbx"
	"github.com/avolkhin/roost/internal/server/models"
	"github.com/avolkhin/roost/internal/server/store"
)

// Store is the relational backend. The *sql.DB pool and the Redis
// client are the only stateful members; both are safe for concurrent
// use, so a single Store instance serves all in-flight requests.
type Store struct {
	db         *sql.DB
	otp        *redis.Client
	serverName string
}

var _ store.Store = (*Store)(nil)

func NewStore(db *sql.DB, otp *redis.Client, serverName string) *Store {
	return &Store{db: db, otp: otp, serverName: serverName}
}

func (s *Store) Type() string { return "PostgresStore" }

func (s *Store) CreateAccount(ctx context.Context, localpart, passwordHash string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (localpart, password_hash) VALUES ($1, $2)`,
			localpart, passwordHash); err != nil {
			return err
		}
		// display name defaults to the localpart
		_, err := tx.ExecContext(ctx,
			`INSERT INTO account_profiles (localpart, display_name) VALUES ($1, $2)`,
			localpart, localpart)
		return err
	})
	return mapError(err)
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE localpart = $1`, username).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

func (s *Store) ResolveUserID(ctx context.Context, identifier string) (string, error) {
	localpart, err := models.LocalpartOn(identifier, s.serverName)
	if err != nil {
		// malformed and foreign-server identifiers are unresolvable,
		// not errors
		return "", nil
	}

	exists, err := s.UsernameExists(ctx, localpart)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", nil
	}
	return models.FormatUserID(localpart, s.serverName), nil
}

func (s *Store) PasswordHash(ctx context.Context, localpart string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM accounts WHERE localpart = $1`, localpart).Scan(&hash)
	if err != nil {
		return "", mapError(err)
	}
	return hash, nil
}

func (s *Store) DisplayName(ctx context.Context, localpart string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT display_name FROM account_profiles WHERE localpart = $1`, localpart).Scan(&name)
	if err != nil {
		return "", mapError(err)
	}
	return name, nil
}

func (s *Store) SetDisplayName(ctx context.Context, localpart, displayName string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE account_profiles SET display_name = $2 WHERE localpart = $1`,
		localpart, displayName)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return store.NewError(store.KindRecordNotFound, "", sql.ErrNoRows)
	}
	return nil
}

func (s *Store) DeviceIDExists(ctx context.Context, localpart, deviceID string) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM devices WHERE localpart = $1 AND device_id = $2`,
		localpart, deviceID).Scan(&count)
	if err != nil {
		return false, mapError(err)
	}
	return count > 0, nil
}

func (s *Store) Devices(ctx context.Context, localpart string) ([]models.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT localpart, device_id, display_name, created_at
		 FROM devices
		 WHERE localpart = $1
		 ORDER BY device_id`, localpart)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var d models.Device
		var displayName sql.NullString
		if err := rows.Scan(&d.Localpart, &d.DeviceID, &displayName, &d.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		d.DisplayName = displayName.String
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return devices, nil
}

func (s *Store) SetDevice(ctx context.Context, localpart, deviceID, displayName string) error {
	name := sql.NullString{String: displayName, Valid: displayName != ""}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (localpart, device_id, display_name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (localpart, device_id)
		 DO UPDATE SET display_name = EXCLUDED.display_name`,
		localpart, deviceID, name)
	return mapError(err)
}

func (s *Store) RemoveDeviceID(ctx context.Context, localpart, deviceID string) error {
	// zero rows affected is a successful no-op
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM devices WHERE localpart = $1 AND device_id = $2`,
		localpart, deviceID)
	return mapError(err)
}

func (s *Store) RemoveAllDeviceIDs(ctx context.Context, localpart string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM devices WHERE localpart = $1`, localpart)
	return mapError(err)
}
