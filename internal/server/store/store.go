// Package store defines the storage contract of the identity layer: the
// Store capability interface every backend implements, the normalized
// error model that crosses the interface boundary, and an in-memory
// mock backend for consumer tests.
//
// Handlers and middleware always hold a Store, never a concrete
// backend, so backends can be swapped without touching call sites.
package store

import (
	"context"
	"time"

	"github.com/avolkhin/roost/internal/server/models"
)

// Store is the capability set of an identity storage backend.
//
// All operations take a context and are safe to call concurrently from
// multiple in-flight requests against the same backend instance. Every
// failure is reported as an *Error carrying one of the Kind values;
// backend-native error types never cross this boundary.
//
// Existence checks (UsernameExists, OTPExists, DeviceIDExists) report
// absence as (false, nil), never as KindRecordNotFound. Lookups
// (PasswordHash, DisplayName) report absence as KindRecordNotFound.
// Mutations (SetDevice, RemoveDeviceID, RemoveAllDeviceIDs) are
// idempotent so a retried request whose first outcome is unknown is
// safe to resend.
//
// Account identifiers are localparts; resolving a client-supplied
// identifier to a canonical user ID is ResolveUserID's job.
type Store interface {
	// Type returns a short name of the backend for diagnostics.
	Type() string

	// CreateAccount registers a new account with the given password
	// hash. The display name defaults to the localpart. A duplicate
	// localpart fails with KindInvalidSyntax (constraint violation).
	CreateAccount(ctx context.Context, localpart, passwordHash string) error

	// UsernameExists reports whether an account with the localpart
	// exists.
	UsernameExists(ctx context.Context, username string) (bool, error)

	// ResolveUserID resolves a client-supplied identifier (full user ID
	// or bare localpart) to the canonical user ID of a registered
	// account. An unresolvable identifier yields ("", nil), not an
	// error.
	ResolveUserID(ctx context.Context, identifier string) (string, error)

	// PasswordHash returns the stored credential hash for the account.
	PasswordHash(ctx context.Context, localpart string) (string, error)

	// DisplayName returns the account's current display name.
	DisplayName(ctx context.Context, localpart string) (string, error)

	// SetDisplayName updates the account's display name.
	SetDisplayName(ctx context.Context, localpart, displayName string) error

	// IssueOTP stores a one-time password for the account. The OTP
	// expires after ttl and is consumed at most once.
	IssueOTP(ctx context.Context, localpart, otp string, ttl time.Duration) error

	// OTPExists reports whether the exact OTP is currently valid for
	// the account. Consumed and never-issued OTPs both read as false.
	OTPExists(ctx context.Context, localpart, otp string) (bool, error)

	// ConsumeOTP atomically invalidates the OTP, reporting whether it
	// was valid at the time of the call.
	ConsumeOTP(ctx context.Context, localpart, otp string) (bool, error)

	// DeviceIDExists reports whether the device is registered to the
	// account.
	DeviceIDExists(ctx context.Context, localpart, deviceID string) (bool, error)

	// Devices lists the devices registered to the account.
	Devices(ctx context.Context, localpart string) ([]models.Device, error)

	// SetDevice inserts the device or, when it already exists, updates
	// its display name. Exactly one record per (localpart, deviceID)
	// remains afterwards. An empty displayName means the device has no
	// display name.
	SetDevice(ctx context.Context, localpart, deviceID, displayName string) error

	// RemoveDeviceID deletes the device. Deleting an absent device is
	// a successful no-op.
	RemoveDeviceID(ctx context.Context, localpart, deviceID string) error

	// RemoveAllDeviceIDs deletes every device owned by the account,
	// succeeding even when there are none.
	RemoveAllDeviceIDs(ctx context.Context, localpart string) error
}
