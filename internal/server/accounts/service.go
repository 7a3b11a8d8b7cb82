// Package accounts implements the identity flows of the homeserver
// (registration, login, logout, profile and device management) on top
// of a store.Store. It never touches a concrete backend type, so any
// backend can serve it.
package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avolkhin/roost/internal/common"
	"github.com/avolkhin/roost/internal/logging"
	"github.com/avolkhin/roost/internal/server/auth"
	"github.com/avolkhin/roost/internal/server/config"
	"github.com/avolkhin/roost/internal/server/models"
	"github.com/avolkhin/roost/internal/server/store"
)

// loginTokenBytes is the entropy of a single-use login token before hex
// encoding.
const loginTokenBytes = 16

type Service struct {
	store               store.Store
	logger              logging.Logger
	serverName          string
	jwtSecret           []byte
	accessTokenValidity time.Duration
	otpValidity         time.Duration
}

func NewService(st store.Store, logger logging.Logger, cfg *config.Config) *Service {
	return &Service{
		store:               st,
		logger:              logger,
		serverName:          cfg.ServerName,
		jwtSecret:           []byte(cfg.SecretKey),
		accessTokenValidity: cfg.AccessTokenValidityDuration,
		otpValidity:         cfg.OTPValidityDuration,
	}
}

// Session is the result of a successful registration or login.
type Session struct {
	UserID      string
	DeviceID    string
	AccessToken string
}

// RegisterParams carries the client-supplied registration fields. An
// empty DeviceID makes the server generate one.
type RegisterParams struct {
	Username                 string
	Password                 string
	DeviceID                 string
	InitialDeviceDisplayName string
}

// storeFailure logs a backend failure and hides its diagnostics behind
// the generic internal error. Unknown-kind messages must never be
// swallowed silently, so they are logged here at the boundary.
func (s *Service) storeFailure(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, "store operation failed", "op", op, "kind", store.KindOf(err).String(), "err", err.Error())
	return common.ErrorInternal
}

// Available reports whether the username is valid for this server and
// not yet taken.
func (s *Service) Available(ctx context.Context, username string) (bool, error) {
	if !models.ValidLocalpart(username) {
		return false, common.ErrorInvalidUsername
	}

	exists, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return false, s.storeFailure(ctx, "UsernameExists", err)
	}
	return !exists, nil
}

// Register creates the account, registers the first device and mints an
// access token bound to it.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*Session, error) {
	if _, err := s.Provision(ctx, p.Username, p.Password); err != nil {
		return nil, err
	}
	return s.newSession(ctx, p.Username, p.DeviceID, p.InitialDeviceDisplayName)
}

// Provision creates the account without registering a device or minting
// a token, and returns the new user ID. The operator CLI seeds accounts
// through this path.
func (s *Service) Provision(ctx context.Context, username, password string) (string, error) {
	if !models.ValidLocalpart(username) {
		return "", common.ErrorInvalidUsername
	}
	if password == "" {
		return "", common.ErrorMissingPassword
	}

	exists, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return "", s.storeFailure(ctx, "UsernameExists", err)
	}
	if exists {
		return "", common.ErrorUserInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", common.ErrorInternal
	}

	if err := s.store.CreateAccount(ctx, username, string(hash)); err != nil {
		// a concurrent registration of the same localpart loses the
		// race as a constraint violation
		if store.IsInvalidSyntax(err) {
			return "", common.ErrorUserInUse
		}
		return "", s.storeFailure(ctx, "CreateAccount", err)
	}

	return models.FormatUserID(username, s.serverName), nil
}

// Login verifies the password for the identified account and registers
// the device.
func (s *Service) Login(ctx context.Context, identifier, password, deviceID, deviceDisplayName string) (*Session, error) {
	localpart, err := s.resolveLocalpart(ctx, identifier)
	if err != nil {
		return nil, err
	}

	hash, err := s.store.PasswordHash(ctx, localpart)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, common.ErrorUnauthorized
		}
		return nil, s.storeFailure(ctx, "PasswordHash", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.newSession(ctx, localpart, deviceID, deviceDisplayName)
}

// IssueLoginToken mints a single-use login token for an authenticated
// user, e.g. to sign in another device without retyping the password.
func (s *Service) IssueLoginToken(ctx context.Context, principal models.Principal) (string, error) {
	localpart, err := models.LocalpartOf(principal.UserID)
	if err != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := common.MakeRandHexString(loginTokenBytes)
	if err != nil {
		return "", common.ErrorInternal
	}

	if err := s.store.IssueOTP(ctx, localpart, token, s.otpValidity); err != nil {
		return "", s.storeFailure(ctx, "IssueOTP", err)
	}
	return token, nil
}

// LoginWithToken consumes a single-use login token and registers the
// device. A token is valid for exactly one login.
func (s *Service) LoginWithToken(ctx context.Context, identifier, token, deviceID, deviceDisplayName string) (*Session, error) {
	localpart, err := s.resolveLocalpart(ctx, identifier)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.ConsumeOTP(ctx, localpart, token)
	if err != nil {
		return nil, s.storeFailure(ctx, "ConsumeOTP", err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	return s.newSession(ctx, localpart, deviceID, deviceDisplayName)
}

// Logout revokes the device that issued the current access token. Safe
// to repeat; revoking an already-revoked device is a no-op.
func (s *Service) Logout(ctx context.Context, principal models.Principal) error {
	localpart, err := models.LocalpartOf(principal.UserID)
	if err != nil {
		return common.ErrorUnauthorized
	}

	if err := s.store.RemoveDeviceID(ctx, localpart, principal.DeviceID); err != nil {
		return s.storeFailure(ctx, "RemoveDeviceID", err)
	}
	return nil
}

// LogoutAll revokes every device of the account.
func (s *Service) LogoutAll(ctx context.Context, principal models.Principal) error {
	localpart, err := models.LocalpartOf(principal.UserID)
	if err != nil {
		return common.ErrorUnauthorized
	}

	if err := s.store.RemoveAllDeviceIDs(ctx, localpart); err != nil {
		return s.storeFailure(ctx, "RemoveAllDeviceIDs", err)
	}
	return nil
}

// DisplayName returns the profile display name for a user identifier.
// Identifiers naming other homeservers are not served here.
func (s *Service) DisplayName(ctx context.Context, identifier string) (string, error) {
	localpart, err := models.LocalpartOn(identifier, s.serverName)
	if err != nil {
		return "", common.ErrorNotFound
	}

	name, err := s.store.DisplayName(ctx, localpart)
	if err != nil {
		if store.IsNotFound(err) {
			return "", common.ErrorNotFound
		}
		return "", s.storeFailure(ctx, "DisplayName", err)
	}
	return name, nil
}

// SetDisplayName updates the caller's own display name.
func (s *Service) SetDisplayName(ctx context.Context, principal models.Principal, displayName string) error {
	localpart, err := models.LocalpartOf(principal.UserID)
	if err != nil {
		return common.ErrorUnauthorized
	}

	if err := s.store.SetDisplayName(ctx, localpart, displayName); err != nil {
		if store.IsNotFound(err) {
			return common.ErrorNotFound
		}
		return s.storeFailure(ctx, "SetDisplayName", err)
	}
	return nil
}

// Devices lists the caller's registered devices.
func (s *Service) Devices(ctx context.Context, principal models.Principal) ([]models.Device, error) {
	localpart, err := models.LocalpartOf(principal.UserID)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	devices, err := s.store.Devices(ctx, localpart)
	if err != nil {
		return nil, s.storeFailure(ctx, "Devices", err)
	}
	return devices, nil
}

// resolveLocalpart canonicalizes a client-supplied identifier and
// rejects unknown accounts as unauthorized without revealing whether
// the account exists.
func (s *Service) resolveLocalpart(ctx context.Context, identifier string) (string, error) {
	userID, err := s.store.ResolveUserID(ctx, identifier)
	if err != nil {
		return "", s.storeFailure(ctx, "ResolveUserID", err)
	}
	if userID == "" {
		return "", common.ErrorUnauthorized
	}

	localpart, err := models.LocalpartOf(userID)
	if err != nil {
		return "", common.ErrorUnauthorized
	}
	return localpart, nil
}

// newSession registers the device (generating an ID when the client
// supplied none) and mints the access token bound to it.
func (s *Service) newSession(ctx context.Context, localpart, deviceID, deviceDisplayName string) (*Session, error) {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	if err := s.store.SetDevice(ctx, localpart, deviceID, deviceDisplayName); err != nil {
		return nil, s.storeFailure(ctx, "SetDevice", err)
	}

	userID := models.FormatUserID(localpart, s.serverName)
	token, err := auth.GenerateToken(userID, deviceID, s.jwtSecret, s.accessTokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &Session{UserID: userID, DeviceID: deviceID, AccessToken: token}, nil
}
