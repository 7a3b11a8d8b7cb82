package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avolkhin/roost/internal/server/models"
)

type boolResp struct {
	set bool
	val bool
	err error
}

type stringResp struct {
	set bool
	val string
	err error
}

type errResp struct {
	set bool
	err error
}

type devicesResp struct {
	set bool
	val []models.Device
	err error
}

type mockOTP struct {
	expiresAt time.Time
}

// MockStore is the in-memory test backend. Without overrides it behaves
// like a real store over process-local maps; any operation's response
// can also be pinned per test with the With*Resp builders, including
// injected errors of every Kind.
//
//	s := store.NewMockStore("example.org").
//		WithDeviceIDExistsResp(true, nil)
//
// Safe for concurrent use.
type MockStore struct {
	mu         sync.Mutex
	serverName string

	accounts map[string]*models.Account
	devices  map[string]map[string]models.Device
	otps     map[string]map[string]mockOTP

	createAccountResp      errResp
	usernameExistsResp     boolResp
	resolveUserIDResp      stringResp
	passwordHashResp       stringResp
	displayNameResp        stringResp
	setDisplayNameResp     errResp
	issueOTPResp           errResp
	otpExistsResp          boolResp
	consumeOTPResp         boolResp
	deviceIDExistsResp     boolResp
	devicesResp            devicesResp
	setDeviceResp          errResp
	removeDeviceIDResp     errResp
	removeAllDeviceIDsResp errResp
}

var _ Store = (*MockStore)(nil)

func NewMockStore(serverName string) *MockStore {
	return &MockStore{
		serverName: serverName,
		accounts:   make(map[string]*models.Account),
		devices:    make(map[string]map[string]models.Device),
		otps:       make(map[string]map[string]mockOTP),
	}
}

func (m *MockStore) Type() string { return "MockStore" }

// ---- response overrides ----

func (m *MockStore) WithCreateAccountResp(err error) *MockStore {
	m.createAccountResp = errResp{set: true, err: err}
	return m
}

func (m *MockStore) WithUsernameExistsResp(exists bool, err error) *MockStore {
	m.usernameExistsResp = boolResp{set: true, val: exists, err: err}
	return m
}

func (m *MockStore) WithResolveUserIDResp(userID string, err error) *MockStore {
	m.resolveUserIDResp = stringResp{set: true, val: userID, err: err}
	return m
}

func (m *MockStore) WithPasswordHashResp(hash string, err error) *MockStore {
	m.passwordHashResp = stringResp{set: true, val: hash, err: err}
	return m
}

func (m *MockStore) WithDisplayNameResp(name string, err error) *MockStore {
	m.displayNameResp = stringResp{set: true, val: name, err: err}
	return m
}

func (m *MockStore) WithSetDisplayNameResp(err error) *MockStore {
	m.setDisplayNameResp = errResp{set: true, err: err}
	return m
}

func (m *MockStore) WithIssueOTPResp(err error) *MockStore {
	m.issueOTPResp = errResp{set: true, err: err}
	return m
}

func (m *MockStore) WithOTPExistsResp(exists bool, err error) *MockStore {
	m.otpExistsResp = boolResp{set: true, val: exists, err: err}
	return m
}

func (m *MockStore) WithConsumeOTPResp(ok bool, err error) *MockStore {
	m.consumeOTPResp = boolResp{set: true, val: ok, err: err}
	return m
}

func (m *MockStore) WithDeviceIDExistsResp(exists bool, err error) *MockStore {
	m.deviceIDExistsResp = boolResp{set: true, val: exists, err: err}
	return m
}

func (m *MockStore) WithDevicesResp(devices []models.Device, err error) *MockStore {
	m.devicesResp = devicesResp{set: true, val: devices, err: err}
	return m
}

func (m *MockStore) WithSetDeviceResp(err error) *MockStore {
	m.setDeviceResp = errResp{set: true, err: err}
	return m
}

func (m *MockStore) WithRemoveDeviceIDResp(err error) *MockStore {
	m.removeDeviceIDResp = errResp{set: true, err: err}
	return m
}

func (m *MockStore) WithRemoveAllDeviceIDsResp(err error) *MockStore {
	m.removeAllDeviceIDsResp = errResp{set: true, err: err}
	return m
}

// ---- Store implementation ----

func (m *MockStore) CreateAccount(ctx context.Context, localpart, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createAccountResp.set {
		return m.createAccountResp.err
	}
	if _, ok := m.accounts[localpart]; ok {
		return NewError(KindInvalidSyntax, "duplicate localpart", nil)
	}
	m.accounts[localpart] = &models.Account{
		Localpart:    localpart,
		ServerName:   m.serverName,
		DisplayName:  localpart,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	return nil
}

func (m *MockStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.usernameExistsResp.set {
		return m.usernameExistsResp.val, m.usernameExistsResp.err
	}
	_, ok := m.accounts[username]
	return ok, nil
}

func (m *MockStore) ResolveUserID(ctx context.Context, identifier string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resolveUserIDResp.set {
		return m.resolveUserIDResp.val, m.resolveUserIDResp.err
	}
	localpart, err := models.LocalpartOn(identifier, m.serverName)
	if err != nil {
		return "", nil
	}
	if _, ok := m.accounts[localpart]; !ok {
		return "", nil
	}
	return models.FormatUserID(localpart, m.serverName), nil
}

func (m *MockStore) PasswordHash(ctx context.Context, localpart string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.passwordHashResp.set {
		return m.passwordHashResp.val, m.passwordHashResp.err
	}
	a, ok := m.accounts[localpart]
	if !ok {
		return "", NewError(KindRecordNotFound, "", nil)
	}
	return a.PasswordHash, nil
}

func (m *MockStore) DisplayName(ctx context.Context, localpart string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.displayNameResp.set {
		return m.displayNameResp.val, m.displayNameResp.err
	}
	a, ok := m.accounts[localpart]
	if !ok {
		return "", NewError(KindRecordNotFound, "", nil)
	}
	return a.DisplayName, nil
}

func (m *MockStore) SetDisplayName(ctx context.Context, localpart, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setDisplayNameResp.set {
		return m.setDisplayNameResp.err
	}
	a, ok := m.accounts[localpart]
	if !ok {
		return NewError(KindRecordNotFound, "", nil)
	}
	a.DisplayName = displayName
	return nil
}

func (m *MockStore) IssueOTP(ctx context.Context, localpart, otp string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.issueOTPResp.set {
		return m.issueOTPResp.err
	}
	if m.otps[localpart] == nil {
		m.otps[localpart] = make(map[string]mockOTP)
	}
	m.otps[localpart][otp] = mockOTP{expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MockStore) OTPExists(ctx context.Context, localpart, otp string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.otpExistsResp.set {
		return m.otpExistsResp.val, m.otpExistsResp.err
	}
	return m.otpValid(localpart, otp), nil
}

func (m *MockStore) ConsumeOTP(ctx context.Context, localpart, otp string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consumeOTPResp.set {
		return m.consumeOTPResp.val, m.consumeOTPResp.err
	}
	valid := m.otpValid(localpart, otp)
	delete(m.otps[localpart], otp)
	return valid, nil
}

// otpValid must be called with m.mu held.
func (m *MockStore) otpValid(localpart, otp string) bool {
	rec, ok := m.otps[localpart][otp]
	return ok && time.Now().Before(rec.expiresAt)
}

func (m *MockStore) DeviceIDExists(ctx context.Context, localpart, deviceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deviceIDExistsResp.set {
		return m.deviceIDExistsResp.val, m.deviceIDExistsResp.err
	}
	_, ok := m.devices[localpart][deviceID]
	return ok, nil
}

func (m *MockStore) Devices(ctx context.Context, localpart string) ([]models.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devicesResp.set {
		return m.devicesResp.val, m.devicesResp.err
	}
	devices := make([]models.Device, 0, len(m.devices[localpart]))
	for _, d := range m.devices[localpart] {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].DeviceID < devices[j].DeviceID })
	return devices, nil
}

func (m *MockStore) SetDevice(ctx context.Context, localpart, deviceID, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setDeviceResp.set {
		return m.setDeviceResp.err
	}
	if m.devices[localpart] == nil {
		m.devices[localpart] = make(map[string]models.Device)
	}
	d, ok := m.devices[localpart][deviceID]
	if !ok {
		d = models.Device{Localpart: localpart, DeviceID: deviceID, CreatedAt: time.Now()}
	}
	d.DisplayName = displayName
	m.devices[localpart][deviceID] = d
	return nil
}

func (m *MockStore) RemoveDeviceID(ctx context.Context, localpart, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removeDeviceIDResp.set {
		return m.removeDeviceIDResp.err
	}
	delete(m.devices[localpart], deviceID)
	return nil
}

func (m *MockStore) RemoveAllDeviceIDs(ctx context.Context, localpart string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removeAllDeviceIDsResp.set {
		return m.removeAllDeviceIDsResp.err
	}
	delete(m.devices, localpart)
	return nil
}
