package models

// Principal is the validated identity attached to an authenticated
// request: the full user ID plus, when the access token is bound to a
// device, the device that issued it. Produced by the auth middleware
// and consumed read-only by handlers; never persisted.
type Principal struct {
	UserID   string
	DeviceID string
}
