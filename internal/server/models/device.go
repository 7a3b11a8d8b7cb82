package models

import "time"

// Device is a session endpoint registered to an account. Device IDs are
// unique only within the owning account's namespace; the same device ID
// under two accounts identifies two unrelated devices.
type Device struct {
	Localpart   string
	DeviceID    string
	DisplayName string
	CreatedAt   time.Time
}
