// Package models holds the identity data model of the homeserver:
// accounts, devices, principals and the user identifier grammar.
package models

import "time"

// Account is a registered user of this homeserver. The localpart is
// unique and immutable once created; the password is stored only as a
// hash. DisplayName defaults to the localpart at registration.
type Account struct {
	Localpart    string
	ServerName   string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// UserID returns the full user identifier, e.g. "@alice:example.org".
func (a *Account) UserID() string {
	return FormatUserID(a.Localpart, a.ServerName)
}
