package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidUserID reports a user identifier that does not match the
// "@localpart:domain" grammar.
var ErrInvalidUserID = errors.New("invalid user id")

// ErrForeignUserID reports a well-formed user identifier that names an
// account on another homeserver.
var ErrForeignUserID = errors.New("user id on another homeserver")

const localpartChars = "abcdefghijklmnopqrstuvwxyz0123456789._=/-"

// ValidLocalpart reports whether s is a well-formed localpart:
// non-empty, lowercase letters, digits and "._=/-".
func ValidLocalpart(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(localpartChars, r) {
			return false
		}
	}
	return true
}

// FormatUserID builds a full user identifier from a localpart and the
// homeserver name, e.g. FormatUserID("alice", "example.org") returns
// "@alice:example.org".
func FormatUserID(localpart, serverName string) string {
	return fmt.Sprintf("@%s:%s", localpart, serverName)
}

// SplitUserID parses a full user identifier into its localpart and
// server name. The server name may carry a port ("host:8448"), so the
// split happens at the first colon after the leading "@".
func SplitUserID(id string) (localpart, serverName string, err error) {
	if !strings.HasPrefix(id, "@") {
		return "", "", ErrInvalidUserID
	}
	rest := id[1:]
	idx := strings.Index(rest, ":")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", ErrInvalidUserID
	}
	localpart, serverName = rest[:idx], rest[idx+1:]
	if !ValidLocalpart(localpart) {
		return "", "", ErrInvalidUserID
	}
	return localpart, serverName, nil
}

// LocalpartOf extracts the localpart from either a full user ID or a
// bare localpart. Handlers accept both forms from clients.
func LocalpartOf(identifier string) (string, error) {
	if strings.HasPrefix(identifier, "@") {
		localpart, _, err := SplitUserID(identifier)
		return localpart, err
	}
	if !ValidLocalpart(identifier) {
		return "", ErrInvalidUserID
	}
	return identifier, nil
}

// LocalpartOn extracts the localpart from an identifier addressed to
// the homeserver named serverName. A bare localpart is implicitly
// local; a full user ID must carry serverName as its domain, otherwise
// it names a user on another homeserver and ErrForeignUserID is
// returned.
func LocalpartOn(identifier, serverName string) (string, error) {
	if strings.HasPrefix(identifier, "@") {
		localpart, domain, err := SplitUserID(identifier)
		if err != nil {
			return "", err
		}
		if domain != serverName {
			return "", ErrForeignUserID
		}
		return localpart, nil
	}
	if !ValidLocalpart(identifier) {
		return "", ErrInvalidUserID
	}
	return identifier, nil
}
