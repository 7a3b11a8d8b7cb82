package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avolkhin/roost/internal/common"
)

// Matrix error codes returned in the errcode field.
const (
	errcodeForbidden       = "M_FORBIDDEN"
	errcodeUnknownToken    = "M_UNKNOWN_TOKEN"
	errcodeMissingToken    = "M_MISSING_TOKEN"
	errcodeMissingParam    = "M_MISSING_PARAM"
	errcodeBadJSON         = "M_BAD_JSON"
	errcodeNotFound        = "M_NOT_FOUND"
	errcodeUserInUse       = "M_USER_IN_USE"
	errcodeInvalidUsername = "M_INVALID_USERNAME"
	errcodeUnrecognized    = "M_UNRECOGNIZED"
	errcodeUnknown         = "M_UNKNOWN"
)

type errorResponse struct {
	ErrCode string `json:"errcode"`
	Error   string `json:"error"`
}

type registerRequest struct {
	Username                 string `json:"username"`
	Password                 string `json:"password"`
	DeviceID                 string `json:"device_id"`
	InitialDeviceDisplayName string `json:"initial_device_display_name"`
}

type loginIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type loginRequest struct {
	Type                     string          `json:"type"`
	Identifier               loginIdentifier `json:"identifier"`
	User                     string          `json:"user"`
	Password                 string          `json:"password"`
	Token                    string          `json:"token"`
	DeviceID                 string          `json:"device_id"`
	InitialDeviceDisplayName string          `json:"initial_device_display_name"`
}

// identifierUser prefers the structured identifier over the deprecated
// top-level user field.
func (r *loginRequest) identifierUser() string {
	if r.Identifier.User != "" {
		return r.Identifier.User
	}
	return r.User
}

type sessionResponse struct {
	UserID      string `json:"user_id"`
	DeviceID    string `json:"device_id"`
	AccessToken string `json:"access_token"`
}

type deviceResponse struct {
	DeviceID    string `json:"device_id"`
	DisplayName string `json:"display_name,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, errcode, msg string) {
	writeJSON(w, status, errorResponse{ErrCode: errcode, Error: msg})
}

// writeServiceError translates accounts-service errors into the wire
// error codes. Backend diagnostics never reach the client; anything
// unexpected becomes M_UNKNOWN.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorInvalidUsername):
		writeError(w, http.StatusBadRequest, errcodeInvalidUsername, "The desired username is not a valid user name.")
	case errors.Is(err, common.ErrorUserInUse):
		writeError(w, http.StatusBadRequest, errcodeUserInUse, "Desired user ID is already taken.")
	case errors.Is(err, common.ErrorMissingPassword):
		writeError(w, http.StatusBadRequest, errcodeMissingParam, "Missing password.")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusForbidden, errcodeForbidden, "Invalid username or password.")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, errcodeNotFound, "Not found.")
	default:
		writeError(w, http.StatusInternalServerError, errcodeUnknown, "Internal server error.")
	}
}

// maxRequestBytes bounds request bodies; every client-API payload is a
// small JSON object.
const maxRequestBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, errcodeBadJSON, "Malformed request body.")
		return false
	}
	return true
}
