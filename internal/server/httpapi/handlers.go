package httpapi

import (
	"net/http"

	"github.com/avolkhin/roost/internal/server/accounts"
	"github.com/avolkhin/roost/internal/server/models"
)

// Supported client-server API versions.
var supportedVersions = []string{"r0.6.0", "r0.6.1"}

// Login flow types offered by this server.
const (
	loginTypePassword = "m.login.password"
	loginTypeToken    = "m.login.token"
)

func (s *Server) handleWellKnown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"m.homeserver": map[string]string{
			"base_url": "https://" + s.serverName,
		},
	})
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"versions": supportedVersions})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if kind := r.URL.Query().Get("kind"); kind != "" && kind != "user" {
		writeError(w, http.StatusBadRequest, errcodeUnrecognized, "Only user registration is supported.")
		return
	}

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := s.accounts.Register(r.Context(), accounts.RegisterParams{
		Username:                 req.Username,
		Password:                 req.Password,
		DeviceID:                 req.DeviceID,
		InitialDeviceDisplayName: req.InitialDeviceDisplayName,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:      session.UserID,
		DeviceID:    session.DeviceID,
		AccessToken: session.AccessToken,
	})
}

func (s *Server) handleAvailable(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, errcodeMissingParam, "Missing username.")
		return
	}

	available, err := s.accounts.Available(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !available {
		writeError(w, http.StatusBadRequest, errcodeUserInUse, "Desired user ID is already taken.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"available": true})
}

func (s *Server) handleLoginInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"flows": []map[string]string{
			{"type": loginTypePassword},
			{"type": loginTypeToken},
		},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		session *accounts.Session
		err     error
	)
	switch req.Type {
	case loginTypePassword:
		session, err = s.accounts.Login(r.Context(), req.identifierUser(), req.Password, req.DeviceID, req.InitialDeviceDisplayName)
	case loginTypeToken:
		session, err = s.accounts.LoginWithToken(r.Context(), req.identifierUser(), req.Token, req.DeviceID, req.InitialDeviceDisplayName)
	default:
		writeError(w, http.StatusBadRequest, errcodeUnrecognized, "Unsupported login type.")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:      session.UserID,
		DeviceID:    session.DeviceID,
		AccessToken: session.AccessToken,
	})
}

func (s *Server) handleGetLoginToken(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())

	token, err := s.accounts.IssueLoginToken(r.Context(), principal)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"login_token":   token,
		"expires_in_ms": s.otpValidity.Milliseconds(),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())

	if err := s.accounts.Logout(r.Context(), principal); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())

	if err := s.accounts.LogoutAll(r.Context(), principal); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleWhoami(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"user_id": principal.UserID})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())

	devices, err := s.accounts.Devices(r.Context(), principal)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		resp = append(resp, deviceResponse{DeviceID: d.DeviceID, DisplayName: d.DisplayName})
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": resp})
}

func (s *Server) handleGetDisplayName(w http.ResponseWriter, r *http.Request) {
	name, err := s.accounts.DisplayName(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"displayname": name})
}

func (s *Server) handleSetDisplayName(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFromContext(r.Context())

	if !s.sameUser(r.PathValue("userID"), principal.UserID) {
		writeError(w, http.StatusForbidden, errcodeForbidden, "Cannot change another user's profile.")
		return
	}

	var req struct {
		DisplayName string `json:"displayname"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.accounts.SetDisplayName(r.Context(), principal, req.DisplayName); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// sameUser reports whether the path identifier names the authenticated
// user on this homeserver. The path may carry either a full user ID or
// a bare localpart; a full ID with a foreign domain never matches.
func (s *Server) sameUser(pathID, userID string) bool {
	pathLocalpart, err := models.LocalpartOn(pathID, s.serverName)
	if err != nil {
		return false
	}
	localpart, err := models.LocalpartOf(userID)
	if err != nil {
		return false
	}
	return pathLocalpart == localpart
}
