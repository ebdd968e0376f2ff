package handlers

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicsetu/civic-voice-api/api"
	"github.com/civicsetu/civic-voice-api/config"
)

var errInvalidStaffCredentials = errors.New("invalid staff credentials")

// Staff handles staff console authentication
type Staff struct {
	Config config.Config
}

type staffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type staffLoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// StaffLoginHandler checks the configured staff credentials and mints a
// 24-hour access token for the dashboard and reclassification routes.
func (s Staff) StaffLoginHandler(w http.ResponseWriter, r *http.Request) {
	var body staffLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode login body", http.StatusBadRequest, w, err)
		return
	}

	if !s.credentialsValid(body.Email, body.Password) {
		zap.S().Warnw("staff login rejected", "email", body.Email)
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, errInvalidStaffCredentials)
		return
	}

	token, err := api.IssueStaffToken([]byte(s.Config.StaffJWTSecret), body.Email)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(staffLoginResponse{Token: token, Email: body.Email})
	if err != nil {
		config.ErrorStatus("failed to marshal login response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (s Staff) credentialsValid(email, password string) bool {
	if s.Config.StaffEmail == "" || s.Config.StaffPasswordHash == "" {
		return false
	}

	// hash both sides so the comparison is constant-time regardless of length
	wantEmail := sha256.Sum256([]byte(s.Config.StaffEmail))
	gotEmail := sha256.Sum256([]byte(email))
	if subtle.ConstantTimeCompare(wantEmail[:], gotEmail[:]) != 1 {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(s.Config.StaffPasswordHash), []byte(password)) == nil
}
