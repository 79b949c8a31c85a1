// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"poptrack/internal/middleware"
	"poptrack/internal/session"
	"poptrack/internal/store"
)

// totpIssuer is the issuer label shown in authenticator apps.
const totpIssuer = "POP Track"

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
	}
}

// Login validates credentials and opens a session. Field users are fully
// authenticated immediately; admins must still pass TOTP verification
// before the admin routes open up.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := a.userStore.FindByUsername(username)
	if err != nil {
		serverError(w, "login lookup failed", err)
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, password) {
		fail(w, http.StatusUnauthorized, "Invalid login credentials")
		return
	}

	fullName := ""
	if user.FullName != nil {
		fullName = *user.FullName
	}

	// Non-admins carry no TOTP enrollment, so their session is complete
	// at password check.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:       user.ID,
		Username:     user.Username,
		FullName:     fullName,
		EmployeeCode: user.EmployeeCode,
		IsAdmin:      user.IsAdmin,
		TwoFADone:    !user.IsAdmin,
	})
	if err != nil {
		serverError(w, "session create failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"is_admin":           user.IsAdmin,
		"requires_2fa":       user.IsAdmin,
		"requires_2fa_setup": user.Needs2FASetup(),
	})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	ok(w, "Logged out")
}

// Me returns the current session identity. Lets the client restore its
// state after a reload without re-authenticating.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"username":      sess.Username,
		"full_name":     sess.FullName,
		"employee_code": sess.EmployeeCode,
		"is_admin":      sess.IsAdmin,
		"two_fa_done":   sess.TwoFADone,
	})
}

// TwoFASetup generates a fresh TOTP secret for the logged-in admin and
// returns it together with a QR code PNG (base64) for authenticator apps.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if !sess.IsAdmin {
		fail(w, http.StatusForbidden, "Two-factor authentication is only required for admins")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Username,
	})
	if err != nil {
		serverError(w, "totp generate failed", err)
		return
	}

	if err := a.userStore.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		serverError(w, "save totp secret failed", err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		serverError(w, "qr code generation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"secret":  key.Secret(),
		"qr_code": base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// TwoFAVerify validates the submitted TOTP code and completes the admin
// session. First-time verification also enables TOTP on the account.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		serverError(w, "user lookup for 2fa failed", err)
		return
	}

	if user.TOTPSecret == nil {
		fail(w, http.StatusBadRequest, "Two-factor authentication has not been set up")
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		fail(w, http.StatusUnauthorized, "Invalid verification code")
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			serverError(w, "enable totp failed", err)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		serverError(w, "session update failed", err)
		return
	}

	slog.Info("2fa verified", "user", user.Username)
	ok(w, "Verification successful")
}

// ChangePassword updates the logged-in user's password after checking the
// current one.
func (a *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg := validateUser(sess.Username, sess.EmployeeCode, req.NewPassword, true); msg != "" {
		fail(w, http.StatusBadRequest, msg)
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		serverError(w, "user lookup for password change failed", err)
		return
	}

	if !a.userStore.CheckPassword(user, req.CurrentPassword) {
		fail(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	if err := a.userStore.ChangePassword(user.ID, req.NewPassword); err != nil {
		serverError(w, "change password failed", err)
		return
	}

	ok(w, "Password changed successfully")
}
