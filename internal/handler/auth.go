package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rowanvale/daybook/internal/auth"
	"github.com/rowanvale/daybook/internal/email"
	"github.com/rowanvale/daybook/internal/middleware"
	"github.com/rowanvale/daybook/internal/panel"
	"github.com/rowanvale/daybook/internal/store"
)

const (
	minPasswordLength = 8
	maxCodeAttempts   = 5
)

type AuthHandler struct {
	users      *store.UserStore
	sessions   *store.SessionStore
	magicLinks *store.MagicLinkStore
	panels     *panel.Registry
	email      *email.Client
	logger     *slog.Logger
}

func NewAuthHandler(
	users *store.UserStore,
	sessions *store.SessionStore,
	magicLinks *store.MagicLinkStore,
	panels *panel.Registry,
	emailClient *email.Client,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:      users,
		sessions:   sessions,
		magicLinks: magicLinks,
		panels:     panels,
		email:      emailClient,
		logger:     logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register creates an unverified account and emails a verification code.
// The response is the same whether or not the email is already taken, so
// the endpoint cannot be used to probe for accounts.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a valid email is required"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if len(req.Password) < minPasswordLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("look up user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}

	if existing == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.logger.Error("hash password", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
			return
		}
		if _, err := h.users.Create(req.Email, req.Name, string(hash)); err != nil {
			h.logger.Error("create user", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
			return
		}
		h.sendCode(req.Email, "register")
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verification_sent"})
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Verify checks the emailed code, marks the account verified and opens a
// session.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and code are required"})
		return
	}

	ml, err := h.magicLinks.GetLatestByEmail(req.Email)
	if err != nil {
		h.logger.Error("look up code", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "verification failed"})
		return
	}
	if ml == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code expired, request a new one"})
		return
	}
	if ml.Attempts >= maxCodeAttempts {
		h.magicLinks.MarkUsed(ml.ID)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "too many attempts, request a new code"})
		return
	}
	if ml.Token != req.Code {
		h.magicLinks.IncrementAttempts(ml.ID)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect code"})
		return
	}

	if err := h.magicLinks.MarkUsed(ml.ID); err != nil {
		h.logger.Error("mark code used", "error", err)
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil || user == nil {
		h.logger.Error("look up user for verification", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "verification failed"})
		return
	}

	if user.VerifiedAt == nil {
		if err := h.users.MarkVerified(user.ID); err != nil {
			h.logger.Error("mark user verified", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "verification failed"})
			return
		}
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "verification failed"})
		return
	}

	setSessionCookie(w, sess.Token, sess.ExpiresAt)
	writeJSON(w, http.StatusOK, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and opens a session for a verified account.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("look up user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}
	if user.VerifiedAt == nil {
		// Re-send the code so a half-finished registration can complete.
		h.sendCode(user.Email, "register")
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "email not verified, a new code was sent"})
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}

	setSessionCookie(w, sess.Token, sess.ExpiresAt)
	writeJSON(w, http.StatusOK, user)
}

// Logout deletes the session and its panel state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.SessionToken(r.Context())
	if token != "" {
		if err := h.sessions.Delete(token); err != nil {
			h.logger.Error("delete session", "error", err)
		}
		h.panels.Drop(token)
	}

	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) sendCode(toEmail, purpose string) {
	ml, err := h.magicLinks.Create(toEmail, purpose)
	if err != nil {
		h.logger.Error("create verification code", "error", err)
		return
	}
	if err := h.email.SendVerificationCode(toEmail, ml.Token, purpose); err != nil {
		h.logger.Error("send verification code", "error", err)
	}
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
