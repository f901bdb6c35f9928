package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hellavor/careers-api/internal/auth"
	"github.com/hellavor/careers-api/internal/metrics"
	"github.com/hellavor/careers-api/internal/services"
)

// AuthHandler handles admin login.
type AuthHandler struct {
	service       services.AuthServiceProvider
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. secureCookies sets the Secure flag
// on the token cookie and should be true in production.
func NewAuthHandler(service services.AuthServiceProvider, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookies: secureCookies}
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login handles admin authentication and JWT generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	res, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			metrics.RecordLogin("unauthorized")
			log.Warn().Str("username", payload.Username).Str("remote_addr", r.RemoteAddr).Msg("Failed login attempt")
		} else {
			metrics.RecordLogin("error")
		}
		writeServiceError(w, r, err, "Failed to log in")
		return
	}
	metrics.RecordLogin("success")
	log.Info().Str("username", res.Username).Msg("Admin logged in")

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    res.Token,
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Message:   "Login successful",
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	})
}

// GetMe returns the admin the presented token was issued to.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		writeMessage(w, http.StatusInternalServerError, false, "Could not retrieve user from token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username":  claims.Username,
		"expiresAt": claims.ExpiresAt.Time,
	})
}
