package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/HammerMeetNail/splitledger/internal/models"
	"github.com/HammerMeetNail/splitledger/internal/services"
)

const (
	SessionCookieName = "session_token"
	cookieMaxAge      = 30 * 24 * 60 * 60 // 30 days
)

// GatewayTokenHeader carries the shared secret of the identity gateway.
const GatewayTokenHeader = "X-Gateway-Token"

type AuthHandler struct {
	authService  services.AuthServiceInterface
	secure       bool // Use secure cookies (HTTPS only)
	gatewayToken string
}

// NewAuthHandler builds the auth endpoints. Login only accepts identities
// presented with gatewayToken; an empty token disables login.
func NewAuthHandler(authService services.AuthServiceInterface, secure bool, gatewayToken string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secure:       secure,
		gatewayToken: gatewayToken,
	}
}

// LoginRequest is the identity resolved by the upstream gateway.
type LoginRequest struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar,omitempty"`
}

type AuthResponse struct {
	User    *models.User `json:"user,omitempty"`
	Token   string       `json:"token,omitempty"`
	Message string       `json:"message,omitempty"`
}

// SessionToken extracts the session token from the Authorization header or
// the session cookie, in that order.
func SessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *AuthHandler) trustedGateway(r *http.Request) bool {
	if h.gatewayToken == "" {
		return false
	}
	presented := r.Header.Get(GatewayTokenHeader)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.gatewayToken)) == 1
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.trustedGateway(r) {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.ID == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Identity id and email are required")
		return
	}

	user, token, err := h.authService.Login(r.Context(), models.Identity{
		ID:     req.ID,
		Name:   strings.TrimSpace(req.Name),
		Email:  req.Email,
		Avatar: req.Avatar,
	})
	if err != nil {
		writeServiceError(w, r, "logging in", err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := SessionToken(r); token != "" {
		_ = h.authService.DeleteSession(r.Context(), token)
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, AuthResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: user})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0),
	})
}
