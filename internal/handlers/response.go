package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/HammerMeetNail/splitledger/internal/logging"
	"github.com/HammerMeetNail/splitledger/internal/services"
)

const maxRequestBody = 64 * 1024

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeServiceError maps service sentinels onto HTTP statuses. Anything
// unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, services.ErrAuthenticationRequired),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrExpenseNotFound):
		writeError(w, http.StatusNotFound, "Expense not found")
	case errors.Is(err, services.ErrFriendRequestNotFound):
		writeError(w, http.StatusNotFound, "Friend request not found")
	case errors.Is(err, services.ErrNotExpenseOwner),
		errors.Is(err, services.ErrParticipantNotFriend):
		writeError(w, http.StatusForbidden, sentence(err))
	case errors.Is(err, services.ErrCannotFriendSelf):
		writeError(w, http.StatusBadRequest, "Cannot send friend request to yourself")
	case errors.Is(err, services.ErrValidationFailed):
		writeError(w, http.StatusBadRequest, sentence(err))
	case errors.Is(err, services.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "Friend request already exists")
	case errors.Is(err, services.ErrAlreadyFriends):
		writeError(w, http.StatusConflict, "Already friends")
	default:
		logging.Error("Error "+action, map[string]interface{}{
			"error":  err.Error(),
			"method": r.Method,
			"path":   r.URL.Path,
		})
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// sentence capitalises an error message for display.
func sentence(err error) string {
	msg := err.Error()
	first, size := utf8.DecodeRuneInString(msg)
	if first == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(first)) + msg[size:]
}

// requireUser writes a 401 and reports false when the request carries no principal.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return user.ID, true
}

// pathParam returns a trimmed, non-empty path wildcard.
func pathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := strings.TrimSpace(r.PathValue(name))
	if value == "" {
		writeError(w, http.StatusBadRequest, "Invalid "+label)
		return "", false
	}
	return value, true
}
