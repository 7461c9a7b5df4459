package handlers

import (
	"net/http"

	"github.com/HammerMeetNail/splitledger/internal/models"
	"github.com/HammerMeetNail/splitledger/internal/services"
)

type UserHandler struct {
	userService services.UserServiceInterface
}

func NewUserHandler(userService services.UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

type UserListResponse struct {
	Users []models.User `json:"users"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "listing users", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	writeJSON(w, http.StatusOK, UserListResponse{Users: users})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	id, ok := pathParam(w, r, "id", "user ID")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "getting user", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
