package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/HammerMeetNail/splitledger/internal/models"
	"github.com/HammerMeetNail/splitledger/internal/services"
)

type FriendHandler struct {
	friendService services.FriendServiceInterface
}

func NewFriendHandler(friendService services.FriendServiceInterface) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

type SendRequestRequest struct {
	Email string `json:"email"`
}

type FriendListResponse struct {
	Friends []models.User `json:"friends"`
}

type FriendRequestListResponse struct {
	Requests []models.FriendRequestWithUser `json:"requests"`
}

type FriendRequestResponse struct {
	Request *models.FriendRequest `json:"request,omitempty"`
	Friend  *models.User          `json:"friend,omitempty"`
	Message string                `json:"message,omitempty"`
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "listing friends", err)
		return
	}
	if friends == nil {
		friends = []models.User{}
	}

	writeJSON(w, http.StatusOK, FriendListResponse{Friends: friends})
}

func (h *FriendHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, "listing incoming requests", h.friendService.ListIncoming)
}

func (h *FriendHandler) Outgoing(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, "listing outgoing requests", h.friendService.ListOutgoing)
}

func (h *FriendHandler) listRequests(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	list func(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error),
) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	requests, err := list(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, action, err)
		return
	}
	if requests == nil {
		requests = []models.FriendRequestWithUser{}
	}

	writeJSON(w, http.StatusOK, FriendRequestListResponse{Requests: requests})
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SendRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	request, err := h.friendService.SendRequest(r.Context(), userID, email)
	if err != nil {
		writeServiceError(w, r, "sending friend request", err)
		return
	}

	writeJSON(w, http.StatusCreated, FriendRequestResponse{Request: request, Message: "Friend request sent"})
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	senderID, ok := pathParam(w, r, "senderId", "sender ID")
	if !ok {
		return
	}

	friend, err := h.friendService.AcceptRequest(r.Context(), userID, senderID)
	if err != nil {
		writeServiceError(w, r, "accepting friend request", err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestResponse{Friend: friend, Message: "Friend request accepted"})
}

func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	senderID, ok := pathParam(w, r, "senderId", "sender ID")
	if !ok {
		return
	}

	if err := h.friendService.RejectRequest(r.Context(), userID, senderID); err != nil {
		writeServiceError(w, r, "rejecting friend request", err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestResponse{Message: "Friend request rejected"})
}

func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	recipientID, ok := pathParam(w, r, "recipientId", "recipient ID")
	if !ok {
		return
	}

	if err := h.friendService.CancelRequest(r.Context(), userID, recipientID); err != nil {
		writeServiceError(w, r, "canceling friend request", err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestResponse{Message: "Friend request canceled"})
}
