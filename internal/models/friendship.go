package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "PENDING"
	FriendRequestStatusAccepted FriendRequestStatus = "ACCEPTED"
	FriendRequestStatusRejected FriendRequestStatus = "REJECTED"
)

// FriendRequest is a proposal from SenderID to RecipientID. Accepted and
// rejected requests are kept; cancelled ones are deleted.
type FriendRequest struct {
	ID          uuid.UUID           `json:"id"`
	SenderID    string              `json:"sender_id"`
	RecipientID string              `json:"recipient_id"`
	Status      FriendRequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// FriendRequestWithUser embeds the counterpart of the request: the sender for
// incoming requests, the recipient for outgoing ones.
type FriendRequestWithUser struct {
	FriendRequest
	User User `json:"user"`
}

// OrderedPair returns a and b sorted so that the first is the smaller id.
func OrderedPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
