package models

import "time"

type EventType string

const (
	EventExpenseCreated        EventType = "expense.created"
	EventExpenseDeleted        EventType = "expense.deleted"
	EventFriendRequestSent     EventType = "friend_request.sent"
	EventFriendRequestAccepted EventType = "friend_request.accepted"
	EventFriendRequestRejected EventType = "friend_request.rejected"
	EventFriendRequestCanceled EventType = "friend_request.canceled"
)

// Event is published after a ledger mutation commits. Participants lists every
// user whose derived views (balances, stats) the mutation touches.
type Event struct {
	Type         EventType `json:"type"`
	ActorID      string    `json:"actor_id"`
	SubjectID    string    `json:"subject_id"`
	Participants []string  `json:"participants,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
