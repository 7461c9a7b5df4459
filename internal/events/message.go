package events

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/splitledger/internal/models"
)

// Message is the wire envelope of a ledger event. MessageID lets consumers
// drop redeliveries.
type Message struct {
	MessageID uuid.UUID `json:"message_id"`
	models.Event
}

func NewMessage(event models.Event) *Message {
	return &Message{MessageID: uuid.New(), Event: event}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
