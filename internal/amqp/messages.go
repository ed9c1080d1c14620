package amqp

import (
	"encoding/json"
	"time"
)

// SessionChangedMessage announces that a process changed the shared session.
// Receivers only use it as a hint to re-check the session themselves.
type SessionChangedMessage struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id,omitempty"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSessionChangedMessage creates a message stamped with the current time
func NewSessionChangedMessage(kind, userID, source string) *SessionChangedMessage {
	return &SessionChangedMessage{
		Kind:      kind,
		UserID:    userID,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SessionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SessionChangedMessageFromJSON creates a message from JSON bytes
func SessionChangedMessageFromJSON(data []byte) (*SessionChangedMessage, error) {
	var msg SessionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
