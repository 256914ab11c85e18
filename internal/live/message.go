package live

import (
	"encoding/json"
	"time"

	"github.com/dom/rfid-attendance/internal/domain"
)

type MessageType string

const (
	MessageTypeHello      MessageType = "HELLO"
	MessageTypeAttendance MessageType = "ATTENDANCE"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type HelloPayload struct {
	Clients int `json:"clients"`
}

func newAttendanceMessage(event domain.AttendanceEvent) ([]byte, error) {
	msg, err := NewMessage(MessageTypeAttendance, event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
