package ws

import (
	"time"

	"transfer-status-backend/internal/format"
	"transfer-status-backend/internal/models"
	"transfer-status-backend/internal/resolver"
)

// Outbound message types.
const (
	TypeConnected = "connected"
	TypeSummary   = "summary"
	TypeNotice    = "notice"
	TypePong      = "pong"
	TypeError     = "error"
)

// Inbound message types.
const (
	TypeRefresh = "refresh"
	TypePing    = "ping"
)

// Error codes for structured error responses.
const (
	ErrorCodeInvalidJSON  = "invalid_json"
	ErrorCodeUnknownType  = "unknown_message_type"
	ErrorCodeEmptyMessage = "empty_message"
)

// Message is everything the server sends.
type Message struct {
	Type        string                  `json:"type"`
	ClientID    string                  `json:"clientId,omitempty"`
	Source      resolver.Source         `json:"source,omitempty"`
	Data        *models.TransferSummary `json:"data,omitempty"`
	Display     *format.Display         `json:"display,omitempty"`
	Notice      string                  `json:"notice,omitempty"`
	Unreachable bool                    `json:"unreachable,omitempty"`
	Code        string                  `json:"code,omitempty"`
	Timestamp   int64                   `json:"timestamp"`
}

// ClientMessage is everything a client may send.
type ClientMessage struct {
	Type string `json:"type"`
}

func connectedMessage(id string) Message {
	return Message{Type: TypeConnected, ClientID: id, Timestamp: time.Now().UnixMilli()}
}

func summaryMessage(v resolver.View) Message {
	return Message{
		Type:      TypeSummary,
		Source:    v.Source,
		Data:      v.Summary,
		Display:   &v.Display,
		Notice:    v.Notice,
		Timestamp: time.Now().UnixMilli(),
	}
}

func noticeMessage(notice string, unreachable bool) Message {
	return Message{Type: TypeNotice, Notice: notice, Unreachable: unreachable, Timestamp: time.Now().UnixMilli()}
}

func pongMessage() Message {
	return Message{Type: TypePong, Timestamp: time.Now().UnixMilli()}
}

func errorMessage(code, text string) Message {
	return Message{Type: TypeError, Code: code, Notice: text, Timestamp: time.Now().UnixMilli()}
}
