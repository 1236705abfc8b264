package webchat

import (
	"time"

	"github.com/assistaura/leadchat/internal/conversation"
)

// InboundMessage is what the widget sends over the socket.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string           `json:"type"` // "session", "history", "typing", "message", "error", "pong"
	ID        string           `json:"id,omitempty"`
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"` // "assistant" or "user"
	SessionID string           `json:"session_id,omitempty"`
	Mode      string           `json:"mode,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a turn as the widget renders it. DelayMs is only set on
// turns returned by a submission.
type HistoryMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	DelayMs   int64  `json:"delay_ms,omitempty"`
}

func historyMessage(turn conversation.Turn) HistoryMessage {
	return HistoryMessage{
		ID:        turn.ID,
		Role:      turn.Speaker.Role(),
		Text:      turn.Text,
		Timestamp: turn.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func historyMessages(turns []conversation.Turn) []HistoryMessage {
	out := make([]HistoryMessage, 0, len(turns))
	for _, turn := range turns {
		out = append(out, historyMessage(turn))
	}
	return out
}

func pacedMessages(turns []conversation.PacedTurn) []HistoryMessage {
	out := make([]HistoryMessage, 0, len(turns))
	for _, pt := range turns {
		msg := historyMessage(pt.Turn)
		msg.DelayMs = pt.Delay.Milliseconds()
		out = append(out, msg)
	}
	return out
}

func turnMessage(turn conversation.Turn) OutboundMessage {
	return OutboundMessage{
		Type:      "message",
		ID:        turn.ID,
		Role:      turn.Speaker.Role(),
		Text:      turn.Text,
		Timestamp: turn.CreatedAt.UTC().Format(time.RFC3339),
	}
}
