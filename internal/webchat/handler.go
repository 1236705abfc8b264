package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/assistaura/leadchat/internal/conversation"
	"github.com/assistaura/leadchat/pkg/logging"
)

const historyLimit = 100

// HistoryReader loads a mirrored transcript for sessions no longer in memory.
type HistoryReader interface {
	List(ctx context.Context, sessionID string, limit int64) ([]conversation.Turn, error)
}

// Handler serves the chat widget over HTTP and WebSocket.
type Handler struct {
	sessions *Registry
	history  HistoryReader
	logger   *logging.Logger
	// sleep honours pacing delays; swapped in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewHandler creates a web chat handler. history may be nil.
func NewHandler(sessions *Registry, history HistoryReader, logger *logging.Logger) *Handler {
	if sessions == nil {
		panic("webchat: session registry required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		sessions: sessions,
		history:  history,
		logger:   logger,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type sessionResponse struct {
	SessionID string           `json:"session_id"`
	Mode      string           `json:"mode"`
	Busy      bool             `json:"busy"`
	Messages  []HistoryMessage `json:"messages"`
	LeadID    string           `json:"lead_id,omitempty"`
}

// HandleCreateSession starts a session and returns its greeting transcript.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	orch := h.sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: orch.Session().ID,
		Mode:      string(orch.Mode()),
		Messages:  historyMessages(orch.Transcript()),
	})
}

// HandleMessage is the HTTP path for submitting a visitor turn. The response
// carries the new turns with their pacing hints.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	orch, _ := h.sessions.GetOrCreate(req.SessionID)
	reply, err := orch.Submit(r.Context(), req.Text)
	switch {
	case errors.Is(err, conversation.ErrBlankInput):
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	case errors.Is(err, conversation.ErrBusy):
		http.Error(w, "a reply is still in progress", http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("webchat: submit failed", "error", err, "session_id", orch.Session().ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := sessionResponse{
		SessionID: orch.Session().ID,
		Mode:      string(reply.Mode),
		Busy:      orch.IsBusy(),
		Messages:  pacedMessages(reply.Turns),
	}
	if reply.Lead != nil {
		resp.LeadID = reply.Lead.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHistory returns chat history for a session, falling back to the
// mirror when the session is not live in this process.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	turns, err := h.loadHistory(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("webchat: failed to load history", "error", err, "session_id", sessionID)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   historyMessages(turns),
	})
}

func (h *Handler) loadHistory(ctx context.Context, sessionID string) ([]conversation.Turn, error) {
	if orch, ok := h.sessions.Get(sessionID); ok {
		return orch.Transcript(), nil
	}
	if h.history == nil {
		return []conversation.Turn{}, nil
	}
	return h.history.List(ctx, sessionID, historyLimit)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	orch, created := h.sessions.GetOrCreate(r.URL.Query().Get("session"))
	sessionID := orch.Session().ID

	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:      "session",
		SessionID: sessionID,
		Mode:      string(orch.Mode()),
	})
	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:     "history",
		Messages: historyMessages(orch.Transcript()),
	})

	h.logger.Info("webchat: connection opened", "session_id", sessionID, "new_session", created)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		case "message":
			if err := h.processMessage(ctx, conn, orch, msg.Text); err != nil {
				h.logger.Debug("webchat: send failed", "session_id", sessionID, "error", err)
				return
			}
		}
	}
}

// processMessage submits text and streams the assistant turns back, pausing
// for each turn's pacing hint behind a typing indicator.
func (h *Handler) processMessage(ctx context.Context, conn *websocket.Conn, orch *conversation.Orchestrator, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if orch.IsBusy() {
		return websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "Please wait for the current reply."})
	}
	if err := websocket.JSON.Send(conn, OutboundMessage{Type: "typing"}); err != nil {
		return err
	}

	reply, err := orch.Submit(ctx, text)
	switch {
	case errors.Is(err, conversation.ErrBlankInput):
		return nil
	case errors.Is(err, conversation.ErrBusy):
		return websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "Please wait for the current reply."})
	case err != nil:
		h.logger.Error("webchat: submit failed", "error", err, "session_id", orch.Session().ID)
		return websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "Sorry, something went wrong. Please try again."})
	}

	for _, pt := range reply.Turns {
		if pt.Turn.Speaker != conversation.SpeakerAssistant {
			continue
		}
		if pt.Delay > 0 {
			if err := websocket.JSON.Send(conn, OutboundMessage{Type: "typing"}); err != nil {
				return err
			}
			if err := h.sleep(ctx, pt.Delay); err != nil {
				return err
			}
		}
		if err := websocket.JSON.Send(conn, turnMessage(pt.Turn)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
