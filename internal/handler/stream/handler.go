package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/zhouzirui/flash-studio/backend/internal/service/conversation"
	"github.com/zhouzirui/flash-studio/backend/pkg/utils"
)

// Handler streams model replies over Server-Sent Events.
type Handler struct {
	manager *conversation.Manager
}

// New creates a new stream handler.
func New(manager *conversation.Manager) *Handler {
	return &Handler{manager: manager}
}

// StreamResponse represents a streaming response chunk.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest submits the user message to the conversation and folds
// each streamed fragment into an SSE delta event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	ctrl, err := h.manager.Get(sessionID)
	if err != nil {
		utils.SetupSSEHeaders(w)
		h.sendSSEError(w, flusher, err.Error())
		return err
	}

	utils.SetupSSEHeaders(w)

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Content:   fmt.Sprintf("%s的回复:", ctrl.Persona().Name),
	})

	reply, err := ctrl.Send(ctx, userMessage, func(delta string) {
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "delta",
			SessionID: sessionID,
			Content:   delta,
		})
	})
	if errors.Is(err, conversation.ErrSuperseded) {
		// Persona switched mid-stream; the transcript was reset, just end.
		h.sendSSE(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})
		return nil
	}
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("AI generation failed: %v", err))
		return err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   reply,
	})
	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed response for session=%s, persona=%s", sessionID, ctrl.Persona().ID)
	return nil
}

// sendSSE sends a Server-Sent Event.
func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

// sendSSEError sends an error via Server-Sent Events.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
