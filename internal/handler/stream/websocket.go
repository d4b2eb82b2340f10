package stream

import (
	"errors"
	"log"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/flash-studio/backend/internal/service/conversation"
)

// WebSocketHandler WebSocket聊天传输处理器，和SSE端点承载同一份对话语义。
type WebSocketHandler struct {
	manager  *conversation.Manager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(manager *conversation.Manager) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/chat/ws/{sessionID}", h.handleWebSocket)
}

type inboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type outboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	ctrl, err := h.manager.Get(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for session=%s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error for session=%s: %v", sessionID, err)
			}
			return
		}

		var frame inboundFrame
		if err := sonic.Unmarshal(raw, &frame); err != nil {
			h.writeFrame(conn, outboundFrame{Type: "error", Error: "invalid frame"})
			continue
		}
		if frame.Type != "message" {
			h.writeFrame(conn, outboundFrame{Type: "error", Error: "unsupported frame type: " + frame.Type})
			continue
		}

		reply, err := ctrl.Send(r.Context(), frame.Content, func(delta string) {
			h.writeFrame(conn, outboundFrame{Type: "delta", Content: delta})
		})
		switch {
		case errors.Is(err, conversation.ErrSuperseded):
			h.writeFrame(conn, outboundFrame{Type: "end"})
		case err != nil:
			h.writeFrame(conn, outboundFrame{Type: "error", Error: err.Error()})
		default:
			h.writeFrame(conn, outboundFrame{Type: "message", Content: reply})
			h.writeFrame(conn, outboundFrame{Type: "end"})
		}
	}
}

func (h *WebSocketHandler) writeFrame(conn *websocket.Conn, frame outboundFrame) {
	data, err := sonic.Marshal(frame)
	if err != nil {
		log.Printf("[ws] marshal frame: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[ws] write frame: %v", err)
	}
}
