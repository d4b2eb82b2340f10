package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/flash-studio/backend/internal/service/capture"
	"github.com/zhouzirui/flash-studio/backend/internal/service/conversation"
	"github.com/zhouzirui/flash-studio/backend/pkg/utils"
)

// maxAttachmentBytes 限制附件上传大小。
const maxAttachmentBytes = 32 << 20

// Handler 会话生命周期与附件的HTTP处理器
type Handler struct {
	manager *conversation.Manager
}

// New 创建聊天处理器
func New(manager *conversation.Manager) *Handler {
	return &Handler{manager: manager}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/session/{sessionID}/persona", h.handleSwitchPersona)
	r.Get("/session/{sessionID}/transcript", h.handleTranscript)
	r.Post("/session/{sessionID}/attachment", h.handleAttach)
	r.Delete("/session/{sessionID}/attachment", h.handleDiscardAttachment)
}

// handleCreateSession 创建会话并返回带开场白的transcript
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctrl, err := h.manager.Create(payload.PersonaID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"session":    ctrl.Session(),
		"transcript": ctrl.Transcript(),
	})
}

// handleSwitchPersona 切换会话绑定的persona，并重置transcript
func (h *Handler) handleSwitchPersona(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		PersonaID string `json:"personaId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.PersonaID == "" {
		utils.RespondError(w, http.StatusBadRequest, "personaId is required")
		return
	}

	ctrl, err := h.manager.SwitchPersona(sessionID, payload.PersonaID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session":    ctrl.Session(),
		"transcript": ctrl.Transcript(),
	})
}

// handleTranscript 返回当前transcript副本
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.manager.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, ctrl.Transcript())
}

// handleAttach 上传待发送附件（multipart字段file）
func (h *Handler) handleAttach(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.manager.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	att, err := capture.FromFile(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctrl.Attach(att)
	utils.RespondJSON(w, http.StatusAccepted, map[string]any{
		"kind":     att.Kind,
		"mimeType": att.MIMEType,
		"bytes":    len(att.Data),
	})
}

// handleDiscardAttachment 丢弃待发送附件
func (h *Handler) handleDiscardAttachment(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.manager.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	ctrl.DiscardAttachment()
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrPersonaRequired),
		errors.Is(err, conversation.ErrPersonaUnknown):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
