package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/flash-studio/backend/internal/model/voice"
	"github.com/zhouzirui/flash-studio/backend/internal/service/ai"
	"github.com/zhouzirui/flash-studio/backend/pkg/utils"
)

// Synthesizer 抽象语音合成，便于测试与替换实现
type Synthesizer interface {
	GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Handler 语音面板的HTTP处理器
type Handler struct {
	synth Synthesizer
}

// New 创建语音处理器
func New(synth Synthesizer) *Handler {
	return &Handler{synth: synth}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Get("/voices", h.handleListVoices)
		speechRouter.Post("/synthesize", h.handleSynthesize)
	})
}

// handleListVoices 返回静态voice目录
func (h *Handler) handleListVoices(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, voice.Catalog())
}

// handleSynthesize 处理文本转语音请求，返回完整音频负载
func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	v, ok := voice.FindByID(payload.Voice)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "unknown voice: "+payload.Voice)
		return
	}

	audio, err := h.synth.GenerateSpeech(r.Context(), payload.Text, v.ID)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrMissingCredential):
			utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			utils.RespondError(w, http.StatusBadGateway, "speech synthesis failed: "+err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		// 连接已断开，无法再回写错误。
		return
	}
}
