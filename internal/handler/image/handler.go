package image

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/flash-studio/backend/internal/service/ai"
	"github.com/zhouzirui/flash-studio/backend/pkg/utils"
)

// Generator 抽象图像生成，便于测试与替换实现
type Generator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
}

// Handler 图像生成面板的HTTP处理器
type Handler struct {
	generator Generator
}

// New 创建图像处理器
func New(generator Generator) *Handler {
	return &Handler{generator: generator}
}

// RegisterRoutes 注册图像相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/image", h.handleGenerate)
}

// handleGenerate 处理单次图像生成请求
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Prompt) == "" {
		utils.RespondError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	data, mimeType, err := h.generator.GenerateImage(r.Context(), payload.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrMissingCredential):
			utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			utils.RespondError(w, http.StatusBadGateway, "image generation failed: "+err.Error())
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"prompt":   payload.Prompt,
		"mimeType": mimeType,
		"data":     data,
	})
}
