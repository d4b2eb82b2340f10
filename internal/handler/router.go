package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/flash-studio/backend/internal/handler/chat"
	imagehandler "github.com/zhouzirui/flash-studio/backend/internal/handler/image"
	"github.com/zhouzirui/flash-studio/backend/internal/handler/persona"
	speechhandler "github.com/zhouzirui/flash-studio/backend/internal/handler/speech"
	"github.com/zhouzirui/flash-studio/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/flash-studio/backend/internal/middleware"
	personaModel "github.com/zhouzirui/flash-studio/backend/internal/model/persona"
	aiService "github.com/zhouzirui/flash-studio/backend/internal/service/ai"
	"github.com/zhouzirui/flash-studio/backend/internal/service/conversation"
	"github.com/zhouzirui/flash-studio/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, manager *conversation.Manager, aiSvc *aiService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// Create handlers
	personaHandler := persona.New(personas)

	var chatHandler *chat.Handler
	var streamHandler *stream.Handler
	var wsHandler *stream.WebSocketHandler
	if manager != nil {
		chatHandler = chat.New(manager)
		streamHandler = stream.New(manager)
		wsHandler = stream.NewWebSocketHandler(manager)
	}

	r.Route("/api", func(api chi.Router) {
		// Register persona routes
		personaHandler.RegisterRoutes(api)

		// Register conversation lifecycle routes
		if chatHandler != nil {
			chatHandler.RegisterRoutes(api)
			wsHandler.RegisterWebSocketRoutes(api)
		}

		// Streaming endpoint folding model deltas into SSE
		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if streamHandler == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
				return
			}
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})

		// Register image and speech panels when the adapter is available
		if aiSvc != nil {
			imagehandler.New(aiSvc).RegisterRoutes(api)
			speechhandler.New(aiSvc).RegisterRoutes(api)
		}
	})

	return r
}
