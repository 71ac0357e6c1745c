package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/money-wrapped/backend/internal/handler/chat"
	"github.com/zhouzirui/money-wrapped/backend/internal/handler/debate"
	"github.com/zhouzirui/money-wrapped/backend/internal/handler/finance"
	"github.com/zhouzirui/money-wrapped/backend/internal/handler/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/handler/settings"
	"github.com/zhouzirui/money-wrapped/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/money-wrapped/backend/internal/middleware"
	personaModel "github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	aiService "github.com/zhouzirui/money-wrapped/backend/internal/service/ai"
	chatService "github.com/zhouzirui/money-wrapped/backend/internal/service/chat"
	debateService "github.com/zhouzirui/money-wrapped/backend/internal/service/debate"
	settingsService "github.com/zhouzirui/money-wrapped/backend/internal/service/settings"
	"github.com/zhouzirui/money-wrapped/backend/pkg/utils"
)

// Services groups the collaborators exposed over HTTP. AI may be nil.
type Services struct {
	Personas      personaModel.Store
	Summary       finance.SummaryService
	Settings      *settingsService.Service
	Chat          *chatService.Service
	AI            *aiService.Service
	Debate        *debateService.Orchestrator
	DefaultUserID string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// A nil *ai.Service must not leak into the interfaces below as a non-nil value.
	var (
		responder debateService.Responder
		replier   chatService.Replier
		generator stream.Generator
	)
	if svc.AI != nil {
		responder = svc.AI
		replier = svc.AI
		generator = svc.AI
	}

	personaHandler := persona.New(svc.Personas)
	financeHandler := finance.New(svc.Summary, svc.Settings, svc.DefaultUserID)
	settingsHandler := settings.New(svc.Settings, svc.DefaultUserID)
	debateHandler := debate.New(svc.Personas, responder, svc.Debate)
	chatHandler := chat.New(svc.Chat, svc.Personas, replier)

	var streamHandler *stream.Handler
	if generator != nil {
		streamHandler = stream.New(generator, svc.Chat, svc.Personas)
	}

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		financeHandler.RegisterRoutes(api)
		settingsHandler.RegisterRoutes(api)
		debateHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)

		api.Get("/chat/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if streamHandler == nil {
				utils.RespondAIUnavailable(w, "streaming")
				return
			}
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				switch {
				case errors.Is(err, chatService.ErrSessionNotFound):
					utils.RespondError(w, http.StatusNotFound, err.Error())
				case errors.Is(err, chatService.ErrEmptyMessage):
					utils.RespondError(w, http.StatusBadRequest, err.Error())
				default:
					log.Printf("[stream] error handling request: %v", err)
					utils.RespondError(w, http.StatusInternalServerError, "streaming failed")
				}
			}
		})

		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status": "ok",
				"ai":     svc.AI != nil,
			})
		})
	})

	return r
}
