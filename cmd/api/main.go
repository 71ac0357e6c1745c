package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/money-wrapped/backend/internal/config"
	"github.com/zhouzirui/money-wrapped/backend/internal/handler"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/repository/transactions"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/ai"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/chat"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/classifier"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/debate"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/settings"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/summary"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())
	chatService := chat.NewService(personaStore)
	settingsService := settings.NewService(cfg.Share.BaseURL)

	// Initialize AI service
	var aiService *ai.Service
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - 请检查大模型相关环境变量")
			aiService = nil
		} else {
			log.Printf("AI service initialized successfully (provider=%s)", cfg.AI.Provider)
		}
	} else {
		log.Println("大模型凭证未配置，跳过 AI 功能初始化，辩论与聊天将使用兜底回复")
	}

	// Persona classification (LLM-based with heuristic fallback)
	var chatModelForClassifier model.ChatModel
	if aiService != nil {
		chatModelForClassifier = aiService.GetChatModel()
	}
	classifierSvc, err := classifier.NewService(ctx, chatModelForClassifier, classifier.Config{Enabled: cfg.AI.ClassifierEnabled})
	if err != nil {
		log.Fatalf("failed to initialize persona classifier: %v", err)
	}
	if classifierSvc.Enabled() {
		log.Println("Persona classifier service enabled")
	} else {
		log.Println("Persona classifier using heuristics")
	}

	repo := transactions.NewCSVRepository(cfg.Data.Dir, personaStore)
	summaryService := summary.NewService(repo, personaStore, classifierSvc)

	var responder debate.Responder
	if aiService != nil {
		responder = aiService
	}
	orchestrator := debate.New(responder, debate.Config{TurnTimeout: cfg.Debate.TurnTimeout})

	router := handler.NewRouter(handler.Services{
		Personas:      personaStore,
		Summary:       summaryService,
		Settings:      settingsService,
		Chat:          chatService,
		AI:            aiService,
		Debate:        orchestrator,
		DefaultUserID: cfg.Data.DefaultUserID,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Money Wrapped backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
