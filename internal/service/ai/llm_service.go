package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/money-wrapped/backend/internal/config"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/chat"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/debate"
)

// Service encapsulates AI-powered persona replies and debate turns
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	prompts   *PersonaPromptManager
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates a new AI service instance
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg)
}

// NewServiceWithModel builds the service around an existing chat model
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, cfg config.AIConfig) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		prompts:   NewPersonaPromptManager(),
		chain:     runnable,
	}, nil
}

// StreamingEnabled 指示是否开启 SSE 流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// GetChatModel 返回底层的聊天模型
func (s *Service) GetChatModel() model.ChatModel {
	return s.chatModel
}

// Respond generates one debate turn. It satisfies debate.Responder.
func (s *Service) Respond(ctx context.Context, req debate.TurnRequest) (string, error) {
	input := map[string]any{
		"system":  s.prompts.BuildDebatePrompt(&req.Persona, req.Round),
		"history": []*schema.Message{},
		"query":   fmt.Sprintf("Financial Question: %s\n\nContext: %s", req.Question, req.Context),
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run debate chain: %w", err)
	}

	text := strings.TrimSpace(response.Content)
	log.Printf("[ai] generated debate turn persona=%s round=%s length=%d", req.Persona.Type, req.Round, len(text))
	return text, nil
}

// Reply generates a chat reply for a persona. It satisfies chat.Replier.
func (s *Service) Reply(ctx context.Context, p *persona.Persona, history []chat.Message, userMessage string) (string, error) {
	response, err := s.chain.Invoke(ctx, s.buildChainInput(p, history, userMessage))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Printf("[ai] generated chat reply persona=%s length=%d", p.Type, len(response.Content))
	return strings.TrimSpace(response.Content), nil
}

// StreamReply streams chat reply chunks via the configured chain.
func (s *Service) StreamReply(ctx context.Context, p *persona.Persona, history []chat.Message, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(p, history, userMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}
	return stream, nil
}

func (s *Service) buildChainInput(p *persona.Persona, history []chat.Message, userMessage string) map[string]any {
	return map[string]any{
		"system":  s.prompts.BuildChatPrompt(p),
		"history": buildHistoryMessages(history),
		"query":   userMessage,
	}
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	const historyLimit = 10

	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderCharacter:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
