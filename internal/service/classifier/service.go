// Package classifier picks a financial persona with a language model and falls
// back to the heuristic classifier when the model is unavailable.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/zhouzirui/money-wrapped/backend/internal/analysis/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
)

// Config 控制人格分类服务的行为。
type Config struct {
	Enabled bool
}

// Service 使用大模型对消费指标进行人格分类，并在必要时回退到启发式规则。
type Service struct {
	enabled    bool
	classifier compose.Runnable[map[string]any, *schema.Message]
	fallback   func(analysis.Metrics) analysis.Decision
}

// NewService 创建分类服务。chatModel 可重用现有的大模型实例。
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	svc := &Service{
		enabled:  cfg.Enabled && chatModel != nil,
		fallback: analysis.Classify,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage(classifierUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile persona classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled 返回大模型分类是否启用。
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Classify 根据消费指标选择人格。任何调用或解析失败都会回退到启发式结果。
func (s *Service) Classify(ctx context.Context, metrics analysis.Metrics) analysis.Decision {
	heuristic := s.fallback(metrics)
	if !s.Enabled() {
		return heuristic
	}

	input := map[string]any{
		"personas": describePersonas(),
		"metrics":  describeMetrics(metrics),
	}

	msg, err := s.classifier.Invoke(ctx, input)
	if err != nil {
		log.Printf("[classifier] invoke failed, use fallback: %v", err)
		return heuristic
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return heuristic
	}

	decision, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Printf("[classifier] output parse failed, use fallback: %v", err)
		return heuristic
	}

	// 模型未给出对话要点或得分时沿用启发式结果。
	if len(decision.ConversationPoints) == 0 {
		decision.ConversationPoints = heuristic.ConversationPoints
	}
	if len(decision.Scores) == 0 {
		decision.Scores = heuristic.Scores
	}
	return decision
}

// parseClassifierOutput 解析大模型返回的 JSON。
func parseClassifierOutput(content string) (analysis.Decision, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return analysis.Decision{}, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return analysis.Decision{}, err
	}

	t, ok := persona.TypeByID(payload.PersonaID)
	if !ok {
		return analysis.Decision{}, fmt.Errorf("persona_id %d out of range", payload.PersonaID)
	}

	scores := make(map[string]float64, len(payload.PersonaScores))
	for key, score := range payload.PersonaScores {
		if parsed, ok := persona.ParseType(key); ok {
			scores[string(parsed)] = score
		}
	}

	points := make([]string, 0, len(payload.ConversationPoints))
	for _, point := range payload.ConversationPoints {
		if p := strings.TrimSpace(point); p != "" {
			points = append(points, p)
		}
	}

	return analysis.Decision{Persona: t, Scores: scores, ConversationPoints: points}, nil
}

func describePersonas() string {
	var builder strings.Builder
	for _, p := range persona.Catalog().List() {
		fmt.Fprintf(&builder, "%d. %s (%s): %s\n", p.Type.ID(), p.Type.Titled(), p.Character, p.Description)
	}
	return strings.TrimRight(builder.String(), "\n")
}

func describeMetrics(m analysis.Metrics) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Transactions: %d\n", m.TransactionCount)
	if m.Categories != nil {
		builder.WriteString("Categories (share of transactions, average amount):\n")
		for pair := m.Categories.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Fprintf(&builder, "- %s: %.0f%%, avg %.0f\n", pair.Key, pair.Value.Percentage, pair.Value.AvgAmount)
		}
	}
	if len(m.TopMerchants) > 0 {
		builder.WriteString("Top merchants:\n")
		for _, merchant := range m.TopMerchants {
			fmt.Fprintf(&builder, "- %s (%s): %d visits\n", merchant.Name, merchant.Category, merchant.Visits)
		}
	}
	fmt.Fprintf(&builder, "Experiences vs essentials: %.0f%% / %.0f%%\n", m.Breakdown.Experiences, m.Breakdown.Essentials)
	fmt.Fprintf(&builder, "Saving rate: now %.1f%%, before %.1f%%", m.SavingRate.Current, m.SavingRate.Previous)
	return builder.String()
}

type classifierPayload struct {
	ConversationPoints []string           `json:"conversationPoints"`
	PersonaID          int                `json:"persona_id"`
	PersonaScores      map[string]float64 `json:"persona_scores"`
}

const classifierSystemPrompt = "You are a financial personality analyst. Read the spending metrics of one user and decide which of the listed personas fits best.\nReturn only one JSON object with the fields conversationPoints (3 to 5 short, friendly sentences about the user's year), persona_id (the number of the chosen persona) and persona_scores (an object mapping every persona name to a score between 0 and 1). Do not output anything else."

const classifierUserPrompt = "Personas:\n{personas}\n\nMetrics:\n{metrics}\n\nRespond with the JSON object."
