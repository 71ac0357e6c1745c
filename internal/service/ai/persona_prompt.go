package ai

import (
	"fmt"
	"strings"

	debatemodel "github.com/zhouzirui/money-wrapped/backend/internal/model/debate"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
)

// PromptTemplate defines the extra guidance layered on a persona prompt
type PromptTemplate struct {
	PersonalityHints []string
	ContextRules     []string
}

// PersonaPromptManager builds system prompts for chat replies and debate turns
type PersonaPromptManager struct {
	templates map[persona.Type]*PromptTemplate
}

// NewPersonaPromptManager creates a new prompt manager with default templates
func NewPersonaPromptManager() *PersonaPromptManager {
	manager := &PersonaPromptManager{
		templates: make(map[persona.Type]*PromptTemplate),
	}
	manager.loadDefaultTemplates()
	return manager
}

// GetPromptTemplate returns the prompt template for a given persona type
func (pm *PersonaPromptManager) GetPromptTemplate(t persona.Type) (*PromptTemplate, error) {
	template, exists := pm.templates[t]
	if !exists {
		return nil, fmt.Errorf("prompt template not found for persona: %s", t)
	}
	return template, nil
}

// BuildChatPrompt creates the system prompt for a one-to-one chat
func (pm *PersonaPromptManager) BuildChatPrompt(p *persona.Persona) string {
	var builder strings.Builder
	builder.WriteString(pm.basePrompt(p))
	builder.WriteString(`
Your responses should embody this character's personality, using their unique communication style
and perspectives about money. Keep responses concise (under 150 words) and engaging.

Important: All financial advice should be responsible and reasonable, even when presented in a playful way.

Add occasional character actions in *asterisks* to make the conversation more engaging.`)
	if p.Gesture != "" {
		builder.WriteString(fmt.Sprintf(" For example: *%s*.", p.Gesture))
	}
	return builder.String()
}

// BuildDebatePrompt creates the system prompt for one debate turn
func (pm *PersonaPromptManager) BuildDebatePrompt(p *persona.Persona, round debatemodel.Round) string {
	var builder strings.Builder
	builder.WriteString(pm.basePrompt(p))
	builder.WriteString(`
You should embody this character's personality and communication style in your response.
Keep responses concise (under 150 words) and engaging.

Add occasional character actions in *asterisks* for personality, but keep them brief.
Stay true to your financial philosophy and do not compromise your core beliefs even when responding to others.
Be respectful of other personas but stand your ground on your financial philosophy.
`)

	switch round {
	case debatemodel.RoundInitial:
		builder.WriteString(`
This is your first statement in a debate. Present your perspective clearly and confidently.
Focus on providing your unique financial perspective based on your character.`)
	case debatemodel.RoundRebuttal:
		builder.WriteString(`
This is your rebuttal and final statement. Respond to what others have said while reinforcing your own position.
Briefly acknowledge the perspectives of others, but emphasize why your approach is valuable.
Be respectful but firm in your financial philosophy.`)
	}
	return builder.String()
}

func (pm *PersonaPromptManager) basePrompt(p *persona.Persona) string {
	base := fmt.Sprintf(`You are %s, a %s character who gives financial advice.

Character traits: %s
Communication style: %s
`,
		p.Character,
		p.Type.Titled(),
		p.Traits,
		p.Style,
	)

	template, err := pm.GetPromptTemplate(p.Type)
	if err != nil {
		return base
	}

	return fmt.Sprintf(`%s
Personality hints:
- %s

Context rules:
- %s
`,
		base,
		strings.Join(template.PersonalityHints, "\n- "),
		strings.Join(template.ContextRules, "\n- "),
	)
}

// loadDefaultTemplates loads the default prompt templates for the built-in personas
func (pm *PersonaPromptManager) loadDefaultTemplates() {
	pm.templates[persona.BudgetingMaestro] = &PromptTemplate{
		PersonalityHints: []string{
			"Frame plans as scores and movements, budgets as harmonies",
			"Name concrete amounts and categories rather than vague advice",
		},
		ContextRules: []string{
			"Always end with one actionable budgeting step",
		},
	}

	pm.templates[persona.SpontaneousSpender] = &PromptTemplate{
		PersonalityHints: []string{
			"Celebrate experiences and treats without shame",
			"Keep the energy high and the sentences short",
		},
		ContextRules: []string{
			"Suggest a fun-money allowance instead of giving up spending",
		},
	}

	pm.templates[persona.CautiousSaver] = &PromptTemplate{
		PersonalityHints: []string{
			"Think in seasons and winters, emergencies and reserves",
			"Prefer safe, boring and guaranteed over exciting and risky",
		},
		ContextRules: []string{
			"Mention an emergency fund whenever risk comes up",
		},
	}

	pm.templates[persona.InvestmentEnthusiast] = &PromptTemplate{
		PersonalityHints: []string{
			"Talk about compounding, diversification and time in the market",
			"Back opinions with simple numbers",
		},
		ContextRules: []string{
			"Never promise returns and remind that investing carries risk",
		},
	}

	pm.templates[persona.DealHunter] = &PromptTemplate{
		PersonalityHints: []string{
			"Get visibly excited about discounts, coupons and price comparisons",
			"Count savings out loud",
		},
		ContextRules: []string{
			"Point out where the same value can be had for less",
		},
	}

	pm.templates[persona.Minimalist] = &PromptTemplate{
		PersonalityHints: []string{
			"Speak slowly and calmly, favour questions about what really matters",
			"Value experiences and time over possessions",
		},
		ContextRules: []string{
			"Suggest removing a cost before adding a new one",
		},
	}

	pm.templates[persona.GenerousGiver] = &PromptTemplate{
		PersonalityHints: []string{
			"Connect money decisions to people and community",
			"Stay warm and encouraging",
		},
		ContextRules: []string{
			"Include giving in any plan, even a small share",
		},
	}

	pm.templates[persona.FinancialAdventurer] = &PromptTemplate{
		PersonalityHints: []string{
			"Talk about exploring new tools, apps and unconventional approaches",
			"Use maps, frontiers and expeditions as metaphors",
		},
		ContextRules: []string{
			"Propose one experiment the user can try this month",
		},
	}
}
