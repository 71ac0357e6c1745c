package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	debatemodel "github.com/zhouzirui/money-wrapped/backend/internal/model/debate"
	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/insight"
	"github.com/zhouzirui/money-wrapped/backend/internal/service/story"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1).
			MarginBottom(1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)
)

func cardStyle(accent string) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(accent)).
		Padding(1, 2).
		Width(60)
}

func accentStyle(accent string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(accent)).Bold(true)
}

func renderCard(w io.Writer, index, total int, card story.Card) {
	header := accentStyle(card.Accent).Render(card.Title)
	body := card.Body
	if card.Hidden {
		body = mutedStyle.Render(body)
	}
	footer := mutedStyle.Render(fmt.Sprintf("%d/%d  [n]ext [p]rev [1-%d] jump [q]uit", index+1, total, total))
	fmt.Fprintln(w, cardStyle(card.Accent).Render(header+"\n\n"+body+"\n\n"+footer))
}

func renderDebateMessage(w io.Writer, p persona.Persona, msg debatemodel.Message) {
	name := accentStyle(p.Color).Render(fmt.Sprintf("%s (%s)", msg.Character, msg.Round))
	text := msg.Text
	if msg.Fallback {
		text = mutedStyle.Render(text)
	}
	fmt.Fprintf(w, "%s\n%s\n\n", name, text)
}

func renderInsights(w io.Writer, in *insight.Insights) {
	fmt.Fprintln(w, titleStyle.Render("Insights at "+string(in.Level)+" privacy"))
	fmt.Fprintf(w, "%s %s (%s)\n", accentStyle(in.Persona.Color).Render("Personality:"), in.FinancialPersonality, in.Persona.Character)

	if in.SavingTrend != nil {
		trend := "down"
		if *in.SavingTrend {
			trend = "up"
		}
		fmt.Fprintf(w, "Saving trend: %s\n", trend)
	}
	if in.WeekdayPattern != "" {
		fmt.Fprintf(w, "Biggest spending day: %s\n", in.WeekdayPattern)
	}
	if in.SpendingBreakdown != nil {
		fmt.Fprintf(w, "Experiences %.0f%% / Essentials %.0f%%\n", in.SpendingBreakdown.Experiences, in.SpendingBreakdown.Essentials)
	}
	if in.TopCategory != nil {
		fmt.Fprintf(w, "Top category: %s (%.0f%%)\n", in.TopCategory.Name, in.TopCategory.Percentage)
	}
	if len(in.TopMerchants) > 0 {
		names := make([]string, 0, len(in.TopMerchants))
		for _, m := range in.TopMerchants {
			names = append(names, fmt.Sprintf("%s x%d", m.Name, m.Visits))
		}
		fmt.Fprintf(w, "Top merchants: %s\n", strings.Join(names, ", "))
	}
}
