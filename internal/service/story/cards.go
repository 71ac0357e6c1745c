package story

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Rhymond/go-money"

	"github.com/zhouzirui/money-wrapped/backend/internal/service/insight"
)

// Kind identifies a card slot. The slot list is fixed so every privacy level
// yields the same number of cards.
type Kind string

const (
	KindIntro       Kind = "intro"
	KindPersonality Kind = "personality"
	KindSavings     Kind = "savings"
	KindSplit       Kind = "split"
	KindCategory    Kind = "category"
	KindWeekday     Kind = "weekday"
	KindMerchants   Kind = "merchants"
	KindShare       Kind = "share"
)

// Kinds lists the card slots in presentation order.
var Kinds = []Kind{KindIntro, KindPersonality, KindSavings, KindSplit, KindCategory, KindWeekday, KindMerchants, KindShare}

const hiddenBody = "Hidden by your privacy settings."

// Card is one rendered story page.
type Card struct {
	Kind   Kind   `json:"kind"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Accent string `json:"accent"`
	Hidden bool   `json:"hidden,omitempty"`
}

// Cards renders insights into the fixed card sequence. A nil insights value
// yields an empty sequence.
func Cards(in *insight.Insights) []Card {
	if in == nil {
		return nil
	}

	accent := in.Persona.Color
	cards := make([]Card, 0, len(Kinds))
	for _, kind := range Kinds {
		card := Card{Kind: kind, Accent: accent}
		switch kind {
		case KindIntro:
			card.Title = "Your year in money"
			card.Body = fmt.Sprintf("Meet %s, the character who spends like you do.", in.Persona.Character)
		case KindPersonality:
			card.Title = "You are " + in.Persona.Type.Titled()
			card.Body = in.Persona.Description
		case KindSavings:
			card.Title = "Saving streak"
			if in.SavingTrend == nil {
				card.Hidden = true
			} else if *in.SavingTrend {
				card.Body = "You saved more than last year. Nice work!"
			} else {
				card.Body = "Saving slowed down compared to last year."
			}
		case KindSplit:
			card.Title = "Experiences vs essentials"
			if in.SpendingBreakdown == nil {
				card.Hidden = true
			} else {
				card.Body = fmt.Sprintf("%.0f%% on experiences, %.0f%% on essentials.", in.SpendingBreakdown.Experiences, in.SpendingBreakdown.Essentials)
			}
		case KindCategory:
			card.Title = "Your top category"
			if in.TopCategory == nil {
				card.Hidden = true
			} else {
				card.Body = fmt.Sprintf("%s took %.0f%% of your transactions.", titleCase(in.TopCategory.Name), in.TopCategory.Percentage)
				if in.Categories != nil {
					if stat, ok := in.Categories.Get(in.TopCategory.Name); ok {
						card.Body += " Average ticket " + money.NewFromFloat(stat.AvgAmount, money.EUR).Display() + "."
					}
				}
			}
		case KindWeekday:
			card.Title = "Your big spending day"
			if in.WeekdayPattern == "" {
				card.Hidden = true
			} else {
				card.Body = fmt.Sprintf("You spend the most on %ss.", titleCase(in.WeekdayPattern))
			}
		case KindMerchants:
			card.Title = "Favourite places"
			if len(in.TopMerchants) == 0 {
				card.Hidden = true
			} else {
				lines := make([]string, 0, len(in.TopMerchants))
				for i, m := range in.TopMerchants {
					lines = append(lines, fmt.Sprintf("%d. %s (%s) - %d visits", i+1, m.Name, m.Category, m.Visits))
				}
				card.Body = strings.Join(lines, "\n")
			}
		case KindShare:
			card.Title = "Share your wrapped"
			card.Body = "Show your friends which money character you are."
		}
		if card.Hidden {
			card.Body = hiddenBody
		}
		cards = append(cards, card)
	}
	return cards
}

func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
