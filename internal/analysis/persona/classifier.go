package persona

import (
	"fmt"
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/finance"
	model "github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
)

// Metrics 是分类所需的消费指标。
type Metrics struct {
	Categories       *finance.CategoryMap
	Breakdown        finance.SpendingBreakdown
	SavingRate       finance.SavingRate
	TopMerchants     []finance.Merchant
	TransactionCount int
}

// Decision 给出人格分类结果、归一化得分以及对话要点。
type Decision struct {
	Persona            model.Type
	Scores             map[string]float64
	ConversationPoints []string
}

var categorySignals = map[model.Type][]string{
	model.BudgetingMaestro:     {"groceries", "utilities", "rent", "insurance", "transport"},
	model.SpontaneousSpender:   {"entertainment", "shopping", "food", "dining", "coffee"},
	model.CautiousSaver:        {"savings", "pension"},
	model.InvestmentEnthusiast: {"investment", "investments", "stocks", "crypto", "business"},
	model.DealHunter:           {"groceries", "shopping", "discount"},
	model.Minimalist:           {"subscriptions", "utilities"},
	model.GenerousGiver:        {"gifts", "charity", "donations"},
	model.FinancialAdventurer:  {"travel", "entertainment", "personal"},
}

// Classify 根据消费指标打分，选出得分最高的人格。所有人格基础分相同，
// 平分时保留默认人格，因此空指标会得到默认人格。
func Classify(m Metrics) Decision {
	raw := make(map[model.Type]float64, len(model.Types()))
	for _, t := range model.Types() {
		raw[t] = 1
		for _, name := range categorySignals[t] {
			raw[t] += share(m.Categories, name) * 4
		}
	}

	raw[model.BudgetingMaestro] += m.Breakdown.Essentials / 100 * 2
	raw[model.SpontaneousSpender] += m.Breakdown.Experiences / 100 * 2
	raw[model.FinancialAdventurer] += m.Breakdown.Experiences / 100
	if m.SavingRate.Current > m.SavingRate.Previous {
		raw[model.CautiousSaver] += 1.5
	}
	raw[model.CautiousSaver] += m.SavingRate.Current / 100 * 2

	if avg := averageTicket(m.Categories); avg > 0 && avg < 15 {
		raw[model.DealHunter] += 1
	}
	if n := categoryCount(m.Categories); n > 0 && n <= 3 {
		raw[model.Minimalist] += 1.5
	}
	if m.TransactionCount > 0 && m.TransactionCount < 50 {
		raw[model.Minimalist] += 0.5
	}

	best := model.DefaultType
	for _, t := range model.Types() {
		if raw[t] > raw[best] {
			best = t
		}
	}

	return Decision{
		Persona:            best,
		Scores:             normalize(raw),
		ConversationPoints: conversationPoints(m),
	}
}

func share(categories *finance.CategoryMap, name string) float64 {
	if categories == nil {
		return 0
	}
	stat, ok := categories.Get(name)
	if !ok {
		return 0
	}
	return stat.Percentage / 100
}

func averageTicket(categories *finance.CategoryMap) float64 {
	if categories == nil || categories.Len() == 0 {
		return 0
	}
	var total float64
	var count int
	for pair := categories.Oldest(); pair != nil; pair = pair.Next() {
		total += pair.Value.AvgAmount * float64(pair.Value.Count)
		count += pair.Value.Count
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func categoryCount(categories *finance.CategoryMap) int {
	if categories == nil {
		return 0
	}
	return categories.Len()
}

func normalize(raw map[model.Type]float64) map[string]float64 {
	var sum float64
	for _, v := range raw {
		sum += v
	}
	out := make(map[string]float64, len(raw))
	for t, v := range raw {
		out[string(t)] = math.Round(v/sum*1000) / 1000
	}
	return out
}

// conversationPoints 生成 3~5 条可供聊天使用的话题。
func conversationPoints(m Metrics) []string {
	points := make([]string, 0, 5)

	if m.Categories != nil && m.Categories.Len() > 0 {
		var topName string
		var top finance.CategoryStat
		for pair := m.Categories.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value.Percentage > top.Percentage || topName == "" {
				topName, top = pair.Key, pair.Value
			}
		}
		points = append(points, fmt.Sprintf("%s makes up %.0f%% of your transactions.", capitalize(topName), top.Percentage))
	}
	if len(m.TopMerchants) > 0 {
		fav := m.TopMerchants[0]
		points = append(points, fmt.Sprintf("You visited %s %d times this year.", fav.Name, fav.Visits))
	}
	if m.Breakdown.Experiences > 0 || m.Breakdown.Essentials > 0 {
		if m.Breakdown.Experiences >= m.Breakdown.Essentials {
			points = append(points, fmt.Sprintf("You spend more on experiences (%.0f%%) than on essentials.", m.Breakdown.Experiences))
		} else {
			points = append(points, fmt.Sprintf("Essentials take %.0f%% of your spending.", m.Breakdown.Essentials))
		}
	}
	if m.SavingRate.Current > m.SavingRate.Previous {
		points = append(points, "Your saving rate went up compared to earlier in the year.")
	} else {
		points = append(points, "Your saving rate slipped compared to earlier in the year.")
	}
	if len(points) < 3 {
		points = append(points, "Ask your money character how to plan the year ahead.")
	}
	if len(points) < 3 {
		points = append(points, "Try a Battle Arena question to hear different money mindsets.")
	}
	return points
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
