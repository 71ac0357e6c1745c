package finance

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
)

// CategoryStat summarises one spending category.
type CategoryStat struct {
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
	AvgAmount  float64 `json:"avgAmount"`
}

// Merchant is one entry of the top merchant list.
type Merchant struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Visits   int    `json:"visits"`
}

// SpendingBreakdown splits spend between experiences and essentials, in percent.
type SpendingBreakdown struct {
	Experiences float64 `json:"experiences"`
	Essentials  float64 `json:"essentials"`
}

// SavingRate compares the current and previous saving rate, in percent.
type SavingRate struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
}

// User carries the identity and classification part of a snapshot.
type User struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name,omitempty"`
	FinancialPersonality string     `json:"financialPersonality"`
	SavingRate           SavingRate `json:"savingRate"`
}

// CategoryMap keeps categories in payload order.
type CategoryMap = orderedmap.OrderedMap[string, CategoryStat]

// WeekdayMap keeps weekday totals in payload order.
type WeekdayMap = orderedmap.OrderedMap[string, float64]

// NewCategoryMap returns an empty ordered category map.
func NewCategoryMap() *CategoryMap {
	return orderedmap.New[string, CategoryStat]()
}

// NewWeekdayMap returns an empty ordered weekday map.
func NewWeekdayMap() *WeekdayMap {
	return orderedmap.New[string, float64]()
}

// Snapshot is the aggregate financial summary of one user. It is replaced
// wholesale on refetch and treated as read-only by consumers.
type Snapshot struct {
	User               User               `json:"user"`
	Persona            *persona.Persona   `json:"persona,omitempty"`
	Categories         *CategoryMap       `json:"categories"`
	TopMerchants       []Merchant         `json:"topMerchants"`
	SpendingBreakdown  SpendingBreakdown  `json:"spendingBreakdown"`
	WeekdaySpending    *WeekdayMap        `json:"weekdaySpending"`
	ConversationPoints []string           `json:"conversationPoints,omitempty"`
	PersonaScores      map[string]float64 `json:"personaScores,omitempty"`
}

// Weekdays lists the calendar order used for weekday aggregation.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
