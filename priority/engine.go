package priority

import (
	"fmt"
	"strings"

	"github.com/civicsetu/civic-voice-api/models"
)

// score thresholds for the priority label, see PriorityFromScore
const (
	urgentThreshold = 76
	highThreshold   = 51
	mediumThreshold = 26

	keywordBoostPerHit = 5
	keywordBoostCap    = 15
	mediaBoost         = 5

	minScore = 1
	maxScore = 100
)

// Engine is the rule-based prioritizer. It is the fallback of last resort: a
// pure function over its inputs with no external calls, so the classification
// step can never block or fail a complaint submission.
type Engine struct {
	weights     map[models.Category]int
	departments map[models.Category]string
	keywords    []string
}

// NewEngine returns an engine loaded with the fixed civic urgency tables.
func NewEngine() *Engine {
	return &Engine{
		weights: map[models.Category]int{
			models.CategoryElectricity:  85,
			models.CategoryDrainage:     80,
			models.CategoryWaterSupply:  75,
			models.CategoryRoadIssue:    65,
			models.CategoryPollution:    55,
			models.CategoryTraffic:      50,
			models.CategoryStreetLight:  50,
			models.CategoryGarbage:      40,
			models.CategoryEncroachment: 30,
			models.CategoryOther:        20,
		},
		departments: map[models.Category]string{
			models.CategoryRoadIssue:    "Public Works Department (PWD)",
			models.CategoryWaterSupply:  "Water Supply Board",
			models.CategoryElectricity:  "Electricity Board",
			models.CategoryGarbage:      "Sanitation Department",
			models.CategoryDrainage:     "Drainage Cell",
			models.CategoryStreetLight:  "Electrical Maintenance",
			models.CategoryTraffic:      "Traffic Police",
			models.CategoryPollution:    "Environment Department",
			models.CategoryEncroachment: "Anti-Encroachment Cell",
			models.CategoryOther:        "General Administration",
		},
		keywords: []string{
			"danger", "dangerous", "accident", "death", "dying", "emergency",
			"flood", "fire", "collapse", "electric shock", "electrocution",
			"child", "children", "hospital", "school", "injured", "injury",
			"immediate", "urgent", "critical", "severe", "fatal",
		},
	}
}

// PriorityFromScore maps a numeric urgency score to its priority label. The
// mapping is a fixed step function: >=76 urgent, >=51 high, >=26 medium, else low.
func PriorityFromScore(score int) models.Priority {
	switch {
	case score >= urgentThreshold:
		return models.PriorityUrgent
	case score >= highThreshold:
		return models.PriorityHigh
	case score >= mediumThreshold:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// Department returns the handling department suggested for a category.
func (e *Engine) Department(category models.Category) string {
	if dept, ok := e.departments[category]; ok {
		return dept
	}
	return e.departments[models.CategoryOther]
}

// Assess scores a complaint from its category, combined title+description text
// and attached media count. The score starts from the per-category base weight,
// adds a capped boost per distinct urgency keyword found in the text, adds a
// flat boost when media is attached, and is clamped to [1,100].
func (e *Engine) Assess(category models.Category, text string, mediaCount int) models.PriorityAssessment {
	if !category.IsValid() {
		category = models.CategoryOther
	}
	baseScore := e.weights[category]

	textLower := strings.ToLower(text)
	keywordHits := 0
	for _, kw := range e.keywords {
		if strings.Contains(textLower, kw) {
			keywordHits++
		}
	}
	keywordBoost := keywordHits * keywordBoostPerHit
	if keywordBoost > keywordBoostCap {
		keywordBoost = keywordBoostCap
	}

	mBoost := 0
	if mediaCount > 0 {
		mBoost = mediaBoost
	}

	score := baseScore + keywordBoost + mBoost
	if score > maxScore {
		score = maxScore
	}
	if score < minScore {
		score = minScore
	}

	var tags []string
	if keywordHits > 0 {
		tags = []string{"keyword_urgency_detected"}
	}

	return models.PriorityAssessment{
		Category:            category,
		Priority:            PriorityFromScore(score),
		Score:               score,
		Reasoning:           fmt.Sprintf("Rule-based: category %s (base %d) + keyword urgency (+%d) + media (+%d)", category, baseScore, keywordBoost, mBoost),
		SuggestedDepartment: e.Department(category),
		Tags:                tags,
	}
}
