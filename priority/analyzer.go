package priority

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/civicsetu/civic-voice-api/models"
)

// TextGenerator is the single call the analyzer makes to the outside world.
// Satisfied by GeminiClient; stubbed in tests.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// ReportData carries the complaint fields fed into an assessment.
type ReportData struct {
	Title       string
	Description string
	Category    models.Category
	Address     string
	City        string
	Locality    string
	MediaCount  int
}

// Analyzer runs the two-tier prioritization flow: an AI attempt with a bounded
// timeout, falling back to the rule engine on any failure. The flow always
// terminates with a valid assessment.
type Analyzer struct {
	Engine  *Engine
	Client  TextGenerator
	Enabled bool
}

// NewAnalyzer wires an analyzer from its parts. A nil client behaves like a
// disabled AI path.
func NewAnalyzer(engine *Engine, client TextGenerator, enabled bool) *Analyzer {
	return &Analyzer{Engine: engine, Client: client, Enabled: enabled}
}

// AnalyzeReport assesses a complaint. The rule-based result is always computed
// first; AI fields override it only where the model actually supplied them and
// they pass vocabulary checks. The numeric score is the rule engine's whenever
// the AI path does not supply one, and the priority label is always re-derived
// from the final score.
func (a *Analyzer) AnalyzeReport(ctx context.Context, data ReportData) models.PriorityAssessment {
	ruleResult := a.Engine.Assess(data.Category, data.Title+" "+data.Description, data.MediaCount)

	if !a.Enabled || a.Client == nil {
		zap.S().Debug("ai prioritization disabled, using rule-based assessment")
		return ruleResult
	}

	output, err := a.Client.GenerateContent(ctx, a.buildTriagePrompt(data))
	if err != nil {
		zap.S().Warnw("ai prioritization failed, falling back to rules",
			"category", data.Category,
			"error", err.Error(),
		)
		return ruleResult
	}

	parsed := ExtractJSONBlock(output)
	if parsed == nil {
		zap.S().Warnw("ai prioritization returned no usable JSON, falling back to rules",
			"category", data.Category,
		)
		return ruleResult
	}

	result := ruleResult

	if cat := models.Category(stringField(parsed, "category")); cat.IsValid() {
		result.Category = cat
	}
	if score, ok := intField(parsed, "priorityScore"); ok {
		if score > maxScore {
			score = maxScore
		}
		if score < minScore {
			score = minScore
		}
		result.Score = score
	}
	// threshold mapping wins over whatever label the model chose
	result.Priority = PriorityFromScore(result.Score)

	if reasoning := stringField(parsed, "reasoning"); reasoning != "" {
		result.Reasoning = truncate(reasoning, 500)
	}
	if dept := stringField(parsed, "suggestedDepartment"); dept != "" {
		result.SuggestedDepartment = truncate(dept, 100)
	} else {
		result.SuggestedDepartment = a.Engine.Department(result.Category)
	}
	if tags := stringSliceField(parsed, "tags"); len(tags) > 0 {
		if len(tags) > 10 {
			tags = tags[:10]
		}
		result.Tags = tags
	}

	zap.S().Infow("ai prioritization result",
		"category", result.Category,
		"priority", result.Priority,
		"score", result.Score,
	)
	return result
}

// Classify extracts structured issue data from a voice transcript. Returns nil
// on any failure; callers treat nil as "no opinion", never as an error.
func (a *Analyzer) Classify(ctx context.Context, transcript, language string, fallbackCategory models.Category) *models.ClassificationResult {
	if !a.Enabled || a.Client == nil || strings.TrimSpace(transcript) == "" {
		return nil
	}

	prompt := strings.Join([]string{
		"You are classifying an Indian civic complaint from an IVR transcript.",
		"Return strict JSON with keys: category, priority, description, addressHint, reporterName.",
		"Allowed categories: road_issue, water_supply, electricity, garbage, drainage, street_light, traffic, pollution, encroachment, other.",
		"Allowed priorities: low, medium, high, urgent.",
		fmt.Sprintf("Fallback category from DTMF: %s.", fallbackCategory),
		fmt.Sprintf("Language: %s.", language),
		fmt.Sprintf("Transcript: %s", transcript),
	}, "\n")

	output, err := a.Client.GenerateContent(ctx, prompt)
	if err != nil {
		zap.S().Warnw("transcript classification failed",
			"language", language,
			"error", err.Error(),
		)
		return nil
	}

	parsed := ExtractJSONBlock(output)
	if parsed == nil {
		return nil
	}

	result := &models.ClassificationResult{
		Description:  strings.TrimSpace(stringField(parsed, "description")),
		AddressHint:  strings.TrimSpace(stringField(parsed, "addressHint")),
		ReporterName: strings.TrimSpace(stringField(parsed, "reporterName")),
	}
	// values outside the fixed vocabularies are discarded, never passed through
	if cat := models.Category(stringField(parsed, "category")); cat.IsValid() {
		result.Category = cat
	}
	if prio := models.Priority(stringField(parsed, "priority")); prio.IsValid() {
		result.Priority = prio
	}
	return result
}

func (a *Analyzer) buildTriagePrompt(data ReportData) string {
	location := data.Address
	if location == "" {
		location = "Not specified"
	}
	if data.City != "" {
		location += ", " + data.City
	}
	if data.Locality != "" {
		location += ", " + data.Locality
	}

	return fmt.Sprintf(`You are an expert Indian municipal civic complaint triage AI for the "Civic Setu" platform.

REPORT DATA:
- Title: %s
- Description: %s
- Category selected by citizen: %s
- Location: %s
- Media attached: %d

SEVERITY GUIDANCE:
- Minor cosmetic damage: low (1-25)
- Moderate issue affecting daily life: medium (26-50)
- Significant damage or safety concern: high (51-75)
- Immediate danger to life or property: urgent (76-100)

ALLOWED CATEGORIES: road_issue, water_supply, electricity, garbage, drainage, street_light, traffic, pollution, encroachment, other

RETURN STRICT JSON:
{
  "category": "<the correct category>",
  "priority": "low | medium | high | urgent",
  "priorityScore": <number 1-100>,
  "reasoning": "<why this category and priority>",
  "suggestedDepartment": "<the department that should handle this>",
  "tags": ["<relevant tags: pothole, waterlogging, exposed_wires, garbage_dump, sewage, safety_hazard, public_health>"]
}`,
		orNotProvided(data.Title),
		orNotProvided(data.Description),
		data.Category,
		location,
		data.MediaCount,
	)
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not provided"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func stringField(obj map[string]interface{}, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func intField(obj map[string]interface{}, key string) (int, bool) {
	v, ok := obj[key].(float64)
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}

func stringSliceField(obj map[string]interface{}, key string) []string {
	raw, ok := obj[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
