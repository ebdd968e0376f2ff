package models

// PriorityAssessment is the result of running a complaint through the priority
// engine. Priority is always derivable from Score via the fixed thresholds; the
// engine never emits a label that disagrees with its own score.
type PriorityAssessment struct {
	Category            Category `json:"category"`
	Priority            Priority `json:"priority"`
	Score               int      `json:"priorityScore"`
	Reasoning           string   `json:"reasoning"`
	SuggestedDepartment string   `json:"suggestedDepartment"`
	Tags                []string `json:"tags"`
}

// ClassificationResult holds the structured issue data extracted from a voice
// transcript. Every field is optional; absent fields are filled by caller-side
// defaults.
type ClassificationResult struct {
	Category     Category `json:"category,omitempty"`
	Priority     Priority `json:"priority,omitempty"`
	Description  string   `json:"description,omitempty"`
	AddressHint  string   `json:"addressHint,omitempty"`
	ReporterName string   `json:"reporterName,omitempty"`
}
