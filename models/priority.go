package models

// Priority represents the ordinal urgency label attached to a complaint
type Priority string

// Predefined Priority values, lowest to highest
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriorities returns all valid Priority values
func ValidPriorities() []Priority {
	return []Priority{
		PriorityLow,
		PriorityMedium,
		PriorityHigh,
		PriorityUrgent,
	}
}

// IsValid checks if the Priority value is one of the predefined constants
func (p Priority) IsValid() bool {
	for _, validPriority := range ValidPriorities() {
		if p == validPriority {
			return true
		}
	}
	return false
}

// String returns the string representation of the Priority
func (p Priority) String() string {
	return string(p)
}
