package models

// Category represents the fixed civic complaint topics
type Category string

// Predefined Category values, mapped from IVR keypad digits 1-9 and 0
const (
	CategoryRoadIssue    Category = "road_issue"
	CategoryWaterSupply  Category = "water_supply"
	CategoryElectricity  Category = "electricity"
	CategoryGarbage      Category = "garbage"
	CategoryDrainage     Category = "drainage"
	CategoryStreetLight  Category = "street_light"
	CategoryTraffic      Category = "traffic"
	CategoryPollution    Category = "pollution"
	CategoryEncroachment Category = "encroachment"
	CategoryOther        Category = "other"
)

// ValidCategories returns all valid Category values
func ValidCategories() []Category {
	return []Category{
		CategoryRoadIssue,
		CategoryWaterSupply,
		CategoryElectricity,
		CategoryGarbage,
		CategoryDrainage,
		CategoryStreetLight,
		CategoryTraffic,
		CategoryPollution,
		CategoryEncroachment,
		CategoryOther,
	}
}

// IsValid checks if the Category value is one of the predefined constants
func (c Category) IsValid() bool {
	for _, validCategory := range ValidCategories() {
		if c == validCategory {
			return true
		}
	}
	return false
}

// String returns the string representation of the Category
func (c Category) String() string {
	return string(c)
}
