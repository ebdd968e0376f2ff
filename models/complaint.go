package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Complaint holds the structure for the complaints collection in mongo
type Complaint struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ReporterID          primitive.ObjectID `bson:"reporterId" json:"reporterId"`
	Title               string             `bson:"title" json:"title"`
	Description         string             `bson:"description" json:"description"`
	Category            Category           `bson:"category" json:"category"`
	Priority            Priority           `bson:"priority" json:"priority"`
	PriorityScore       int                `bson:"priorityScore,omitempty" json:"priorityScore,omitempty"`
	PriorityReasoning   string             `bson:"aiPriorityReasoning,omitempty" json:"aiPriorityReasoning,omitempty"`
	SuggestedDepartment string             `bson:"suggestedDepartment,omitempty" json:"suggestedDepartment,omitempty"`
	Tags                []string           `bson:"aiTags,omitempty" json:"aiTags,omitempty"`
	Address             string             `bson:"address" json:"address"`
	Locality            string             `bson:"locality,omitempty" json:"locality,omitempty"`
	City                string             `bson:"city" json:"city"`
	Latitude            float64            `bson:"latitude" json:"latitude"`
	Longitude           float64            `bson:"longitude" json:"longitude"`
	MediaCount          int                `bson:"mediaCount" json:"mediaCount"`
	Anonymous           bool               `bson:"isAnonymous" json:"isAnonymous"`
	Status              string             `bson:"status" json:"status"`
	StatusHistory       []StatusChange     `bson:"statusHistory" json:"statusHistory"`
	CreatedAt           primitive.DateTime `bson:"createdAt" json:"createdAt"`
	UpdatedAt           primitive.DateTime `bson:"updatedAt" json:"updatedAt"`
}

// StatusChange records one entry in a complaint's status history
type StatusChange struct {
	Status      string             `bson:"status" json:"status"`
	ChangedByID primitive.ObjectID `bson:"changedById" json:"changedById"`
	Comment     string             `bson:"comment,omitempty" json:"comment,omitempty"`
	ChangedAt   primitive.DateTime `bson:"changedAt" json:"changedAt"`
}

// TicketID returns the short, human-speakable identifier read back to callers
// and included in the confirmation SMS.
func (c Complaint) TicketID() string {
	hex := c.ID.Hex()
	if len(hex) > 8 {
		hex = hex[:8]
	}
	return strings.ToUpper(hex)
}
