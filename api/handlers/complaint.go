package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/civicsetu/civic-voice-api/config"
	"github.com/civicsetu/civic-voice-api/databases"
	"github.com/civicsetu/civic-voice-api/models"
	"github.com/civicsetu/civic-voice-api/notify"
	"github.com/civicsetu/civic-voice-api/priority"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	maxSweepLimit    = 200
)

var errEmptyComplaint = errors.New("empty complaint")

// Complaint exposes the web-facing complaint routes: submission, retrieval and
// reclassification.
type Complaint struct {
	DB       databases.ComplaintDatabase
	Analyzer *priority.Analyzer
	Mailer   *notify.EscalationMailer
	Feed     *ComplaintFeed
}

type complaintSubmission struct {
	ReporterID  string  `json:"reporterId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Address     string  `json:"address"`
	Locality    string  `json:"locality"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	MediaCount  int     `json:"mediaCount"`
	Anonymous   bool    `json:"anonymous"`
}

// CreateComplaintHandler registers a complaint submitted through the web or
// app surface. The full assessment flow runs before the insert, so the stored
// record always carries a score, a label and a department.
func (c Complaint) CreateComplaintHandler(w http.ResponseWriter, r *http.Request) {
	var body complaintSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode complaint body", http.StatusBadRequest, w, err)
		return
	}
	if body.Title == "" && body.Description == "" {
		config.ErrorStatus("complaint requires a title or description", http.StatusBadRequest, w, errEmptyComplaint)
		return
	}

	category := models.Category(body.Category)
	if !category.IsValid() {
		category = models.CategoryOther
	}

	reporterID := primitive.NilObjectID
	if body.ReporterID != "" {
		rid, err := primitive.ObjectIDFromHex(body.ReporterID)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		reporterID = rid
	}

	assessment := c.Analyzer.AnalyzeReport(r.Context(), priority.ReportData{
		Title:       body.Title,
		Description: body.Description,
		Category:    category,
		Address:     body.Address,
		City:        body.City,
		Locality:    body.Locality,
		MediaCount:  body.MediaCount,
	})

	now := primitive.NewDateTimeFromTime(time.Now())
	complaint := models.Complaint{
		ID:                  primitive.NewObjectID(),
		ReporterID:          reporterID,
		Title:               body.Title,
		Description:         body.Description,
		Category:            assessment.Category,
		Priority:            assessment.Priority,
		PriorityScore:       assessment.Score,
		PriorityReasoning:   assessment.Reasoning,
		SuggestedDepartment: assessment.SuggestedDepartment,
		Tags:                assessment.Tags,
		Address:             body.Address,
		Locality:            body.Locality,
		City:                body.City,
		Latitude:            body.Latitude,
		Longitude:           body.Longitude,
		MediaCount:          body.MediaCount,
		Anonymous:           body.Anonymous,
		Status:              "submitted",
		StatusHistory: []models.StatusChange{
			{
				Status:      "submitted",
				ChangedByID: reporterID,
				Comment:     "Report submitted",
				ChangedAt:   now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := c.DB.InsertOne(r.Context(), complaint); err != nil {
		config.ErrorStatus("failed to create complaint", http.StatusInternalServerError, w, err)
		return
	}

	if c.Mailer != nil && c.Mailer.Enabled() && complaint.Priority == models.PriorityUrgent {
		go func() {
			if err := c.Mailer.Send(complaint); err != nil {
				zap.S().Warnw("urgent escalation email failed",
					"ticket", complaint.TicketID(),
					"error", err.Error(),
				)
			}
		}()
	}
	if c.Feed != nil {
		c.Feed.Broadcast(complaint)
	}

	b, err := json.Marshal(complaint)
	if err != nil {
		config.ErrorStatus("failed to marshal complaint", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// ComplaintByIDHandler returns a single complaint by its ID
func (c Complaint) ComplaintByIDHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]
	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	complaint, err := c.DB.FindOne(r.Context(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(complaint)
	if err != nil {
		config.ErrorStatus("failed to marshal complaint", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ComplaintsHandler returns the most recent complaints, optionally filtered by
// status, category or priority query parameters.
func (c Complaint) ComplaintsHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	if cat := models.Category(r.URL.Query().Get("category")); cat.IsValid() {
		filter["category"] = cat
	}
	if prio := models.Priority(r.URL.Query().Get("priority")); prio.IsValid() {
		filter["priority"] = prio
	}

	limit := int64(defaultListLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 && parsed <= maxListLimit {
			limit = parsed
		}
	}

	opts := options.Find().SetLimit(limit).SetSort(bson.M{"createdAt": -1})
	complaints, err := c.DB.Find(r.Context(), filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get complaints", http.StatusInternalServerError, w, err)
		return
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}

	b, err := json.Marshal(complaints)
	if err != nil {
		config.ErrorStatus("failed to marshal complaints", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReclassifyComplaintHandler re-runs the full assessment flow for one
// complaint and persists the result.
func (c Complaint) ReclassifyComplaintHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]
	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	complaint, err := c.DB.FindOne(r.Context(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
		return
	}

	updated, err := c.reclassify(r.Context(), *complaint)
	if err != nil {
		config.ErrorStatus("failed to update complaint priority", http.StatusInternalServerError, w, err)
		return
	}

	if c.Feed != nil {
		c.Feed.BroadcastReprioritized(updated)
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal complaint", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReprioritizeSweepHandler runs the assessment flow over every complaint that
// never got a score. Per-complaint failures are recorded and skipped so one
// bad record never aborts the sweep.
func (c Complaint) ReprioritizeSweepHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= maxSweepLimit {
			limit = parsed
		}
	}

	scanned, updated, failed, err := c.Sweep(r.Context(), limit)
	if err != nil {
		config.ErrorStatus("failed to get unscored complaints", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]int{
		"scanned": scanned,
		"updated": updated,
		"failed":  failed,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal sweep summary", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// Sweep reassesses every complaint that never got a score, bounded by limit.
// Per-complaint failures are counted and skipped so one bad record never
// aborts the rest.
func (c Complaint) Sweep(ctx context.Context, limit int) (scanned, updated, failed int, err error) {
	complaints, err := c.DB.FindUnscored(ctx, limit)
	if err != nil {
		return 0, 0, 0, err
	}

	for _, complaint := range complaints {
		reassessed, rErr := c.reclassify(ctx, complaint)
		if rErr != nil {
			failed++
			zap.S().Warnw("reprioritize sweep skipped complaint",
				"complaintId", complaint.ID.Hex(),
				"error", rErr.Error(),
			)
			continue
		}
		updated++
		if c.Feed != nil {
			c.Feed.BroadcastReprioritized(reassessed)
		}
	}

	zap.S().Infow("reprioritize sweep finished",
		"scanned", len(complaints),
		"updated", updated,
		"failed", failed,
	)
	return len(complaints), updated, failed, nil
}

func (c Complaint) reclassify(ctx context.Context, complaint models.Complaint) (models.Complaint, error) {
	assessment := c.Analyzer.AnalyzeReport(ctx, priority.ReportData{
		Title:       complaint.Title,
		Description: complaint.Description,
		Category:    complaint.Category,
		Address:     complaint.Address,
		City:        complaint.City,
		Locality:    complaint.Locality,
		MediaCount:  complaint.MediaCount,
	})

	now := primitive.NewDateTimeFromTime(time.Now())
	_, err := c.DB.UpdateOne(ctx,
		bson.M{"_id": complaint.ID},
		bson.M{"$set": bson.M{
			"category":            assessment.Category,
			"priority":            assessment.Priority,
			"priorityScore":       assessment.Score,
			"aiPriorityReasoning": assessment.Reasoning,
			"suggestedDepartment": assessment.SuggestedDepartment,
			"aiTags":              assessment.Tags,
			"updatedAt":           now,
		}},
	)
	if err != nil {
		return models.Complaint{}, err
	}

	complaint.Category = assessment.Category
	complaint.Priority = assessment.Priority
	complaint.PriorityScore = assessment.Score
	complaint.PriorityReasoning = assessment.Reasoning
	complaint.SuggestedDepartment = assessment.SuggestedDepartment
	complaint.Tags = assessment.Tags
	complaint.UpdatedAt = now
	return complaint, nil
}
