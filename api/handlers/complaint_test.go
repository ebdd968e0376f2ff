package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicsetu/civic-voice-api/api/handlers"
	mocksdb "github.com/civicsetu/civic-voice-api/databases/mocks"
	"github.com/civicsetu/civic-voice-api/models"
	"github.com/civicsetu/civic-voice-api/priority"
)

func newTestComplaint(cdb *mocksdb.ComplaintDatabase) handlers.Complaint {
	engine := priority.NewEngine()
	return handlers.Complaint{
		DB:       cdb,
		Analyzer: priority.NewAnalyzer(engine, nil, false),
	}
}

func TestComplaint_CreateComplaintHandler(t *testing.T) {
	var inserted models.Complaint
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Complaint")).
		Return("complaint-id", nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.Complaint)
		})

	c := newTestComplaint(cdb)

	body := `{
		"title": "No water since Monday",
		"description": "entire lane without supply",
		"category": "water_supply",
		"city": "Delhi",
		"mediaCount": 2
	}`
	req := httptest.NewRequest("POST", "/api/v1/complaint", strings.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, models.CategoryWaterSupply, inserted.Category)
	assert.Equal(t, 80, inserted.PriorityScore) // base 75 + media 5
	assert.Equal(t, models.PriorityUrgent, inserted.Priority)
	assert.Equal(t, "Water Supply Board", inserted.SuggestedDepartment)
	assert.Equal(t, "submitted", inserted.Status)

	var got models.Complaint
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, inserted.PriorityScore, got.PriorityScore)
}

func TestComplaint_CreateComplaintHandler_BadBody(t *testing.T) {
	c := newTestComplaint(&mocksdb.ComplaintDatabase{})

	req := httptest.NewRequest("POST", "/api/v1/complaint", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateComplaintHandler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest("POST", "/api/v1/complaint", strings.NewReader(`{"category": "garbage"}`))
	rr = httptest.NewRecorder()
	http.HandlerFunc(c.CreateComplaintHandler).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "title or description is required")
}

func TestComplaint_CreateComplaintHandler_UnknownCategory(t *testing.T) {
	var inserted models.Complaint
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Complaint")).
		Return("complaint-id", nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.Complaint)
		})

	c := newTestComplaint(cdb)

	req := httptest.NewRequest("POST", "/api/v1/complaint",
		strings.NewReader(`{"title": "Something odd", "category": "ufo_sighting"}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, models.CategoryOther, inserted.Category)
}

func TestComplaint_ComplaintByIDHandler_BadHex(t *testing.T) {
	c := newTestComplaint(&mocksdb.ComplaintDatabase{})

	req := httptest.NewRequest("GET", "/api/v1/complaint/not-hex", nil)
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "not-hex"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ComplaintByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestComplaint_ComplaintByIDHandler(t *testing.T) {
	id := primitive.NewObjectID()
	stored := &models.Complaint{ID: id, Title: "Pothole", Category: models.CategoryRoadIssue}

	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, bson.M{"_id": id}).Return(stored, nil)

	c := newTestComplaint(cdb)

	req := httptest.NewRequest("GET", "/api/v1/complaint/"+id.Hex(), nil)
	req = mux.SetURLVars(req, map[string]string{"complaint_id": id.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ComplaintByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got models.Complaint
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Pothole", got.Title)
}

func TestComplaint_ComplaintsHandler(t *testing.T) {
	stored := []models.Complaint{
		{ID: primitive.NewObjectID(), Title: "Garbage pile", Category: models.CategoryGarbage},
	}

	var gotOpts *options.FindOptions
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("Find", mock.Anything, bson.M{"category": models.CategoryGarbage}, mock.AnythingOfType("*options.FindOptions")).
		Return(stored, nil).
		Run(func(args mock.Arguments) {
			gotOpts = args.Get(2).(*options.FindOptions)
		})

	c := newTestComplaint(cdb)

	req := httptest.NewRequest("GET", "/api/v1/complaints?category=garbage&limit=10", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ComplaintsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got []models.Complaint
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got, 1)
	assert.Equal(t, "Garbage pile", got[0].Title)

	if assert.NotNil(t, gotOpts) {
		assert.Equal(t, int64(10), *gotOpts.Limit)
	}
}

func TestComplaint_ComplaintsHandler_LimitCapped(t *testing.T) {
	var gotOpts *options.FindOptions
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("Find", mock.Anything, bson.M{}, mock.AnythingOfType("*options.FindOptions")).
		Return([]models.Complaint{}, nil).
		Run(func(args mock.Arguments) {
			gotOpts = args.Get(2).(*options.FindOptions)
		})

	c := newTestComplaint(cdb)

	// above the list cap, so the default page size applies
	req := httptest.NewRequest("GET", "/api/v1/complaints?limit=5000", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ComplaintsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	if assert.NotNil(t, gotOpts) {
		assert.Equal(t, int64(50), *gotOpts.Limit)
	}
}

func TestComplaint_ReclassifyComplaintHandler(t *testing.T) {
	id := primitive.NewObjectID()
	stored := &models.Complaint{
		ID:          id,
		Title:       "Open drain overflowing",
		Description: "sewage water on the street",
		Category:    models.CategoryDrainage,
	}

	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, bson.M{"_id": id}).Return(stored, nil)
	cdb.On("UpdateOne", mock.Anything, bson.M{"_id": id}, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	c := newTestComplaint(cdb)

	req := httptest.NewRequest("POST", "/api/v1/complaint/"+id.Hex()+"/reclassify", nil)
	req = mux.SetURLVars(req, map[string]string{"complaint_id": id.Hex()})
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ReclassifyComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got models.Complaint
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 80, got.PriorityScore)
	assert.Equal(t, models.PriorityUrgent, got.Priority)
	assert.Equal(t, "Drainage Cell", got.SuggestedDepartment)
}

func TestComplaint_ReprioritizeSweepHandler(t *testing.T) {
	unscored := []models.Complaint{
		{ID: primitive.NewObjectID(), Title: "Street light out", Category: models.CategoryStreetLight},
		{ID: primitive.NewObjectID(), Title: "Garbage pile", Category: models.CategoryGarbage},
	}

	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindUnscored", mock.Anything, 50).Return(unscored, nil)
	cdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	c := newTestComplaint(cdb)

	req := httptest.NewRequest("POST", "/api/v1/complaints/reprioritize", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ReprioritizeSweepHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got map[string]int
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 2, got["scanned"])
	assert.Equal(t, 2, got["updated"])
	assert.Equal(t, 0, got["failed"])
}

func TestComplaint_ReprioritizeSweepHandler_PartialFailure(t *testing.T) {
	bad := models.Complaint{ID: primitive.NewObjectID(), Title: "Broken road", Category: models.CategoryRoadIssue}
	good := models.Complaint{ID: primitive.NewObjectID(), Title: "Garbage pile", Category: models.CategoryGarbage}

	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindUnscored", mock.Anything, 50).Return([]models.Complaint{bad, good}, nil)
	cdb.On("UpdateOne", mock.Anything, bson.M{"_id": bad.ID}, mock.Anything).
		Return(nil, errors.New("mocked-error"))
	cdb.On("UpdateOne", mock.Anything, bson.M{"_id": good.ID}, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)

	c := newTestComplaint(cdb)

	req := httptest.NewRequest("POST", "/api/v1/complaints/reprioritize", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ReprioritizeSweepHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got map[string]int
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 2, got["scanned"])
	assert.Equal(t, 1, got["updated"])
	assert.Equal(t, 1, got["failed"])
}
