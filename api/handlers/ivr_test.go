package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicsetu/civic-voice-api/api/handlers"
	"github.com/civicsetu/civic-voice-api/config"
	mocksdb "github.com/civicsetu/civic-voice-api/databases/mocks"
	"github.com/civicsetu/civic-voice-api/models"
	"github.com/civicsetu/civic-voice-api/priority"
)

func newTestIVR(cdb *mocksdb.ComplaintDatabase, callerDB *mocksdb.CallerDatabase) handlers.IVR {
	conf := config.Config{
		BaseURL:          "https://voice.civicsetu.in",
		DefaultCity:      "Delhi",
		DefaultState:     "Delhi",
		DefaultLatitude:  28.6139,
		DefaultLongitude: 77.2090,
	}
	engine := priority.NewEngine()
	return handlers.IVR{
		Config:    conf,
		Directory: &handlers.CallerDirectory{DB: callerDB, Config: conf},
		Engine:    engine,
		Analyzer:  priority.NewAnalyzer(engine, nil, false),
		CDB:       cdb,
	}
}

func postForm(t *testing.T, handler http.HandlerFunc, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestIVR_EntryHandler_RedirectsToIncoming(t *testing.T) {
	ivr := newTestIVR(&mocksdb.ComplaintDatabase{}, &mocksdb.CallerDatabase{})

	rr := postForm(t, ivr.EntryHandler, "/api/v1/ivr/twilio", url.Values{})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/xml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `<Redirect method="POST">https://voice.civicsetu.in/api/v1/ivr/twilio/incoming</Redirect>`)
}

func TestIVR_IncomingHandler_GathersLanguageDigit(t *testing.T) {
	ivr := newTestIVR(&mocksdb.ComplaintDatabase{}, &mocksdb.CallerDatabase{})

	form := url.Values{}
	form.Set("From", "+919876543210")
	rr := postForm(t, ivr.IncomingHandler, "/api/v1/ivr/twilio/incoming", form)

	body := rr.Body.String()
	assert.Contains(t, body, `input="dtmf"`)
	assert.Contains(t, body, "https://voice.civicsetu.in/api/v1/ivr/twilio/language")
	assert.Contains(t, body, "Bhasha chunein")
	// no digit pressed loops back to the greeting
	assert.Contains(t, body, `<Redirect method="POST">https://voice.civicsetu.in/api/v1/ivr/twilio/incoming</Redirect>`)
}

func TestIVR_LanguageHandler_MapsDigits(t *testing.T) {
	ivr := newTestIVR(&mocksdb.ComplaintDatabase{}, &mocksdb.CallerDatabase{})

	form := url.Values{}
	form.Set("Digits", "1")
	rr := postForm(t, ivr.LanguageHandler, "/api/v1/ivr/twilio/language", form)

	body := rr.Body.String()
	assert.Contains(t, body, "lang=en")
	assert.Contains(t, body, "Press 1 for road issue.")

	// 2 selects hindi
	form.Set("Digits", "2")
	body = postForm(t, ivr.LanguageHandler, "/api/v1/ivr/twilio/language", form).Body.String()
	assert.Contains(t, body, "lang=hi")
	assert.Contains(t, body, "Sadak samasya ke liye 1 dabayen.")

	// anything else falls back to hindi
	form.Set("Digits", "7")
	body = postForm(t, ivr.LanguageHandler, "/api/v1/ivr/twilio/language", form).Body.String()
	assert.Contains(t, body, "lang=hi")
}

func TestIVR_CategoryHandler_MapsDigitAndGathersSpeech(t *testing.T) {
	ivr := newTestIVR(&mocksdb.ComplaintDatabase{}, &mocksdb.CallerDatabase{})

	form := url.Values{}
	form.Set("Digits", "3")
	rr := postForm(t, ivr.CategoryHandler, "/api/v1/ivr/twilio/category?lang=en", form)

	body := rr.Body.String()
	assert.Contains(t, body, `input="speech"`)
	assert.Contains(t, body, "category=electricity")
	assert.Contains(t, body, "lang=en")
	assert.Contains(t, body, `actionOnEmptyResult="true"`)

	// 0 maps to other, unknown digits map to other too
	form.Set("Digits", "0")
	body = postForm(t, ivr.CategoryHandler, "/api/v1/ivr/twilio/category?lang=en", form).Body.String()
	assert.Contains(t, body, "category=other")

	form.Set("Digits", "#")
	body = postForm(t, ivr.CategoryHandler, "/api/v1/ivr/twilio/category?lang=en", form).Body.String()
	assert.Contains(t, body, "category=other")
}

func TestIVR_FinalizeHandler_RegistersUrgentComplaint(t *testing.T) {
	callerDB := &mocksdb.CallerDatabase{}
	callerDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	callerDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Caller")).Return("caller-id", nil)

	var inserted models.Complaint
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Complaint")).
		Return("complaint-id", nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.Complaint)
		})

	ivr := newTestIVR(cdb, callerDB)

	form := url.Values{}
	form.Set("From", "+919876543210")
	form.Set("CallSid", "CA123")
	form.Set("SpeechResult", "There is a live wire near the school and children are in danger")
	form.Set("CallerCity", "New Delhi")
	form.Set("CallerState", "DL")
	form.Set("CallerCountry", "IN")

	rr := postForm(t, ivr.FinalizeHandler, "/api/v1/ivr/twilio/finalize?lang=en&category=electricity", form)
	body := rr.Body.String()

	assert.Equal(t, models.CategoryElectricity, inserted.Category)
	assert.Equal(t, 100, inserted.PriorityScore)
	assert.Equal(t, models.PriorityUrgent, inserted.Priority)
	assert.Equal(t, "IVR Electricity Report", inserted.Title)
	assert.Equal(t, "Electricity Board", inserted.SuggestedDepartment)
	assert.Equal(t, "There is a live wire near the school and children are in danger", inserted.Description)
	assert.Equal(t, "Approx caller area: New Delhi, DL, IN", inserted.Address)
	assert.Equal(t, "New Delhi", inserted.City)
	assert.Equal(t, "submitted", inserted.Status)
	assert.Len(t, inserted.StatusHistory, 1)
	assert.Equal(t, "Report submitted via IVR", inserted.StatusHistory[0].Comment)

	assert.Contains(t, body, "Thank you. Your issue has been registered.")
	assert.Contains(t, body, inserted.TicketID())
	assert.Contains(t, body, "<Hangup/>")
}

func TestIVR_FinalizeHandler_NoSpeechUsesFallbackDescription(t *testing.T) {
	callerDB := &mocksdb.CallerDatabase{}
	callerDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	callerDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Caller")).Return("caller-id", nil)

	var inserted models.Complaint
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Complaint")).
		Return("complaint-id", nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.Complaint)
		})

	ivr := newTestIVR(cdb, callerDB)

	form := url.Values{}
	form.Set("From", "+919876543210")
	rr := postForm(t, ivr.FinalizeHandler, "/api/v1/ivr/twilio/finalize?lang=hi&category=garbage", form)

	assert.Equal(t, "Voice transcript capture nahi hua.", inserted.Description)
	assert.Equal(t, models.CategoryGarbage, inserted.Category)
	assert.Contains(t, rr.Body.String(), "Dhanyavaad")
}

func TestIVR_FinalizeHandler_InvalidCategoryParamFallsBackToOther(t *testing.T) {
	callerDB := &mocksdb.CallerDatabase{}
	callerDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	callerDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Caller")).Return("caller-id", nil)

	var inserted models.Complaint
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Complaint")).
		Return("complaint-id", nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.Complaint)
		})

	ivr := newTestIVR(cdb, callerDB)

	form := url.Values{}
	form.Set("From", "+919876543210")
	form.Set("SpeechResult", "kuch bhi")
	postForm(t, ivr.FinalizeHandler, "/api/v1/ivr/twilio/finalize?lang=hi&category=%22injected%22", form)

	assert.Equal(t, models.CategoryOther, inserted.Category)
}

func TestIVR_FinalizeHandler_MissingCallerNumber(t *testing.T) {
	cdb := &mocksdb.ComplaintDatabase{}
	ivr := newTestIVR(cdb, &mocksdb.CallerDatabase{})

	form := url.Values{}
	form.Set("SpeechResult", "pani nahi aa raha")
	rr := postForm(t, ivr.FinalizeHandler, "/api/v1/ivr/twilio/finalize?lang=hi&category=water_supply", form)

	assert.Contains(t, rr.Body.String(), "Could not identify caller number. Please try again.")
	assert.Contains(t, rr.Body.String(), "<Hangup/>")
	cdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestIVR_FinalizeHandler_InsertFailure(t *testing.T) {
	callerDB := &mocksdb.CallerDatabase{}
	callerDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	callerDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Caller")).Return("caller-id", nil)

	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Complaint")).
		Return(nil, errors.New("mocked-error"))

	ivr := newTestIVR(cdb, callerDB)

	form := url.Values{}
	form.Set("From", "+919876543210")
	form.Set("SpeechResult", "sadak tut gayi hai")
	rr := postForm(t, ivr.FinalizeHandler, "/api/v1/ivr/twilio/finalize?lang=hi&category=road_issue", form)

	assert.Contains(t, rr.Body.String(), "We could not register your issue right now. Please try again later.")
	assert.Contains(t, rr.Body.String(), "<Hangup/>")
}
