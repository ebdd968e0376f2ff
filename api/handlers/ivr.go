package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civicsetu/civic-voice-api/api"
	"github.com/civicsetu/civic-voice-api/config"
	"github.com/civicsetu/civic-voice-api/databases"
	"github.com/civicsetu/civic-voice-api/models"
	"github.com/civicsetu/civic-voice-api/notify"
	"github.com/civicsetu/civic-voice-api/priority"
)

// webhook paths for each state of the call flow; every redirect and gather
// action points at one of these
const (
	ivrPathEntry    = "/api/v1/ivr/twilio"
	ivrPathIncoming = "/api/v1/ivr/twilio/incoming"
	ivrPathLanguage = "/api/v1/ivr/twilio/language"
	ivrPathCategory = "/api/v1/ivr/twilio/category"
	ivrPathFinalize = "/api/v1/ivr/twilio/finalize"
)

var languageByDigit = map[string]string{
	"1": "en",
	"2": "hi",
}

var categoryByDigit = map[string]models.Category{
	"1": models.CategoryRoadIssue,
	"2": models.CategoryWaterSupply,
	"3": models.CategoryElectricity,
	"4": models.CategoryGarbage,
	"5": models.CategoryDrainage,
	"6": models.CategoryStreetLight,
	"7": models.CategoryTraffic,
	"8": models.CategoryPollution,
	"9": models.CategoryEncroachment,
	"0": models.CategoryOther,
}

// IVR handles the telephone complaint intake flow. Each handler is one state
// of the conversation; state travels exclusively in the callback URL query
// parameters, never in server memory.
type IVR struct {
	Config    config.Config
	Directory *CallerDirectory
	Engine    *priority.Engine
	Analyzer  *priority.Analyzer
	CDB       databases.ComplaintDatabase
	SMS       *notify.SMSNotifier
	Mailer    *notify.EscalationMailer
	Feed      *ComplaintFeed
}

func speechLocale(language string) string {
	if language == "en" {
		return "en-IN"
	}
	return "hi-IN"
}

// queryLanguage reads the language hint carried forward in the callback URL.
// An unmapped value falls back to hindi; the hint gates nothing
// security-relevant.
func queryLanguage(r *http.Request) string {
	if r.URL.Query().Get("lang") == "en" {
		return "en"
	}
	return "hi"
}

// EntryHandler answers the very first webhook of a call and redirects into the
// greeting state.
func (h IVR) EntryHandler(w http.ResponseWriter, r *http.Request) {
	incomingURL := buildIVRURL(h.Config.BaseURL, ivrPathIncoming, nil)
	writeTwiML(w, twimlRedirect(incomingURL))
}

// IncomingHandler greets the caller and gathers the language digit. A missing
// digit redirects back here so the caller is never left without instruction.
func (h IVR) IncomingHandler(w http.ResponseWriter, r *http.Request) {
	zap.S().Infow("ivr incoming",
		"from", r.FormValue("From"),
		"callSid", r.FormValue("CallSid"),
	)

	languageURL := buildIVRURL(h.Config.BaseURL, ivrPathLanguage, nil)
	incomingURL := buildIVRURL(h.Config.BaseURL, ivrPathIncoming, nil)

	gather := twimlGatherDigits(languageURL, 8,
		twimlSay("hi-IN", "Namaskar. Bhasha chunein. Hindi ke liye 2 dabayen. English ke liye 1 dabayen."))
	writeTwiML(w, gather+twimlRedirect(incomingURL))
}

// LanguageHandler maps the language digit and gathers the category digit.
func (h IVR) LanguageHandler(w http.ResponseWriter, r *http.Request) {
	digit := r.FormValue("Digits")
	language, ok := languageByDigit[digit]
	if !ok {
		language = "hi"
	}
	zap.S().Infow("ivr language",
		"digit", digit,
		"language", language,
		"callSid", r.FormValue("CallSid"),
	)

	categoryURL := buildIVRURL(h.Config.BaseURL, ivrPathCategory, map[string]string{"lang": language})
	languageURL := buildIVRURL(h.Config.BaseURL, ivrPathLanguage, map[string]string{"lang": language})

	gather := twimlGatherDigits(categoryURL, 10,
		twimlSay(speechLocale(language), categoryPrompt(language)))
	writeTwiML(w, gather+twimlRedirect(languageURL))
}

// CategoryHandler maps the category digit and gathers free-form speech with
// provider-side capture.
func (h IVR) CategoryHandler(w http.ResponseWriter, r *http.Request) {
	language := queryLanguage(r)
	digit := r.FormValue("Digits")
	category, ok := categoryByDigit[digit]
	if !ok {
		category = models.CategoryOther
	}
	zap.S().Infow("ivr category",
		"digit", digit,
		"category", category,
		"language", language,
		"callSid", r.FormValue("CallSid"),
	)

	finalizeURL := buildIVRURL(h.Config.BaseURL, ivrPathFinalize, map[string]string{
		"lang":     language,
		"category": category.String(),
	})
	categoryURL := buildIVRURL(h.Config.BaseURL, ivrPathCategory, map[string]string{"lang": language})

	hints := strings.Join([]string{
		"sector", "road", "street", "gali", "nagar", "near", "pani", "bijli",
		"kachra", "drainage", "street light", "Delhi", "Noida", "Gurgaon",
	}, ",")

	gather := twimlGatherSpeech(finalizeURL, speechLocale(language), hints,
		twimlSay(speechLocale(language), descriptionPrompt(language)))
	writeTwiML(w, gather+twimlRedirect(categoryURL))
}

// FinalizeHandler turns the captured transcript into a persisted complaint:
// classify, resolve the caller, create the record, fire the confirmation SMS
// and read back the ticket number.
func (h IVR) FinalizeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	language := queryLanguage(r)
	callSid := r.FormValue("CallSid")

	// forwarded category is an untrusted hint; anything outside the fixed
	// vocabulary collapses to "other"
	category := models.Category(r.URL.Query().Get("category"))
	if !category.IsValid() {
		category = models.CategoryOther
	}

	callerPhone := r.FormValue("From")
	speech := strings.TrimSpace(r.FormValue("SpeechResult"))
	callerCity := strings.TrimSpace(r.FormValue("CallerCity"))
	callerState := strings.TrimSpace(r.FormValue("CallerState"))
	callerCountry := strings.TrimSpace(r.FormValue("CallerCountry"))

	zap.S().Infow("ivr finalize",
		"language", language,
		"category", category,
		"hasSpeech", speech != "",
		"callSid", callSid,
	)

	fallbackDescription := "Voice transcript was not captured."
	if language == "hi" {
		fallbackDescription = "Voice transcript capture nahi hua."
	}

	var aiSummary, addressHint, reporterName string
	if cls := h.Analyzer.Classify(ctx, speech, language, category); cls != nil {
		if cls.Category != "" {
			category = cls.Category
		}
		aiSummary = cls.Description
		addressHint = cls.AddressHint
		reporterName = cls.ReporterName
	} else if speech != "" {
		zap.S().Infow("classifier unavailable, running on rules only",
			"callSid", callSid,
			"state", "finalize",
		)
	}

	description := fallbackDescription
	switch {
	case speech != "" && aiSummary != "":
		description = fmt.Sprintf("Transcript: %s\nAI Summary: %s", speech, aiSummary)
	case speech != "":
		description = speech
	case aiSummary != "":
		description = aiSummary
	}

	caller, err := h.Directory.Resolve(ctx, callerPhone, language)
	if err != nil {
		zap.S().Errorw("ivr caller resolution failed",
			"callSid", callSid,
			"state", "finalize",
			"error", err.Error(),
		)
		writeTwiML(w, twimlSay("en-IN", "We could not register your issue right now. Please try again later.")+twimlHangup())
		return
	}
	if caller == nil {
		writeTwiML(w, twimlSay("en-IN", "Could not identify caller number. Please try again.")+twimlHangup())
		return
	}

	h.Directory.ApplyLearnedName(ctx, caller, reporterName)

	title := fmt.Sprintf("IVR %s Report", categoryTitle(category))
	assessment := h.Engine.Assess(category, title+" "+description, 0)

	address := addressHint
	if address == "" {
		parts := make([]string, 0, 3)
		for _, p := range []string{callerCity, callerState, callerCountry} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			address = "Approx caller area: " + strings.Join(parts, ", ")
		} else if callerPhone != "" {
			address = "Reported via IVR from " + callerPhone
		} else {
			address = "Reported via IVR from unknown number"
		}
	}

	city := callerCity
	if city == "" {
		city = caller.City
	}
	if city == "" {
		city = h.Config.DefaultCity
	}

	latitude, longitude := caller.Latitude, caller.Longitude
	if latitude == 0 && longitude == 0 {
		latitude, longitude = h.Config.DefaultLatitude, h.Config.DefaultLongitude
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	complaint := models.Complaint{
		ID:                  primitive.NewObjectID(),
		ReporterID:          caller.ID,
		Title:               title,
		Description:         description,
		Category:            assessment.Category,
		Priority:            assessment.Priority,
		PriorityScore:       assessment.Score,
		PriorityReasoning:   assessment.Reasoning,
		SuggestedDepartment: assessment.SuggestedDepartment,
		Tags:                assessment.Tags,
		Address:             address,
		Locality:            callerCity,
		City:                city,
		Latitude:            latitude,
		Longitude:           longitude,
		Status:              "submitted",
		StatusHistory: []models.StatusChange{
			{
				Status:      "submitted",
				ChangedByID: caller.ID,
				Comment:     "Report submitted via IVR",
				ChangedAt:   now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := h.CDB.InsertOne(ctx, complaint); err != nil {
		zap.S().Errorw("ivr complaint creation failed",
			"callSid", callSid,
			"state", "finalize",
			"error", err.Error(),
		)
		writeTwiML(w, twimlSay("en-IN", "We could not register your issue right now. Please try again later.")+twimlHangup())
		return
	}

	ticket := complaint.TicketID()
	h.dispatchNotifications(complaint, NormalizePhone(callerPhone), ticket, callSid)

	writeTwiML(w, twimlSay(speechLocale(language), thankYouPrompt(language, ticket))+twimlHangup())
}

// dispatchNotifications fires the confirmation SMS, the urgent escalation
// email and the staff feed broadcast without holding up the TwiML response.
// Failures here are logged and never change the spoken confirmation.
func (h IVR) dispatchNotifications(complaint models.Complaint, phone, ticket, callSid string) {
	if h.SMS != nil {
		go func() {
			ctx, cancel := api.WithQueryTimeout(context.Background())
			defer cancel()
			body := fmt.Sprintf("Civic Setu: Your complaint ticket %s is registered. Track status in app/dashboard.", ticket)
			result := h.SMS.Send(ctx, phone, body)
			if !result.Sent {
				zap.S().Warnw("ivr confirmation sms not sent",
					"callSid", callSid,
					"ticket", ticket,
					"reason", result.Reason,
				)
			}
		}()
	}

	if h.Mailer != nil && h.Mailer.Enabled() && complaint.Priority == models.PriorityUrgent {
		go func() {
			if err := h.Mailer.Send(complaint); err != nil {
				zap.S().Warnw("urgent escalation email failed",
					"ticket", ticket,
					"error", err.Error(),
				)
			}
		}()
	}

	if h.Feed != nil {
		h.Feed.Broadcast(complaint)
	}
}

func categoryTitle(category models.Category) string {
	words := strings.Split(category.String(), "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func categoryPrompt(language string) string {
	if language == "hi" {
		return strings.Join([]string{
			"Sadak samasya ke liye 1 dabayen.",
			"Pani ke liye 2.",
			"Bijli ke liye 3.",
			"Kachra ke liye 4.",
			"Drainage ke liye 5.",
			"Street light ke liye 6.",
			"Traffic ke liye 7.",
			"Pradushan ke liye 8.",
			"Atikraman ke liye 9.",
			"Anya ke liye 0 dabayen.",
		}, " ")
	}
	return strings.Join([]string{
		"Press 1 for road issue.",
		"Press 2 for water.",
		"Press 3 for electricity.",
		"Press 4 for garbage.",
		"Press 5 for drainage.",
		"Press 6 for street light.",
		"Press 7 for traffic.",
		"Press 8 for pollution.",
		"Press 9 for encroachment.",
		"Press 0 for other issues.",
	}, " ")
}

func descriptionPrompt(language string) string {
	if language == "hi" {
		return "Ab tone aayegi. Tone ke baad pehle apna naam, phir samasya, aur exact location ya landmark dheere boliye."
	}
	return "You will hear a tone now. After the tone, say your name, issue, and exact location or nearby landmark slowly."
}

func thankYouPrompt(language, ticketID string) string {
	if language == "hi" {
		return fmt.Sprintf("Dhanyavaad. Aapki shikayat darj ho gayi hai. Aapka ticket number %s hai.", ticketID)
	}
	return fmt.Sprintf("Thank you. Your issue has been registered. Your ticket number is %s.", ticketID)
}
