package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/civicsetu/civic-voice-api/api"
	"github.com/civicsetu/civic-voice-api/config"
	"github.com/civicsetu/civic-voice-api/databases"
	"github.com/civicsetu/civic-voice-api/models"
	"github.com/civicsetu/civic-voice-api/notify"
	"github.com/civicsetu/civic-voice-api/priority"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Complaint Complaint
	Feed      *ComplaintFeed
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for the staff console middleware
	m := api.MiddlewareAuth{Config: a.Config}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)

	engine := priority.NewEngine()
	var generator priority.TextGenerator
	if a.Config.GeminiAPIKey != "" {
		generator = priority.NewGeminiClient(a.Config.GeminiAPIKey, a.Config.GeminiModel, a.Config.GeminiTimeout)
	}
	analyzer := priority.NewAnalyzer(engine, generator, a.Config.AIEnabled)

	mailer := notify.NewEscalationMailer(a.Config.SendgridAPIKey, a.Config.EscalationEmailFrom, a.Config.EscalationEmailTo)
	sms := notify.NewSMSNotifier(a.Config.TwilioAccountSID, a.Config.TwilioAuthToken, a.Config.TwilioSMSFrom)

	a.Feed = NewComplaintFeed()

	cdb := databases.NewComplaintDatabase(a.dbHelper)
	directory := &CallerDirectory{DB: databases.NewCallerDatabase(a.dbHelper), Config: a.Config}

	ivr := IVR{
		Config:    a.Config,
		Directory: directory,
		Engine:    engine,
		Analyzer:  analyzer,
		CDB:       cdb,
		SMS:       sms,
		Mailer:    mailer,
		Feed:      a.Feed,
	}
	a.Complaint = Complaint{DB: cdb, Analyzer: analyzer, Mailer: mailer, Feed: a.Feed}
	staff := Staff{Config: a.Config}
	metrics := MetricsHandler{}

	twilioMw := api.TwilioMiddleware{Config: a.Config}
	staffJWT := api.JWTMiddleware{Secret: []byte(a.Config.StaffJWTSecret)}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// the websocket feed is long-lived, so only the API routes get a deadline
	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/staff/login", http.HandlerFunc(staff.StaffLoginHandler)).Methods("POST")

	// Twilio posts every webhook; signature verification wraps each state
	apiCreate.Handle("/ivr/twilio", twilioMw.Verify(http.HandlerFunc(ivr.EntryHandler))).Methods("POST")
	apiCreate.Handle("/ivr/twilio/incoming", twilioMw.Verify(http.HandlerFunc(ivr.IncomingHandler))).Methods("POST")
	apiCreate.Handle("/ivr/twilio/language", twilioMw.Verify(http.HandlerFunc(ivr.LanguageHandler))).Methods("POST")
	apiCreate.Handle("/ivr/twilio/category", twilioMw.Verify(http.HandlerFunc(ivr.CategoryHandler))).Methods("POST")
	apiCreate.Handle("/ivr/twilio/finalize", twilioMw.Verify(http.HandlerFunc(ivr.FinalizeHandler))).Methods("POST")

	apiCreate.Handle("/complaint", http.HandlerFunc(a.Complaint.CreateComplaintHandler)).Methods("POST")
	apiCreate.Handle("/complaint/{complaint_id}", api.Middleware(http.HandlerFunc(a.Complaint.ComplaintByIDHandler))).Methods("GET")
	apiCreate.Handle("/complaints", api.Middleware(http.HandlerFunc(a.Complaint.ComplaintsHandler))).Methods("GET")

	// reclassification is staff-only
	apiCreate.Handle("/complaint/{complaint_id}/reclassify", staffJWT.Require(http.HandlerFunc(a.Complaint.ReclassifyComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaints/reprioritize", staffJWT.Require(http.HandlerFunc(a.Complaint.ReprioritizeSweepHandler))).Methods("POST")

	apiCreate.Handle("/metrics", staffJWT.Require(http.HandlerFunc(metrics.GetMetricsSummary))).Methods("GET")

	r.HandleFunc("/ws/complaints", a.Feed.FeedHandler)

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("civic-voice-api has connected to the database")

	api.InitMetrics()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
