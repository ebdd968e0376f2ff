package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds the project config values, read once at startup
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string

	// Twilio voice/SMS settings
	TwilioAccountSID        string
	TwilioAuthToken         string
	TwilioSMSFrom           string
	ValidateTwilioSignature bool

	// defaults applied when a call carries no usable geo hints
	DefaultCity      string
	DefaultState     string
	DefaultLatitude  float64
	DefaultLongitude float64

	// Gemini prioritization settings
	AIEnabled     bool
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration

	// staff auth + escalation
	StaffEmail           string
	StaffPasswordHash    string
	StaffJWTSecret       string
	SendgridAPIKey       string
	EscalationEmailTo    string
	EscalationEmailFrom  string
	ReprioritizeSchedule string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         os.Getenv("PORT"),

		TwilioAccountSID:        os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:         os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioSMSFrom:           os.Getenv("TWILIO_SMS_FROM"),
		ValidateTwilioSignature: os.Getenv("IVR_VALIDATE_TWILIO_SIGNATURE") == "true",

		DefaultCity:      envOrDefault("IVR_DEFAULT_CITY", "Delhi"),
		DefaultState:     envOrDefault("IVR_DEFAULT_STATE", "Delhi"),
		DefaultLatitude:  envFloat("IVR_DEFAULT_LATITUDE", 28.6139),
		DefaultLongitude: envFloat("IVR_DEFAULT_LONGITUDE", 77.2090),

		AIEnabled:     os.Getenv("AI_PRIORITIZATION_ENABLED") != "false",
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTimeout: envDuration("GEMINI_TIMEOUT_MS", 5000*time.Millisecond),

		StaffEmail:           os.Getenv("STAFF_EMAIL"),
		StaffPasswordHash:    os.Getenv("STAFF_PASSWORD_HASH"),
		StaffJWTSecret:       os.Getenv("STAFF_JWT_SECRET"),
		SendgridAPIKey:       os.Getenv("SENDGRID_API_KEY"),
		EscalationEmailTo:    os.Getenv("ESCALATION_EMAIL_TO"),
		EscalationEmailFrom:  envOrDefault("ESCALATION_EMAIL_FROM", "alerts@civicsetu.local"),
		ReprioritizeSchedule: envOrDefault("REPRIORITIZE_SCHEDULE", "@every 15m"),
	}

}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

// envDuration reads a millisecond count from the environment
func envDuration(key string, fallback time.Duration) time.Duration {
	ms, err := strconv.Atoi(os.Getenv(key))
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
	return
}
