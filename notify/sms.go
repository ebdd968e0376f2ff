package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"

// SMSResult reports the outcome of an SMS dispatch. Sending never raises;
// failures come back as a reason string.
type SMSResult struct {
	Sent   bool   `json:"sent"`
	SID    string `json:"sid,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// SMSNotifier sends confirmation texts through the Twilio Messages API.
type SMSNotifier struct {
	AccountSID string
	AuthToken  string
	From       string
	Timeout    time.Duration
	BaseURL    string
	HTTPClient *http.Client
}

// NewSMSNotifier returns a notifier with a short send timeout so a slow
// provider can never hold up the webhook response path.
func NewSMSNotifier(accountSID, authToken, from string) *SMSNotifier {
	return &SMSNotifier{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		Timeout:    5 * time.Second,
	}
}

// Send posts one message to the destination number. Missing configuration and
// transport failures are reported in the result, never as an error.
func (n *SMSNotifier) Send(ctx context.Context, to, body string) SMSResult {
	if n.AccountSID == "" || n.AuthToken == "" || n.From == "" || to == "" {
		return SMSResult{Sent: false, Reason: "missing_twilio_sms_config"}
	}

	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	baseURL := n.BaseURL
	if baseURL == "" {
		baseURL = defaultTwilioBaseURL
	}
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", baseURL, n.AccountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", n.From)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SMSResult{Sent: false, Reason: "twilio_sms_request_build_failed"}
	}
	req.SetBasicAuth(n.AccountSID, n.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := n.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return SMSResult{Sent: false, Reason: fmt.Sprintf("twilio_sms_transport_error: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return SMSResult{Sent: false, Reason: fmt.Sprintf("twilio_sms_failed_%d", resp.StatusCode)}
	}

	respBody, _ := io.ReadAll(resp.Body)
	var payload struct {
		SID string `json:"sid"`
	}
	_ = json.Unmarshal(respBody, &payload)

	return SMSResult{Sent: true, SID: payload.SID}
}
