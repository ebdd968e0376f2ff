package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// EscapeXML escapes dynamic text before it is embedded in a TwiML document.
// Caller-derived and classifier-derived strings must always pass through here.
func EscapeXML(text string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(text)
}

// writeTwiML writes a complete TwiML response document
func writeTwiML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Response>%s</Response>`, body)
}

// twimlSay renders a spoken-text instruction in the given speech locale
func twimlSay(speechLanguage, text string) string {
	return fmt.Sprintf(`<Say language="%s" voice="alice">%s</Say>`, speechLanguage, EscapeXML(text))
}

// twimlRedirect renders a redirect back into the call flow
func twimlRedirect(actionURL string) string {
	return fmt.Sprintf(`<Redirect method="POST">%s</Redirect>`, EscapeXML(actionURL))
}

// twimlGatherDigits renders a single-digit DTMF prompt posting to actionURL
func twimlGatherDigits(actionURL string, timeoutSeconds int, say string) string {
	return fmt.Sprintf(`<Gather input="dtmf" numDigits="1" timeout="%d" action="%s" method="POST">%s</Gather>`,
		timeoutSeconds, EscapeXML(actionURL), say)
}

// twimlGatherSpeech renders a free-form speech capture posting to actionURL.
// Uses provider-side end-of-speech detection and posts even on empty results so
// the finalize step always runs.
func twimlGatherSpeech(actionURL, speechLanguage, hints, say string) string {
	return fmt.Sprintf(`<Gather input="speech" language="%s" hints="%s" speechModel="phone_call" speechTimeout="auto" actionOnEmptyResult="true" action="%s" method="POST">%s</Gather>`,
		speechLanguage, EscapeXML(hints), EscapeXML(actionURL), say)
}

// twimlHangup renders the terminal instruction ending the call
func twimlHangup() string {
	return "<Hangup/>"
}

// buildIVRURL assembles a callback URL carrying the conversation state as
// query parameters. Every URL the flow emits must encode enough state to
// resume the conversation, since no server-side session exists.
func buildIVRURL(baseURL, path string, params map[string]string) string {
	if len(params) == 0 {
		return baseURL + path
	}
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	return baseURL + path + "?" + query.Encode()
}
