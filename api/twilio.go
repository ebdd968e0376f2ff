package api

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/civicsetu/civic-voice-api/config"
)

// TwilioSignatureHeader carries the provider's request signature.
const TwilioSignatureHeader = "X-Twilio-Signature"

// ExpectedTwilioSignature computes the signature Twilio attaches to a webhook:
// an HMAC-SHA1 over the full request URL concatenated with every POST
// parameter key and value, keys sorted ascending, base64-encoded.
func ExpectedTwilioSignature(authToken, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := url
	for _, k := range keys {
		payload += k + params[k]
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyTwilioSignature checks a provided signature in constant time. Malformed
// or missing input is treated as invalid; mismatched-length signatures are
// rejected without comparing further.
func VerifyTwilioSignature(authToken, url string, params map[string]string, provided string) bool {
	if authToken == "" || provided == "" {
		return false
	}
	expected := ExpectedTwilioSignature(authToken, url, params)
	return hmac.Equal([]byte(expected), []byte(provided))
}

// TwilioMiddleware guards the IVR webhook routes with signature verification
type TwilioMiddleware struct {
	Config config.Config
}

// Verify rejects webhook requests whose signature does not match. When the
// validation toggle is off, all requests are treated as trusted; that is a
// documented operational risk, not something this layer second-guesses.
func (t TwilioMiddleware) Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Config.ValidateTwilioSignature {
			next.ServeHTTP(w, r)
			return
		}

		if err := r.ParseForm(); err != nil {
			unauthorizedTwilio(w, r)
			return
		}
		params := make(map[string]string, len(r.PostForm))
		for k, v := range r.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}

		url := t.Config.BaseURL + r.URL.RequestURI()
		provided := r.Header.Get(TwilioSignatureHeader)
		if !VerifyTwilioSignature(t.Config.TwilioAuthToken, url, params, provided) {
			unauthorizedTwilio(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorizedTwilio(w http.ResponseWriter, r *http.Request) {
	zap.S().Warnw("rejected webhook with invalid twilio signature",
		"url", r.URL.Path,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"success": false, "message": "Invalid Twilio signature"}`))
}
