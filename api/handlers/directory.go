package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicsetu/civic-voice-api/config"
	"github.com/civicsetu/civic-voice-api/databases"
	"github.com/civicsetu/civic-voice-api/models"
)

// synthesized caller names look like "IVR Caller 123456"; only names still in
// this shape may be overwritten by a name learned from speech
const synthesizedNamePrefix = "IVR Caller "

// CallerDirectory resolves phone numbers to citizen accounts, provisioning a
// minimal account on first contact.
type CallerDirectory struct {
	DB     databases.CallerDatabase
	Config config.Config
}

// NormalizePhone coerces raw phone input to the canonical +<digits> form.
// Already-prefixed numbers keep their plus and lose everything non-numeric;
// anything else is stripped to digits and prefixed. Empty input yields "".
func NormalizePhone(rawPhone string) string {
	trimmed := strings.TrimSpace(rawPhone)
	if trimmed == "" {
		return ""
	}
	digits := keepDigits(trimmed)
	if digits == "" {
		return ""
	}
	return "+" + digits
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve finds the caller account for a phone number, creating a minimal one
// when none exists. An existing caller's language is refreshed when it differs
// from the requested one. Empty or digit-free input returns nil with no error;
// the call flow aborts gracefully on that.
func (d *CallerDirectory) Resolve(ctx context.Context, rawPhone, language string) (*models.Caller, error) {
	normalized := NormalizePhone(rawPhone)
	if normalized == "" {
		return nil, nil
	}

	existing, err := d.DB.FindOne(ctx, bson.M{"phone": normalized})
	if err == nil {
		if language != "" && existing.Language != language {
			_, uErr := d.DB.UpdateOne(ctx,
				bson.M{"_id": existing.ID},
				bson.M{"$set": bson.M{"language": language, "updatedAt": primitive.NewDateTimeFromTime(time.Now())}},
			)
			if uErr != nil {
				zap.S().Warnw("failed to refresh caller language",
					"phone", normalized,
					"error", uErr.Error(),
				)
			} else {
				existing.Language = language
			}
		}
		return existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	return d.provision(ctx, normalized, language)
}

func (d *CallerDirectory) provision(ctx context.Context, phone, language string) (*models.Caller, error) {
	if language == "" {
		language = "hi"
	}

	localPart := keepDigits(phone)
	suffix := localPart
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}

	// the placeholder secret is hashed and thrown away, so the account can
	// never be logged into interactively
	placeholder, err := bcrypt.GenerateFromPassword([]byte("ivr-"+uuid.New().String()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to generate caller password placeholder: %w", err)
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	caller := models.Caller{
		ID:        primitive.NewObjectID(),
		Name:      synthesizedNamePrefix + suffix,
		Email:     fmt.Sprintf("ivr_%s@civicsetu.local", localPart),
		Phone:     phone,
		Password:  string(placeholder),
		Role:      "citizen",
		Language:  language,
		City:      d.Config.DefaultCity,
		State:     d.Config.DefaultState,
		Latitude:  d.Config.DefaultLatitude,
		Longitude: d.Config.DefaultLongitude,
		Verified:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := d.DB.InsertOne(ctx, caller); err != nil {
		return nil, err
	}
	return &caller, nil
}

// ApplyLearnedName updates a caller's display name from speech, but only while
// the stored name still has the synthesized-default shape. Names set through
// any other channel are never overwritten.
func (d *CallerDirectory) ApplyLearnedName(ctx context.Context, caller *models.Caller, learnedName string) {
	learnedName = strings.TrimSpace(learnedName)
	if learnedName == "" || !strings.HasPrefix(caller.Name, synthesizedNamePrefix) {
		return
	}

	_, err := d.DB.UpdateOne(ctx,
		bson.M{"_id": caller.ID},
		bson.M{"$set": bson.M{"name": learnedName, "updatedAt": primitive.NewDateTimeFromTime(time.Now())}},
	)
	if err != nil {
		zap.S().Warnw("failed to apply learned caller name",
			"callerId", caller.ID.Hex(),
			"error", err.Error(),
		)
		return
	}
	caller.Name = learnedName
}
