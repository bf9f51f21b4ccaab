package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"linkparty/internal/middleware"
	"linkparty/internal/models"
	"linkparty/internal/observability"
	"linkparty/internal/repository"

	"gorm.io/datatypes"
)

// webhookTolerance bounds how far a webhook timestamp may drift from server
// time before the request is rejected as a possible replay.
const webhookTolerance = 5 * time.Minute

// WebhookService verifies and ingests signed email provider events.
type WebhookService struct {
	secret    []byte
	eventRepo repository.EmailEventRepository
	now       func() time.Time
}

// NewWebhookService returns a new WebhookService. The secret may carry the
// provider's "whsec_" prefix, in which case the key is the base64-decoded
// remainder.
func NewWebhookService(secret string, eventRepo repository.EmailEventRepository) *WebhookService {
	key := []byte(secret)
	if trimmed, ok := strings.CutPrefix(secret, "whsec_"); ok {
		if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
			key = decoded
		}
	}
	return &WebhookService{
		secret:    key,
		eventRepo: eventRepo,
		now:       time.Now,
	}
}

// VerifySignature checks a provider signature header against the request.
// The signed content is `{id}.{timestamp}.{body}`; the header carries one or
// more space-separated `v1,<base64>` candidates and any one matching the
// HMAC-SHA256 of the content accepts the request. Timestamps outside the
// tolerance window are rejected regardless of signature.
func (s *WebhookService) VerifySignature(id, timestamp string, body []byte, signatureHeader string) error {
	if id == "" || timestamp == "" || signatureHeader == "" {
		return models.NewUnauthorizedError("Missing webhook signature headers")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return models.NewUnauthorizedError("Invalid webhook timestamp")
	}
	drift := s.now().Sub(time.Unix(ts, 0))
	if drift > webhookTolerance || drift < -webhookTolerance {
		return models.NewUnauthorizedError("Webhook timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s.%s.", id, timestamp)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, candidate := range strings.Fields(signatureHeader) {
		version, sig, ok := strings.Cut(candidate, ",")
		if !ok || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return models.NewUnauthorizedError("Invalid webhook signature")
}

// Ingest records a verified provider event. Storage failures are logged and
// swallowed: the provider retries on non-2xx, and replaying analytics rows
// is worse than losing one. A missing event table is the exception, since no
// retry can succeed until the schema is migrated.
func (s *WebhookService) Ingest(ctx context.Context, eventType models.EmailEventType, emailID, recipient string, payload []byte) error {
	if !models.ValidEmailEventType(eventType) {
		return models.NewValidationError(fmt.Sprintf("unknown email event type %q", eventType))
	}

	observability.WebhookEventsTotal.WithLabelValues(string(eventType)).Inc()

	event := &models.EmailEvent{
		Type:      eventType,
		EmailID:   emailID,
		Recipient: recipient,
		Payload:   datatypes.JSON(payload),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if repository.IsMissingTable(err) {
			return models.NewInternalError(fmt.Errorf("email event table missing: %w", err))
		}
		middleware.Logger.WarnContext(ctx, "email event insert failed",
			"type", string(eventType), "email_id", emailID, "error", err)
	}
	return nil
}
