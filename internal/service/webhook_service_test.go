package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"linkparty/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
)

type emailEventRepoStub struct {
	createFn      func(context.Context, *models.EmailEvent) error
	listRecentFn  func(context.Context, int) ([]models.EmailEvent, error)
	countByTypeFn func(context.Context, models.EmailEventType) (int64, error)
}

func (s *emailEventRepoStub) Create(ctx context.Context, event *models.EmailEvent) error {
	return s.createFn(ctx, event)
}
func (s *emailEventRepoStub) ListRecent(ctx context.Context, limit int) ([]models.EmailEvent, error) {
	return s.listRecentFn(ctx, limit)
}
func (s *emailEventRepoStub) CountByType(ctx context.Context, eventType models.EmailEventType) (int64, error) {
	return s.countByTypeFn(ctx, eventType)
}

func noopEmailEventRepo() *emailEventRepoStub {
	return &emailEventRepoStub{
		createFn:      func(context.Context, *models.EmailEvent) error { return nil },
		listRecentFn:  func(context.Context, int) ([]models.EmailEvent, error) { return nil, nil },
		countByTypeFn: func(context.Context, models.EmailEventType) (int64, error) { return 0, nil },
	}
}

func signWebhook(key []byte, id, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.", id, timestamp)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookVerifySignature(t *testing.T) {
	svc := NewWebhookService("testsecret", noopEmailEventRepo())
	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }

	body := []byte(`{"type":"email.delivered"}`)
	id := "msg_123"
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := signWebhook([]byte("testsecret"), id, ts, body)

	if err := svc.VerifySignature(id, ts, body, "v1,"+sig); err != nil {
		t.Fatalf("expected valid signature to verify: %v", err)
	}

	// Any one matching candidate in the header is enough.
	header := "v1,bm90LXRoZS1zaWc= v1," + sig
	if err := svc.VerifySignature(id, ts, body, header); err != nil {
		t.Fatalf("expected multi-candidate header to verify: %v", err)
	}
}

func TestWebhookVerifySignatureTamperedBody(t *testing.T) {
	svc := NewWebhookService("testsecret", noopEmailEventRepo())
	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }

	ts := strconv.FormatInt(now.Unix(), 10)
	sig := signWebhook([]byte("testsecret"), "msg_123", ts, []byte(`{"a":1}`))

	err := svc.VerifySignature("msg_123", ts, []byte(`{"a":2}`), "v1,"+sig)
	assertAppErrorCode(t, err, "UNAUTHORIZED")
}

func TestWebhookVerifySignatureStaleTimestamp(t *testing.T) {
	svc := NewWebhookService("testsecret", noopEmailEventRepo())
	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }

	body := []byte(`{}`)
	stale := strconv.FormatInt(now.Add(-6*time.Minute).Unix(), 10)
	sig := signWebhook([]byte("testsecret"), "msg_123", stale, body)

	err := svc.VerifySignature("msg_123", stale, body, "v1,"+sig)
	assertAppErrorCode(t, err, "UNAUTHORIZED")
}

func TestWebhookVerifySignatureMissingHeaders(t *testing.T) {
	svc := NewWebhookService("testsecret", noopEmailEventRepo())
	err := svc.VerifySignature("", "", []byte(`{}`), "")
	assertAppErrorCode(t, err, "UNAUTHORIZED")
}

func TestWebhookVerifySignaturePrefixedSecret(t *testing.T) {
	rawKey := []byte("prefixed-key-material")
	secret := "whsec_" + base64.StdEncoding.EncodeToString(rawKey)
	svc := NewWebhookService(secret, noopEmailEventRepo())
	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }

	body := []byte(`{"type":"email.bounced"}`)
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := signWebhook(rawKey, "msg_9", ts, body)

	if err := svc.VerifySignature("msg_9", ts, body, "v1,"+sig); err != nil {
		t.Fatalf("expected decoded whsec_ key to verify: %v", err)
	}
}

func TestWebhookIngest(t *testing.T) {
	var stored *models.EmailEvent
	repo := noopEmailEventRepo()
	repo.createFn = func(_ context.Context, event *models.EmailEvent) error {
		stored = event
		return nil
	}
	svc := NewWebhookService("testsecret", repo)

	err := svc.Ingest(context.Background(), models.EmailEventDelivered, "msg_123", "bob@example.com", []byte(`{"ok":true}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.Type != models.EmailEventDelivered || stored.EmailID != "msg_123" {
		t.Fatalf("unexpected stored event: %+v", stored)
	}
}

func TestWebhookIngestUnknownType(t *testing.T) {
	svc := NewWebhookService("testsecret", noopEmailEventRepo())
	err := svc.Ingest(context.Background(), "email.exploded", "msg_123", "", nil)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestWebhookIngestSwallowsStorageFailure(t *testing.T) {
	repo := noopEmailEventRepo()
	repo.createFn = func(context.Context, *models.EmailEvent) error {
		return models.NewInternalError(context.DeadlineExceeded)
	}
	svc := NewWebhookService("testsecret", repo)

	if err := svc.Ingest(context.Background(), models.EmailEventOpened, "msg_123", "", nil); err != nil {
		t.Fatalf("expected storage failure to be swallowed, got %v", err)
	}
}

func TestWebhookIngestMissingTableFailsHard(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"postgres", &pgconn.PgError{Code: "42P01"}},
		{"sqlite", errors.New("no such table: email_events")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := noopEmailEventRepo()
			repo.createFn = func(context.Context, *models.EmailEvent) error {
				return models.NewInternalError(tc.err)
			}
			svc := NewWebhookService("testsecret", repo)

			err := svc.Ingest(context.Background(), models.EmailEventOpened, "msg_123", "", nil)
			assertAppErrorCode(t, err, "INTERNAL_ERROR")
		})
	}
}
