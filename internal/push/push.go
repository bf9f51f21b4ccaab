// Package push delivers web push messages to subscribed browser endpoints.
package push

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrStaleSubscription is returned when the push endpoint reports the
// subscription no longer exists. Callers should delete the stored
// subscription rather than retry.
var ErrStaleSubscription = errors.New("stale push subscription")

// Sender delivers a payload to a push endpoint.
type Sender interface {
	Send(ctx context.Context, endpoint string, payload []byte) error
}

// HTTPSender posts payloads directly to the push service endpoint.
type HTTPSender struct {
	client *http.Client
	ttl    int
}

// NewHTTPSender creates a push sender with sane timeouts.
func NewHTTPSender() *HTTPSender {
	return &HTTPSender{
		client: &http.Client{Timeout: 10 * time.Second},
		ttl:    3600,
	}
}

func (s *HTTPSender) Send(ctx context.Context, endpoint string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("TTL", fmt.Sprintf("%d", s.ttl))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrStaleSubscription
	case resp.StatusCode >= 300:
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}
