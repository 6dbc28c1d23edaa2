// Package notify delivers lifecycle events to the other party's device.
// Delivery is advisory: a missing token or a gateway failure is logged and
// swallowed, never surfaced to the flow that produced the event.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/luxtouch/spadispatch/internal/domain"
	"github.com/luxtouch/spadispatch/internal/kafka"
)

type TokenStore interface {
	Get(ctx context.Context, userID string) (string, error)
}

type Sender struct {
	client     *http.Client
	gatewayURL string
	tokens     TokenStore
	log        *zap.Logger
}

func NewSender(gatewayURL string, timeout time.Duration, tokens TokenStore, log *zap.Logger) *Sender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Sender{
		client:     &http.Client{Timeout: timeout},
		gatewayURL: gatewayURL,
		tokens:     tokens,
		log:        log,
	}
}

type pushMessage struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Send resolves the recipient's device token and posts the message to the
// push gateway. At-most-once, no retry.
func (s *Sender) Send(ctx context.Context, event kafka.LifecycleEvent) error {
	token, err := s.tokens.Get(ctx, event.RecipientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Debug("no device token registered", zap.String("recipient", event.RecipientID))
			return nil
		}
		s.log.Warn("token lookup failed", zap.String("recipient", event.RecipientID), zap.Error(err))
		return nil
	}

	payload, err := json.Marshal(pushMessage{
		Token: token,
		Title: event.Title,
		Body:  event.Body,
		Data:  event.Data,
	})
	if err != nil {
		s.log.Warn("marshal push message", zap.Error(err))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		s.log.Warn("build push request", zap.Error(err))
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("push delivery failed", zap.String("type", event.Type), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn("push gateway rejected message",
			zap.String("type", event.Type),
			zap.String("status", fmt.Sprintf("%d", resp.StatusCode)))
		return nil
	}

	s.log.Info("push delivered", zap.String("type", event.Type), zap.String("recipient", event.RecipientID))
	return nil
}
