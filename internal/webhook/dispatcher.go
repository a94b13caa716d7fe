// Package webhook delivers best-effort JSON notifications about
// ingested messages to a subscriber URL.
package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// EventMessageReceived is the only notification kind currently emitted.
const EventMessageReceived = "message.received"

const dispatchTimeout = 5 * time.Second

// Notification is the fixed outbound payload shape.
type Notification struct {
	Event   string              `json:"event"`
	Message NotificationMessage `json:"message"`
}

// NotificationMessage describes one ingested message.
type NotificationMessage struct {
	ID        int64  `json:"id"`
	From      string `json:"from"`
	Text      string `json:"text"`
	MediaType string `json:"mediaType"`
	MediaURL  string `json:"mediaUrl,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Dispatcher posts notifications with a bounded timeout. Delivery is
// single-shot: no retry, no backoff, no queue.
type Dispatcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher. A nil logger disables logging.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		client: &http.Client{Timeout: dispatchTimeout},
		logger: logger,
	}
}

// Dispatch issues one POST to url. Failures are logged and absorbed;
// this never returns an error and never panics, so callers can run it
// in a detached goroutine without supervision.
func (d *Dispatcher) Dispatch(url string, n Notification) {
	body, err := json.Marshal(n)
	if err != nil {
		d.logger.Error("webhook payload marshal failed", zap.Error(err))
		return
	}

	resp, err := d.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		d.logger.Error("webhook delivery failed",
			zap.String("url", url),
			zap.Int64("message_id", n.Message.ID),
			zap.Error(err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Warn("webhook delivery rejected",
			zap.String("url", url),
			zap.Int64("message_id", n.Message.ID),
			zap.Int("status", resp.StatusCode))
		return
	}

	d.logger.Info("webhook delivered",
		zap.String("url", url),
		zap.Int64("message_id", n.Message.ID))
}
