// Package ingest converts normalized inbound protocol events into
// persisted message records and webhook notifications.
package ingest

import (
	"context"
	"fmt"

	"github.com/wahook/wahook/internal/bus"
	"github.com/wahook/wahook/internal/media"
	"github.com/wahook/wahook/internal/store"
	"github.com/wahook/wahook/internal/wa"
	"github.com/wahook/wahook/internal/webhook"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.uber.org/zap"
)

// Downloader fetches inbound image payloads through the live session.
type Downloader interface {
	DownloadImage(ctx context.Context, img *waE2E.ImageMessage) ([]byte, error)
}

// Notifier delivers one webhook notification, absorbing all failures.
type Notifier interface {
	Dispatch(url string, n webhook.Notification)
}

// Engine handles ingestion of inbound messages. It subscribes to "wa."
// events on the bus and processes them on a dedicated goroutine.
type Engine struct {
	db         *store.DB
	media      *media.Store
	downloader Downloader
	notifier   Notifier
	bus        *bus.Bus
	logger     *zap.Logger
	cancel     context.CancelFunc
}

// NewEngine creates an ingestion engine. A nil logger disables logging.
func NewEngine(db *store.DB, m *media.Store, dl Downloader, n Notifier, b *bus.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:         db,
		media:      m,
		downloader: dl,
		notifier:   n,
		bus:        b,
		logger:     logger,
	}
}

// Start subscribes to inbound protocol events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe("wa.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(ctx, evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) handleEvent(ctx context.Context, evt bus.Event) {
	if evt.Kind != bus.KindInboundMessage {
		return
	}
	in, ok := evt.Payload.(*wa.Inbound)
	if !ok {
		return
	}
	if err := e.IngestInbound(ctx, in); err != nil {
		e.logger.Error("failed to ingest message", zap.Error(err), zap.String("sender", in.Sender))
	}
}

// IngestInbound persists one inbound message and triggers the webhook
// notification. Media capture is fail-open: if the image download or
// the disk write fails, the message is still recorded as plain text
// with whatever caption it carried.
func (e *Engine) IngestInbound(ctx context.Context, in *wa.Inbound) error {
	var imgData []byte
	if in.Image != nil {
		data, err := e.downloader.DownloadImage(ctx, in.Image)
		if err != nil {
			e.logger.Warn("media download failed, capturing as text",
				zap.String("sender", in.Sender), zap.Error(err))
		} else {
			imgData = data
		}
	}

	msg := &store.Message{
		Direction:  store.DirectionIncoming,
		Sender:     in.Sender,
		SenderName: in.PushName,
		Body:       in.Text,
		Status:     store.StatusUnread,
		MediaType:  store.MediaText,
	}
	id, err := e.db.InsertMessage(msg)
	if err != nil {
		return fmt.Errorf("persist message: %w", err)
	}

	// The row exists before the binary: the file name is derived from
	// the assigned id.
	if imgData != nil {
		name, err := e.media.Save(id, imgData)
		if err != nil {
			e.logger.Warn("media write failed, keeping text record",
				zap.Int64("message_id", id), zap.Error(err))
		} else if err := e.db.UpdateMessageMedia(id, store.MediaImage, name); err != nil {
			e.logger.Warn("media reference update failed",
				zap.Int64("message_id", id), zap.Error(err))
		} else {
			msg.MediaType = store.MediaImage
			msg.MediaURL = name
		}
	}

	e.logger.Info("message ingested",
		zap.Int64("message_id", id),
		zap.String("sender", in.Sender),
		zap.String("media_type", msg.MediaType))

	e.notify(msg)
	return nil
}

// notify dispatches the webhook notification for a persisted message
// in a detached goroutine. Ingestion never waits on delivery.
func (e *Engine) notify(m *store.Message) {
	wh, err := e.db.ActiveWebhook(webhook.EventMessageReceived)
	if err != nil {
		e.logger.Error("webhook lookup failed", zap.Error(err))
		return
	}
	if wh == nil {
		return
	}

	n := webhook.Notification{
		Event: webhook.EventMessageReceived,
		Message: webhook.NotificationMessage{
			ID:        m.ID,
			From:      m.Sender,
			Text:      m.Body,
			MediaType: m.MediaType,
			MediaURL:  m.MediaURL,
			Timestamp: m.CreatedAt,
		},
	}
	go e.notifier.Dispatch(wh.URL, n)
}
