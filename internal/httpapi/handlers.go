// Package httpapi implements the REST surface of the daemon.
package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wahook/wahook/internal/media"
	"github.com/wahook/wahook/internal/status"
	"github.com/wahook/wahook/internal/store"
	"github.com/wahook/wahook/internal/wa"
	"github.com/wahook/wahook/internal/webhook"
	"go.uber.org/zap"
)

// fetchTimeout bounds the download of reply images given by URL.
const fetchTimeout = 10 * time.Second

// Connection is the session capability the handlers depend on.
type Connection interface {
	Status() status.State
	Identity() string
	PairingImage() []byte
	Logout(ctx context.Context) error
	SendText(ctx context.Context, jid, text string) (string, error)
	SendImage(ctx context.Context, jid string, data []byte, mimeType, caption string) (string, error)
}

// API holds the handler dependencies.
type API struct {
	db     *store.DB
	media  *media.Store
	conn   Connection
	logger *zap.Logger
	fetch  *http.Client
}

// New creates the REST handler set. A nil logger disables logging.
func New(db *store.DB, m *media.Store, conn Connection, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		db:     db,
		media:  m,
		conn:   conn,
		logger: logger,
		fetch:  &http.Client{Timeout: fetchTimeout},
	}
}

// Health reports liveness.
func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// QR returns the current pairing image as a base64 PNG. It is only
// meaningful while the session awaits pairing.
func (a *API) QR(c *gin.Context) {
	if a.conn.Status() == status.Connected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "already connected"})
		return
	}
	img := a.conn.PairingImage()
	if img == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "QR code not available yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr": base64.StdEncoding.EncodeToString(img)})
}

// Config returns the provisioned API key together with the connection
// status and incoming message count. Protected by basic auth.
func (a *API) Config(c *gin.Context) {
	key, err := a.db.EnsureAPIKey()
	if err != nil {
		a.logger.Error("failed to provision API key", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	count, err := a.db.CountIncoming()
	if err != nil {
		a.logger.Error("failed to count messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"apiKey": key,
		"status": a.conn.Status(),
		"count":  count,
	})
}

// Status reports the connection state and incoming message count.
func (a *API) Status(c *gin.Context) {
	count, err := a.db.CountIncoming()
	if err != nil {
		a.logger.Error("failed to count messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   a.conn.Status(),
		"identity": a.conn.Identity(),
		"count":    count,
	})
}

// Logout terminates the current session and purges its credentials.
func (a *API) Logout(c *gin.Context) {
	if err := a.conn.Logout(c.Request.Context()); err != nil {
		if errors.Is(err, wa.ErrNotConnected) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "WhatsApp not connected"})
			return
		}
		a.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to logout"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Inbox returns all unread incoming messages, newest first.
func (a *API) Inbox(c *gin.Context) {
	msgs, err := a.db.UnreadIncoming()
	if err != nil {
		a.logger.Error("failed to list inbox", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type replyRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Reply sends a response to the sender of a stored incoming message,
// records the outgoing message, and marks the original as replied.
func (a *API) Reply(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	original, err := a.db.GetMessage(id)
	if err != nil {
		a.logger.Error("failed to load message", zap.Int64("message_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if original == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}

	if a.conn.Status() != status.Connected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "WhatsApp not connected"})
		return
	}

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Text == "" && req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text or image is required"})
		return
	}

	ctx := c.Request.Context()
	mediaType := store.MediaText
	mediaRef := ""
	if req.Image != "" {
		data, err := a.resolveImage(ctx, req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := a.conn.SendImage(ctx, original.Sender, data, "image/jpeg", req.Text); err != nil {
			a.sendFailure(c, id, err)
			return
		}
		mediaType = store.MediaImage
		// Record where the image came from; base64 blobs are not
		// persisted again, only marked.
		mediaRef = "base64"
		if strings.HasPrefix(req.Image, "http://") || strings.HasPrefix(req.Image, "https://") {
			mediaRef = req.Image
		}
	} else {
		if _, err := a.conn.SendText(ctx, original.Sender, req.Text); err != nil {
			a.sendFailure(c, id, err)
			return
		}
	}

	outgoing := &store.Message{
		Direction: store.DirectionOutgoing,
		Sender:    original.Sender,
		Body:      req.Text,
		Status:    store.StatusSent,
		MediaType: mediaType,
		MediaURL:  mediaRef,
	}
	if _, err := a.db.InsertMessage(outgoing); err != nil {
		a.logger.Error("failed to record outgoing message", zap.Error(err))
	}
	if _, err := a.db.UpdateMessageStatus(id, store.StatusReplied); err != nil {
		a.logger.Error("failed to mark message replied", zap.Int64("message_id", id), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "reply sent", "id": outgoing.ID})
}

func (a *API) sendFailure(c *gin.Context, id int64, err error) {
	if errors.Is(err, wa.ErrNotConnected) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "WhatsApp not connected"})
		return
	}
	a.logger.Error("failed to send reply", zap.Int64("message_id", id), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
}

// resolveImage turns the reply image field into raw bytes. The field
// is either an http(s) URL or a base64 blob.
func (a *API) resolveImage(ctx context.Context, img string) ([]byte, error) {
	if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, img, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid image URL")
		}
		resp, err := a.fetch.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image")
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("failed to fetch image")
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image")
		}
		return data, nil
	}

	// Tolerate data URI prefixes from dashboard clients.
	if i := strings.Index(img, ","); i != -1 && strings.HasPrefix(img, "data:") {
		img = img[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(img)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image")
	}
	return data, nil
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus updates the workflow status of a stored message.
func (a *API) SetStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	if !store.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status value"})
		return
	}
	updated, err := a.db.UpdateMessageStatus(id, req.Status)
	if err != nil {
		a.logger.Error("failed to update message status", zap.Int64("message_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

// GetWebhook returns the active webhook subscription, if any.
func (a *API) GetWebhook(c *gin.Context) {
	wh, err := a.db.ActiveWebhook(webhook.EventMessageReceived)
	if err != nil {
		a.logger.Error("failed to load webhook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if wh == nil {
		c.JSON(http.StatusOK, gin.H{"webhook": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"webhook": wh})
}

type webhookRequest struct {
	URL string `json:"url"`
}

// SetWebhook registers the webhook URL, superseding any previous one.
func (a *API) SetWebhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
		return
	}
	if err := a.db.SetWebhook(webhook.EventMessageReceived, req.URL); err != nil {
		a.logger.Error("failed to save webhook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "webhook configured"})
}

// DeleteWebhook deactivates the webhook subscription.
func (a *API) DeleteWebhook(c *gin.Context) {
	if err := a.db.DeleteWebhook(webhook.EventMessageReceived); err != nil {
		a.logger.Error("failed to delete webhook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "webhook removed"})
}
