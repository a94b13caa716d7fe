package wa

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/wahook/wahook/internal/bus"
	"github.com/wahook/wahook/internal/status"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.uber.org/zap"
)

// ErrNotConnected is returned for operations that require a live,
// paired session.
var ErrNotConnected = errors.New("WhatsApp not connected")

// Reconnection delays. A dropped connection retries after the longer
// delay; a remote logout retries sooner to solicit a fresh pairing
// challenge; an API-triggered logout sits in between.
const (
	reconnectTransientDelay = 5 * time.Second
	reconnectRemoteLogout   = 2 * time.Second
	reconnectAPILogout      = 3 * time.Second
)

const pairingImageSize = 256

// Manager owns the single live protocol session. All observable state
// (status, identity, pairing material) is mutated only here, under one
// mutex, so protocol callbacks and API handlers cannot race.
type Manager struct {
	session string
	machine *status.Machine
	bus     *bus.Bus
	logger  *zap.Logger

	mu              sync.Mutex
	adapter         *Adapter
	pairing         []byte // PNG, non-nil only while awaiting pairing
	identity        string // non-empty iff connected
	cancelReconnect context.CancelFunc
}

// NewManager creates a manager for the named session. The session is
// not established until Reconnect is called.
func NewManager(sessionName string, machine *status.Machine, b *bus.Bus, logger *zap.Logger) *Manager {
	return &Manager{
		session: sessionName,
		machine: machine,
		bus:     b,
		logger:  logger,
	}
}

// Status returns the current connection state.
func (m *Manager) Status() status.State {
	return m.machine.Current()
}

// Identity returns the paired account's phone number, or empty.
func (m *Manager) Identity() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// PairingImage returns the current pairing challenge rendered as a
// PNG, or nil when none is outstanding.
func (m *Manager) PairingImage() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pairing
}

// Reconnect establishes a fresh session, replacing any stale handle.
// It is safe to call repeatedly. The credential store is reopened from
// disk on every call so externally triggered resets are observed; when
// no credentials exist, a pairing challenge is solicited.
func (m *Manager) Reconnect() error {
	m.mu.Lock()
	if m.cancelReconnect != nil {
		m.cancelReconnect()
		m.cancelReconnect = nil
	}
	old := m.adapter
	m.adapter = nil
	m.mu.Unlock()

	if old != nil {
		old.Disconnect()
		_ = old.Close()
	}

	ctx := context.Background()
	adapter, err := NewAdapter(ctx, m.session, m.logger)
	if err != nil {
		return fmt.Errorf("reload session store: %w", err)
	}
	adapter.RegisterEventHandler(m.handleEvent)

	m.mu.Lock()
	m.adapter = adapter
	m.mu.Unlock()

	if adapter.IsLoggedIn() {
		return adapter.Connect()
	}

	// QR channel must be requested before connecting.
	qrChan, err := adapter.GetQRChannel(ctx)
	if err != nil {
		return err
	}
	if err := adapter.Connect(); err != nil {
		return err
	}
	go m.consumePairing(qrChan)
	return nil
}

// Logout terminates the live session, purges all persisted credential
// material and schedules a fresh connection attempt that will solicit
// a new pairing challenge. Only valid while connected.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	adapter := m.adapter
	m.mu.Unlock()

	if m.machine.Current() != status.Connected || adapter == nil {
		return ErrNotConnected
	}

	if err := adapter.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	m.mu.Lock()
	m.identity = ""
	m.pairing = nil
	m.mu.Unlock()
	_ = m.machine.Transition(status.Disconnected)

	if err := adapter.PurgeCredentials(ctx); err != nil {
		m.logger.Warn("credential purge failed", zap.Error(err))
	}

	m.bus.Publish(bus.Event{Kind: bus.KindLoggedOut})
	m.scheduleReconnect(reconnectAPILogout)
	return nil
}

// SendText sends a text message through the live session.
func (m *Manager) SendText(ctx context.Context, jid, text string) (string, error) {
	adapter, err := m.live()
	if err != nil {
		return "", err
	}
	return adapter.SendText(ctx, jid, text)
}

// SendImage sends an image with an optional caption through the live session.
func (m *Manager) SendImage(ctx context.Context, jid string, data []byte, mimeType, caption string) (string, error) {
	adapter, err := m.live()
	if err != nil {
		return "", err
	}
	return adapter.SendImage(ctx, jid, data, mimeType, caption)
}

// DownloadImage fetches an inbound image payload through the live session.
func (m *Manager) DownloadImage(ctx context.Context, img *waE2E.ImageMessage) ([]byte, error) {
	m.mu.Lock()
	adapter := m.adapter
	m.mu.Unlock()
	if adapter == nil {
		return nil, ErrNotConnected
	}
	return adapter.DownloadImage(ctx, img)
}

// Stop cancels any pending reconnect and tears the session down.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.cancelReconnect != nil {
		m.cancelReconnect()
		m.cancelReconnect = nil
	}
	adapter := m.adapter
	m.adapter = nil
	m.mu.Unlock()

	if adapter != nil {
		adapter.Disconnect()
		_ = adapter.Close()
	}
}

func (m *Manager) live() (*Adapter, error) {
	m.mu.Lock()
	adapter := m.adapter
	m.mu.Unlock()
	if adapter == nil || m.machine.Current() != status.Connected {
		return nil, ErrNotConnected
	}
	return adapter, nil
}

// scheduleReconnect arms a one-shot reconnect timer, superseding any
// previously scheduled one.
func (m *Manager) scheduleReconnect(delay time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if m.cancelReconnect != nil {
		m.cancelReconnect()
	}
	m.cancelReconnect = cancel
	m.mu.Unlock()

	m.logger.Info("reconnect scheduled", zap.Duration("delay", delay))
	go func() {
		select {
		case <-time.After(delay):
			if err := m.Reconnect(); err != nil {
				m.logger.Error("reconnect failed", zap.Error(err))
				m.scheduleReconnect(reconnectTransientDelay)
			}
		case <-ctx.Done():
		}
	}()
}

// consumePairing drains the QR channel of one connection attempt.
func (m *Manager) consumePairing(qr <-chan whatsmeow.QRChannelItem) {
	for item := range qr {
		switch item.Event {
		case "code":
			png, err := qrcode.Encode(item.Code, qrcode.Medium, pairingImageSize)
			if err != nil {
				m.logger.Error("pairing code render failed", zap.Error(err))
				continue
			}
			m.mu.Lock()
			m.pairing = png
			m.mu.Unlock()
			if err := m.machine.Transition(status.AwaitingPairing); err != nil {
				m.logger.Warn("pairing state transition rejected", zap.Error(err))
			}
			m.logger.Info("pairing code issued")
		case "success":
			m.bus.Publish(bus.Event{Kind: bus.KindPaired})
		case "timeout":
			m.mu.Lock()
			m.pairing = nil
			m.mu.Unlock()
			_ = m.machine.Transition(status.Disconnected)
			m.logger.Warn("pairing timed out")
			m.scheduleReconnect(reconnectTransientDelay)
		default:
			if item.Error != nil {
				m.logger.Error("pairing failed", zap.Error(item.Error))
			}
		}
	}
}
