package wa

import (
	"github.com/wahook/wahook/internal/bus"
	"github.com/wahook/wahook/internal/status"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
)

// handleEvent is the whatsmeow event handler. It drives the state
// machine and publishes normalized inbound messages on the bus; the
// ingestion engine subscribes independently.
func (m *Manager) handleEvent(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		parsed := ParseInbound(evt)
		if parsed == nil {
			return
		}
		m.bus.Publish(bus.Event{Kind: bus.KindInboundMessage, Payload: parsed})

	case *events.Connected:
		m.mu.Lock()
		if m.adapter != nil {
			m.identity = m.adapter.Identity()
		}
		m.pairing = nil
		m.mu.Unlock()
		if err := m.machine.Transition(status.Connected); err != nil {
			m.logger.Warn("connected transition rejected", zap.Error(err))
		}
		m.logger.Info("WhatsApp connected", zap.String("identity", m.Identity()))

	case *events.LoggedOut:
		// Explicit remote logout: credentials are gone, retry soon to
		// solicit a fresh pairing challenge.
		m.logger.Warn("WhatsApp logged out remotely", zap.String("reason", evt.Reason.String()))
		m.mu.Lock()
		m.identity = ""
		m.pairing = nil
		m.mu.Unlock()
		_ = m.machine.Transition(status.Disconnected)
		m.bus.Publish(bus.Event{Kind: bus.KindLoggedOut, Payload: evt.Reason.String()})
		m.scheduleReconnect(reconnectRemoteLogout)

	case *events.Disconnected:
		// Transient close: a full fresh attempt is scheduled; a new
		// pairing challenge will be issued there if needed.
		m.logger.Warn("WhatsApp disconnected")
		m.mu.Lock()
		m.identity = ""
		m.mu.Unlock()
		_ = m.machine.Transition(status.Disconnected)
		m.scheduleReconnect(reconnectTransientDelay)
	}
}
