package wa

import (
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// Inbound is a normalized inbound message ready for ingestion.
type Inbound struct {
	Sender   string // resolved counterparty address
	PushName string
	Text     string
	Image    *waE2E.ImageMessage // nil for plain text
}

// ParseInbound normalizes a live message event. Returns nil for events
// the pipeline must ignore: echoes of this account's own sends, chats
// not addressed directly to this account (groups, broadcasts), and
// events with no message body.
func ParseInbound(evt *events.Message) *Inbound {
	if evt.Info.IsFromMe {
		return nil
	}
	if !isDirectChat(evt.Info.Chat) {
		return nil
	}

	text := extractText(evt.Message)
	img := imagePayload(evt.Message)
	if text == "" && img == nil {
		return nil
	}

	return &Inbound{
		Sender:   resolveSender(evt.Info),
		PushName: evt.Info.PushName,
		Text:     text,
		Image:    img,
	}
}

// isDirectChat reports whether the chat is a one-on-one conversation
// with this account. LID chats are direct too; their sender is
// resolved separately.
func isDirectChat(chat types.JID) bool {
	return chat.Server == types.DefaultUserServer ||
		chat.Server == types.HiddenUserServer
}

// resolveSender picks the stable counterparty address. Senders on the
// LID server are opaque session-scoped aliases; when the event carries
// a canonical phone-number alternate, that one is used instead.
func resolveSender(info types.MessageInfo) string {
	sender := info.Sender
	if sender.Server == types.HiddenUserServer &&
		info.SenderAlt.Server == types.DefaultUserServer {
		sender = info.SenderAlt
	}
	return sender.ToNonAD().String()
}

// extractText applies the body precedence: plain conversation, then
// extended text, then image caption.
func extractText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if c := msg.GetConversation(); c != "" {
		return c
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	if img := msg.GetImageMessage(); img != nil {
		return img.GetCaption()
	}
	return ""
}

func imagePayload(msg *waE2E.Message) *waE2E.ImageMessage {
	if msg == nil {
		return nil
	}
	return msg.GetImageMessage()
}
