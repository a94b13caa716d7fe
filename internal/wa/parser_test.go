package wa

import (
	"testing"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func directMessage(body *waE2E.Message) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			PushName: "Alice",
			MessageSource: types.MessageSource{
				Chat:   types.JID{User: "5511999999999", Server: types.DefaultUserServer},
				Sender: types.JID{User: "5511999999999", Server: types.DefaultUserServer},
			},
			ID: "MSG123",
		},
		Message: body,
	}
}

func TestExtractTextPrecedence(t *testing.T) {
	tests := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil message", nil, ""},
		{"conversation", &waE2E.Message{Conversation: proto.String("hello")}, "hello"},
		{"extended text", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("extended")}}, "extended"},
		{"image caption", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("a photo")}}, "a photo"},
		{"image without caption", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}, ""},
		{"conversation wins over image", &waE2E.Message{
			Conversation: proto.String("text"),
			ImageMessage: &waE2E.ImageMessage{Caption: proto.String("caption")},
		}, "text"},
		{"empty conversation", &waE2E.Message{Conversation: proto.String("")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractText(tt.msg)
			if got != tt.want {
				t.Errorf("extractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseInboundText(t *testing.T) {
	evt := directMessage(&waE2E.Message{Conversation: proto.String("hello world")})

	parsed := ParseInbound(evt)
	if parsed == nil {
		t.Fatal("parsed = nil, want message")
	}
	if parsed.Sender != "5511999999999@s.whatsapp.net" {
		t.Errorf("Sender = %q", parsed.Sender)
	}
	if parsed.PushName != "Alice" {
		t.Errorf("PushName = %q, want Alice", parsed.PushName)
	}
	if parsed.Text != "hello world" {
		t.Errorf("Text = %q, want hello world", parsed.Text)
	}
	if parsed.Image != nil {
		t.Error("Image should be nil for a text message")
	}
}

func TestParseInboundImage(t *testing.T) {
	evt := directMessage(&waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{Caption: proto.String("look")},
	})

	parsed := ParseInbound(evt)
	if parsed == nil {
		t.Fatal("parsed = nil, want message")
	}
	if parsed.Image == nil {
		t.Fatal("Image = nil, want payload")
	}
	if parsed.Text != "look" {
		t.Errorf("Text = %q, want caption", parsed.Text)
	}
}

func TestParseInboundIgnoresOwnEchoes(t *testing.T) {
	evt := directMessage(&waE2E.Message{Conversation: proto.String("me")})
	evt.Info.IsFromMe = true

	if got := ParseInbound(evt); got != nil {
		t.Errorf("parsed = %+v, want nil for own message", got)
	}
}

func TestParseInboundIgnoresGroupChats(t *testing.T) {
	evt := directMessage(&waE2E.Message{Conversation: proto.String("hi all")})
	evt.Info.Chat = types.JID{User: "120363123456", Server: types.GroupServer}

	if got := ParseInbound(evt); got != nil {
		t.Errorf("parsed = %+v, want nil for group chat", got)
	}
}

func TestParseInboundIgnoresBodilessEvents(t *testing.T) {
	evt := directMessage(&waE2E.Message{})
	if got := ParseInbound(evt); got != nil {
		t.Errorf("parsed = %+v, want nil for empty body", got)
	}

	evt = directMessage(nil)
	if got := ParseInbound(evt); got != nil {
		t.Errorf("parsed = %+v, want nil for nil body", got)
	}
}

// TestResolveSenderAlias verifies that an opaque LID sender is replaced
// by the canonical phone-number alternate when one is present. LID
// addresses are session-scoped and unusable as stable counterparty
// identity.
func TestResolveSenderAlias(t *testing.T) {
	tests := []struct {
		name string
		info types.MessageInfo
		want string
	}{
		{
			"canonical sender kept",
			types.MessageInfo{MessageSource: types.MessageSource{
				Sender: types.JID{User: "5511999999999", Server: types.DefaultUserServer},
			}},
			"5511999999999@s.whatsapp.net",
		},
		{
			"alias resolved via alternate",
			types.MessageInfo{MessageSource: types.MessageSource{
				Sender:    types.JID{User: "3917077286968", Server: types.HiddenUserServer},
				SenderAlt: types.JID{User: "5511999999999", Server: types.DefaultUserServer},
			}},
			"5511999999999@s.whatsapp.net",
		},
		{
			"alias kept when no alternate",
			types.MessageInfo{MessageSource: types.MessageSource{
				Sender: types.JID{User: "3917077286968", Server: types.HiddenUserServer},
			}},
			"3917077286968@lid",
		},
		{
			"device suffix stripped",
			types.MessageInfo{MessageSource: types.MessageSource{
				Sender: types.JID{User: "5511999999999", Device: 5, Server: types.DefaultUserServer},
			}},
			"5511999999999@s.whatsapp.net",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveSender(tt.info)
			if got != tt.want {
				t.Errorf("resolveSender() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseInboundAcceptsLIDChat(t *testing.T) {
	evt := directMessage(&waE2E.Message{Conversation: proto.String("hi")})
	evt.Info.Chat = types.JID{User: "3917077286968", Server: types.HiddenUserServer}
	evt.Info.Sender = types.JID{User: "3917077286968", Server: types.HiddenUserServer}
	evt.Info.SenderAlt = types.JID{User: "5511999999999", Server: types.DefaultUserServer}

	parsed := ParseInbound(evt)
	if parsed == nil {
		t.Fatal("parsed = nil, want message for LID direct chat")
	}
	if parsed.Sender != "5511999999999@s.whatsapp.net" {
		t.Errorf("Sender = %q, want resolved alternate", parsed.Sender)
	}
}
