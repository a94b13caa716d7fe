package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDispatchDeliversPayload(t *testing.T) {
	received := make(chan Notification, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		var n Notification
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			t.Errorf("decode: %v", err)
		}
		received <- n
	}))
	defer srv.Close()

	d := NewDispatcher(nil)
	d.Dispatch(srv.URL, Notification{
		Event: EventMessageReceived,
		Message: NotificationMessage{
			ID:        7,
			From:      "5511999999999@s.whatsapp.net",
			Text:      "hi",
			MediaType: "text",
			Timestamp: "01/01/2026, 12:00:00",
		},
	})

	select {
	case n := <-received:
		if n.Event != EventMessageReceived || n.Message.ID != 7 {
			t.Errorf("payload = %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("webhook never received")
	}
}

func TestDispatchAbsorbsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Must not panic or propagate anything.
	d := NewDispatcher(nil)
	d.Dispatch(srv.URL, Notification{Event: EventMessageReceived})
}

func TestDispatchAbsorbsConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	d := NewDispatcher(nil)
	d.Dispatch(srv.URL, Notification{Event: EventMessageReceived})
}
