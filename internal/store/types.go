package store

// Message directions.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Message statuses. Incoming rows start as unread; outgoing rows are
// written as sent. Status is the only field mutated after insert.
const (
	StatusUnread  = "unread"
	StatusReplied = "replied"
	StatusIgnored = "ignored"
	StatusSent    = "sent"
)

// Media kinds. Only images are captured; everything else degrades to text.
const (
	MediaText  = "text"
	MediaImage = "image"
)

// ValidStatus reports whether s is a known message status.
func ValidStatus(s string) bool {
	switch s {
	case StatusUnread, StatusReplied, StatusIgnored, StatusSent:
		return true
	}
	return false
}

// Message is a persisted message record.
type Message struct {
	ID         int64  `json:"id"`
	Direction  string `json:"direction"`
	Sender     string `json:"sender"` // counterparty protocol address
	SenderName string `json:"senderName"`
	Body       string `json:"body"`
	Status     string `json:"status"`
	MediaType  string `json:"mediaType"`
	MediaURL   string `json:"mediaUrl,omitempty"` // local filename for downloads
	CreatedAt  string `json:"createdAt"`
}

// Webhook is a notification subscription. At most one row per event is
// active at a time.
type Webhook struct {
	ID     int64  `json:"id"`
	Event  string `json:"event"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}
