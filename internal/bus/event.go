package bus

import "time"

// Event kinds published inside the daemon. Subscribers filter by
// namespace prefix: "wa." carries inbound protocol traffic, "session."
// carries connection lifecycle changes.
const (
	KindInboundMessage = "wa.message"
	KindStatusChanged  = "session.status_changed"
	KindPaired         = "session.paired"
	KindLoggedOut      = "session.logged_out"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
