package domain

import "time"

// Event types broadcast to viewers of the pending list.
const (
	EventTypeReloaded  = "reload"
	EventTypeCommitted = "commit"
	EventTypeDismissed = "dismiss"
)

// ChangeEvent tells viewers that the pending list changed and should be
// fetched again.
type ChangeEvent struct {
	Type    string
	Pending int
	At      time.Time
}
