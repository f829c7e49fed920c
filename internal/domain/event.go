package domain

// PositionEventType names a mutation of the position book.
type PositionEventType string

const (
	EventOpened  PositionEventType = "position_opened"
	EventClosed  PositionEventType = "position_closed"
	EventDeleted PositionEventType = "position_deleted"
)

// PositionEvent is broadcast after every successful mutation so clients can
// refresh their view of the book.
type PositionEvent struct {
	Type     PositionEventType `json:"type"`
	Position Position          `json:"position"`
}
