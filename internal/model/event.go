package model

// EventKind names a transition outcome reported by the state machine.
type EventKind string

const (
	EventSelected          EventKind = "selected"
	EventDeselected        EventKind = "deselected"
	EventMoved             EventKind = "moved"
	EventCaptured          EventKind = "captured"
	EventPromotionRequired EventKind = "promotion_required"
	EventPromoted          EventKind = "promoted"
	EventCheck             EventKind = "check"
	EventCheckmate         EventKind = "checkmate"
	EventInvalidAttempt    EventKind = "invalid_attempt"
)

// Event is one record of what a transition did. The state machine returns
// them instead of logging; outer layers decide what to do with them.
type Event struct {
	Kind   EventKind `json:"kind"`
	Color  Color     `json:"color,omitempty"`
	Piece  PieceType `json:"piece,omitempty"`
	From   *Position `json:"from,omitempty"`
	To     *Position `json:"to,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

func posPtr(p Position) *Position {
	return &p
}
