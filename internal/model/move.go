package model

// MoveRequest is the wire form of a move: algebraic squares plus an
// optional promotion choice applied right after the move.
type MoveRequest struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Promotion PieceType `json:"promotion,omitempty"`
}

func (m MoveRequest) Squares() (Position, Position, error) {
	from, err := ParseSquare(m.From)
	if err != nil {
		return Position{}, Position{}, err
	}
	to, err := ParseSquare(m.To)
	if err != nil {
		return Position{}, Position{}, err
	}
	return from, to, nil
}

// LastMove is the most recent completed move, for highlighting.
type LastMove struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}
