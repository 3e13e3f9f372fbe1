// Package notation bridges games to standard chess notations: FEN for custom
// start positions and UCI replays for naming the opening.
package notation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	"github.com/benbeisheim/chess-backend/internal/model"
)

var (
	ErrInvalidFEN    = errors.New("invalid fen")
	ErrUnknownRecord = errors.New("unrecognised move record")
)

var recordPattern = regexp.MustCompile(`^\d+\. (White|Black) ([A-Za-z]+) ([a-h][1-8])-([a-h][1-8])(?:x[A-Za-z]+)?(?:=([A-Za-z]+))?$`)

var pieceTypes = map[chess.PieceType]model.PieceType{
	chess.King:   model.King,
	chess.Queen:  model.Queen,
	chess.Rook:   model.Rook,
	chess.Bishop: model.Bishop,
	chess.Knight: model.Knight,
	chess.Pawn:   model.Pawn,
}

var promotionLetters = map[model.PieceType]string{
	model.Queen:  "q",
	model.Rook:   "r",
	model.Bishop: "b",
	model.Knight: "n",
}

// ParseFEN reads the placement and side-to-move fields of fen. Castling and
// en passant fields are accepted but ignored. Pawns away from their starting
// rank are marked as moved.
func ParseFEN(fen string) (*model.Board, model.Color, error) {
	opt, err := chess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	pos := chess.NewGame(opt).Position()

	board := model.NewEmptyBoard()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		pc := pos.Board().Piece(sq)
		if pc == chess.NoPiece {
			continue
		}
		t, ok := pieceTypes[pc.Type()]
		if !ok {
			return nil, "", fmt.Errorf("%w: unsupported piece on %s", ErrInvalidFEN, sq)
		}
		color := model.White
		if pc.Color() == chess.Black {
			color = model.Black
		}
		at := model.Position{Row: 7 - int(sq.Rank()), Col: int(sq.File())}
		piece := model.NewPiece(t, color)
		if t == model.Pawn {
			piece.HasMoved = !(color == model.White && at.Row == 6 || color == model.Black && at.Row == 1)
		}
		board.Place(at, piece)
	}

	turn := model.White
	if pos.Turn() == chess.Black {
		turn = model.Black
	}
	return board, turn, nil
}

// RecordToUCI turns a move history record such as "3. White Pawn e7-e8=Queen"
// into UCI form ("e7e8q").
func RecordToUCI(record string) (string, error) {
	m := recordPattern.FindStringSubmatch(strings.TrimSpace(record))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownRecord, record)
	}
	uci := m[3] + m[4]
	if m[5] != "" {
		t, ok := model.ParsePieceType(m[5])
		if !ok || !t.Promotable() {
			return "", fmt.Errorf("%w: promotion %q", ErrUnknownRecord, m[5])
		}
		uci += promotionLetters[t]
	}
	return uci, nil
}

type Opening struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// OpeningFromHistory replays the records from the standard start and looks
// the line up in the ECO book. ok is false when no opening matches or the
// history does not replay from the standard position.
func OpeningFromHistory(history []string) (Opening, bool) {
	game := chess.NewGame()
	for _, record := range history {
		uci, err := RecordToUCI(record)
		if err != nil {
			return Opening{}, false
		}
		mv, err := chess.UCINotation{}.Decode(game.Position(), uci)
		if err != nil {
			return Opening{}, false
		}
		if err := game.Move(mv, nil); err != nil {
			return Opening{}, false
		}
	}
	book := opening.NewBookECO()
	if book == nil {
		return Opening{}, false
	}
	found := book.Find(game.Moves())
	if found == nil {
		return Opening{}, false
	}
	return Opening{Code: found.Code(), Title: found.Title()}, true
}
