// Package render draws a board position as an SVG diagram.
package render

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/benbeisheim/chess-backend/internal/model"
)

const (
	squareSize = 80
	margin     = 24
	boardSize  = squareSize * 8
)

var (
	lightSquare  = "fill:rgb(237,238,240)"
	darkSquare   = "fill:rgb(125,135,150)"
	highlight    = "fill:rgb(87,204,153)"
	possibleMove = "fill:rgb(108,117,125);fill-opacity:0.4"
	labelStyle   = "font-family:sans-serif;font-size:14px;fill:rgb(33,37,41);text-anchor:middle"
	whiteGlyph   = "font-size:60px;text-anchor:middle;dominant-baseline:central;fill:rgb(248,249,250);stroke:rgb(33,37,41);stroke-width:1.5"
	blackGlyph   = "font-size:60px;text-anchor:middle;dominant-baseline:central;fill:rgb(33,37,41)"
)

var glyphs = map[model.PieceType]string{
	model.King:   "♚",
	model.Queen:  "♛",
	model.Rook:   "♜",
	model.Bishop: "♝",
	model.Knight: "♞",
	model.Pawn:   "♟",
}

// Options marks squares on the diagram.
type Options struct {
	Selected   *model.Position
	LegalMoves []model.Position
}

// Board writes board as an SVG document to w.
func Board(w io.Writer, board *model.Board, opts Options) {
	canvas := svg.New(w)
	total := boardSize + 2*margin
	canvas.Start(total, total)
	canvas.Title("chess board")

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			style := lightSquare
			if (row+col)%2 == 1 {
				style = darkSquare
			}
			if opts.Selected != nil && *opts.Selected == (model.Position{Row: row, Col: col}) {
				style = highlight
			}
			x, y := squareOrigin(row, col)
			canvas.Rect(x, y, squareSize, squareSize, style)
		}
	}

	for _, mv := range opts.LegalMoves {
		if !mv.OnBoard() {
			continue
		}
		x, y := squareOrigin(mv.Row, mv.Col)
		canvas.Circle(x+squareSize/2, y+squareSize/2, 15, possibleMove)
	}

	board.Each(func(pos model.Position, pc *model.Piece) {
		x, y := squareOrigin(pos.Row, pos.Col)
		style := blackGlyph
		if pc.Color == model.White {
			style = whiteGlyph
		}
		canvas.Text(x+squareSize/2, y+squareSize/2, glyphs[pc.Type], style)
	})

	for i := 0; i < 8; i++ {
		file := fmt.Sprintf("%c", 'a'+i)
		rank := fmt.Sprintf("%d", 8-i)
		canvas.Text(margin+i*squareSize+squareSize/2, total-margin/3, file, labelStyle)
		canvas.Text(margin/2, margin+i*squareSize+squareSize/2+5, rank, labelStyle)
	}
	canvas.End()
}

func squareOrigin(row, col int) (int, int) {
	return margin + col*squareSize, margin + row*squareSize
}
