package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameSeatsTwoPlayers(t *testing.T) {
	g := NewGame("g1", time.Minute)

	color, err := g.AddPlayer("ann")
	require.NoError(t, err)
	assert.Equal(t, White, color)
	color, err = g.AddPlayer("bob")
	require.NoError(t, err)
	assert.Equal(t, Black, color)

	color, err = g.AddPlayer("ann")
	require.NoError(t, err)
	assert.Equal(t, White, color, "rejoining keeps the seat")

	_, err = g.AddPlayer("cy")
	assert.ErrorIs(t, err, ErrGameFull)
	assert.True(t, g.IsPlayerInGame("bob"))
	assert.False(t, g.IsPlayerInGame("cy"))
	assert.False(t, g.IsPlayerInGame(""))
}

func TestGameEnforcesTurns(t *testing.T) {
	g := NewGame("g1", time.Minute)
	_, _ = g.AddPlayer("ann")
	_, _ = g.AddPlayer("bob")

	events, err := g.MakeMove("bob", MoveRequest{From: "e2", To: "e4"})
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, []EventKind{EventInvalidAttempt}, eventKinds(events))

	_, err = g.MakeMove("ann", MoveRequest{From: "e2", To: "e4"})
	require.NoError(t, err)
	_, err = g.MakeMove("ann", MoveRequest{From: "d2", To: "d4"})
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = g.Click("bob", MustSquare("e7"))
	require.NoError(t, err)
	_, err = g.Click("bob", MustSquare("e5"))
	require.NoError(t, err)

	view := g.GetState()
	assert.Equal(t, White, view.ToMove)
	assert.Equal(t, 1, view.MoveCount)
	assert.Equal(t, []string{"1. White Pawn e2-e4", "1. Black Pawn e7-e5"}, view.MoveHistory)
	require.NotNil(t, view.LastMove)
	assert.Equal(t, "e5", view.LastMove.To.Square())
}

func TestGameRejectsBadSquares(t *testing.T) {
	g := NewGame("g1", time.Minute)
	_, err := g.MakeMove("ann", MoveRequest{From: "z9", To: "e4"})
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestGameMoveWithPromotion(t *testing.T) {
	state, err := NewGameStateFromBoard(boardWith(t, map[string]string{"e1": "wK", "h5": "bK", "a7": "wP"}), White)
	require.NoError(t, err)
	g := NewGameFromState("g1", state, time.Minute)

	events, err := g.MakeMove("", MoveRequest{From: "a7", To: "a8", Promotion: Knight})
	require.NoError(t, err)
	assert.Contains(t, eventKinds(events), EventPromoted)

	view := g.GetState()
	assert.Equal(t, Black, view.ToMove)
	require.NotNil(t, view.Board[0][0])
	assert.Equal(t, Knight, view.Board[0][0].Type)
	assert.Nil(t, view.PromotionSquare)
}

func TestGameBoardAndViewMatch(t *testing.T) {
	g := NewGame("g1", time.Minute)
	_, err := g.MakeMove("", MoveRequest{From: "e2", To: "e4"})
	require.NoError(t, err)
	_, err = g.Select("", MustSquare("g8"))
	require.NoError(t, err)

	board, view := g.BoardAndView()
	assert.Equal(t, board.Grid(), view.Board)
	require.NotNil(t, view.SelectedSquare)
	assert.Equal(t, "g8", view.SelectedSquare.Square())
	assert.Equal(t, []string{"f6", "h6"}, squares(view.LegalMoves))
}

func TestGameCanManage(t *testing.T) {
	g := NewGame("g1", time.Minute)
	assert.True(t, g.CanManage("anyone"), "no seats taken")

	_, err := g.AddPlayer("ann")
	require.NoError(t, err)
	assert.True(t, g.CanManage("ann"))
	assert.False(t, g.CanManage("zed"))
	assert.Zero(t, g.Close(), "no connections to close")
}

func TestGameViewShowsSelection(t *testing.T) {
	g := NewGame("g1", time.Minute)
	_, err := g.Select("", MustSquare("b1"))
	require.NoError(t, err)

	view := g.GetState()
	assert.Equal(t, PhaseSelected, view.Phase)
	require.NotNil(t, view.SelectedSquare)
	assert.Equal(t, "b1", view.SelectedSquare.Square())
	assert.Equal(t, []string{"a3", "c3"}, squares(view.LegalMoves))
	assert.Equal(t, []string{"a3", "c3"}, squares(g.LegalMoves(MustSquare("b1"))))
}

func TestGameClocksFollowTheTurn(t *testing.T) {
	g := NewGame("g1", time.Minute)
	assert.False(t, g.whiteClock.IsRunning())

	_, err := g.MakeMove("", MoveRequest{From: "e2", To: "e4"})
	require.NoError(t, err)
	assert.False(t, g.whiteClock.IsRunning())
	assert.True(t, g.blackClock.IsRunning())

	_, err = g.Select("", MustSquare("e7"))
	require.NoError(t, err)
	assert.True(t, g.blackClock.IsRunning(), "selecting does not pass the turn")

	_, err = g.MakeMove("", MoveRequest{From: "e7", To: "e5"})
	require.NoError(t, err)
	assert.True(t, g.whiteClock.IsRunning())
	assert.False(t, g.blackClock.IsRunning())
}

func TestGameClocksStopAtMate(t *testing.T) {
	g := NewGame("g1", time.Minute)
	for _, mv := range []MoveRequest{{From: "f2", To: "f3"}, {From: "e7", To: "e5"}, {From: "g2", To: "g4"}, {From: "d8", To: "h4"}} {
		_, err := g.MakeMove("", mv)
		require.NoError(t, err)
	}
	view := g.GetState()
	assert.True(t, view.GameOver)
	assert.Equal(t, Black, view.Winner)
	assert.False(t, g.whiteClock.IsRunning())
	assert.False(t, g.blackClock.IsRunning())
}

func TestGameLoadAndReset(t *testing.T) {
	g := NewGame("g1", time.Minute)
	_, _ = g.AddPlayer("ann")
	_, err := g.MakeMove("ann", MoveRequest{From: "e2", To: "e4"})
	require.NoError(t, err)

	snap := g.Snapshot()
	snap.TimeLeft = TimeLeft{White: 12, Black: 34}

	bad := *snap
	bad.CurrentTurn = "purple"
	assert.ErrorIs(t, g.Load(&bad), ErrMalformedSnapshot)
	assert.Equal(t, Black, g.GetState().ToMove, "failed load keeps the game")

	g.Reset()
	assert.Equal(t, White, g.GetState().ToMove)
	assert.Empty(t, g.History())
	assert.True(t, g.IsPlayerInGame("ann"), "reset keeps seats")

	require.NoError(t, g.Load(snap))
	view := g.GetState()
	assert.Equal(t, Black, view.ToMove)
	assert.Equal(t, []string{"1. White Pawn e2-e4"}, view.MoveHistory)
	assert.InDelta(t, 12, view.Players.White.TimeLeft, 0.001)
	assert.InDelta(t, 34, view.Players.Black.TimeLeft, 0.001)
}
