package model

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
)

// The connections for a specific game
type GameConnections struct {
	connections map[string]*websocket.Conn // playerID -> connection
	mu          sync.RWMutex
	writeMu     sync.Mutex // a websocket conn allows one writer at a time

	// updates waiting to be broadcast, in the order the state changed
	outMu    sync.Mutex
	outbox   []update
	draining bool
}

type update struct {
	view   GameView
	events []Event
}

// Game wraps one GameState with its seats, clocks and observers. Every
// access to the state goes through mu, so a trial move inside the legality
// filter is never visible to a concurrent reader.
type Game struct {
	ID          string
	mu          sync.Mutex
	state       *GameState
	whiteID     string
	blackID     string
	clockLimit  time.Duration
	whiteClock  *Clock
	blackClock  *Clock
	connections *GameConnections
}

type GameView struct {
	ID              string         `json:"id"`
	Board           [8][8]*Piece   `json:"board"`
	ToMove          Color          `json:"toMove"`
	Phase           Phase          `json:"phase"`
	MoveHistory     []string       `json:"moveHistory"`
	MoveCount       int            `json:"moveCount"`
	CapturedPieces  CapturedPieces `json:"capturedPieces"`
	IsCheck         bool           `json:"isCheck"`
	GameOver        bool           `json:"gameOver"`
	Winner          Color          `json:"winner,omitempty"`
	SelectedSquare  *Position      `json:"selectedSquare"`
	LegalMoves      []Position     `json:"legalMoves"`
	PromotionSquare *Position      `json:"promotionSquare"`
	LastMove        *LastMove      `json:"lastMove"`
	Players         PlayersView    `json:"players"`
}

type PlayersView struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

func NewGame(id string, clockLimit time.Duration) *Game {
	return NewGameFromState(id, NewGameState(), clockLimit)
}

func NewGameFromState(id string, state *GameState, clockLimit time.Duration) *Game {
	return &Game{
		ID:          id,
		state:       state,
		clockLimit:  clockLimit,
		whiteClock:  NewClock(clockLimit),
		blackClock:  NewClock(clockLimit),
		connections: NewGameConnections(),
	}
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*websocket.Conn),
	}
}

// AddPlayer seats playerID on the first free color. A player already seated
// gets their color back.
func (g *Game) AddPlayer(playerID string) (Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch playerID {
	case g.whiteID:
		return White, nil
	case g.blackID:
		return Black, nil
	}
	if g.whiteID == "" {
		g.whiteID = playerID
		return White, nil
	}
	if g.blackID == "" {
		g.blackID = playerID
		return Black, nil
	}
	return "", ErrGameFull
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.isPlayerInGame(playerID)
}

// CanManage reports whether playerID may remove the game: any seated
// player, or anyone while no seat is taken.
func (g *Game) CanManage(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.isPlayerInGame(playerID) || (g.whiteID == "" && g.blackID == "")
}

func (g *Game) isPlayerInGame(playerID string) bool {
	return playerID != "" && (g.whiteID == playerID || g.blackID == playerID)
}

func (g *Game) canSpectate() bool {
	return g.whiteID == "" || g.blackID == ""
}

// authorize lets playerID act for the side to move. An unclaimed seat can be
// played by anyone.
func (g *Game) authorize(playerID string) error {
	seat := g.whiteID
	if g.state.Turn() == Black {
		seat = g.blackID
	}
	if seat != "" && seat != playerID {
		return fmt.Errorf("%w: %s to move", ErrNotYourTurn, g.state.Turn())
	}
	return nil
}

func (g *Game) Select(playerID string, pos Position) ([]Event, error) {
	return g.act(playerID, func(s *GameState) ([]Event, error) { return s.Select(pos) })
}

func (g *Game) Click(playerID string, pos Position) ([]Event, error) {
	return g.act(playerID, func(s *GameState) ([]Event, error) { return s.Click(pos) })
}

func (g *Game) Promote(playerID string, t PieceType) ([]Event, error) {
	return g.act(playerID, func(s *GameState) ([]Event, error) { return s.Promote(t) })
}

// MakeMove plays from-to and, when the request names one, resolves the
// resulting promotion in the same call.
func (g *Game) MakeMove(playerID string, move MoveRequest) ([]Event, error) {
	from, to, err := move.Squares()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	return g.act(playerID, func(s *GameState) ([]Event, error) {
		events, err := s.Attempt(from, to)
		if err != nil || move.Promotion == "" || s.Promotion() == nil {
			return events, err
		}
		promoted, err := s.Promote(move.Promotion)
		return append(events, promoted...), err
	})
}

func (g *Game) act(playerID string, fn func(*GameState) ([]Event, error)) ([]Event, error) {
	g.mu.Lock()
	if err := g.authorize(playerID); err != nil {
		g.mu.Unlock()
		return rejected(err, nil), err
	}
	before := g.state.Turn()
	events, err := fn(g.state)
	g.updateClocks(before)
	g.publish(events)
	g.mu.Unlock()

	return events, err
}

// updateClocks runs after every transition; the clocks only change when the
// turn actually passed.
func (g *Game) updateClocks(before Color) {
	if g.state.GameOver() {
		g.whiteClock.Stop()
		g.blackClock.Stop()
		return
	}
	if g.state.Turn() == before {
		return
	}
	g.clockFor(before).Stop()
	g.clockFor(g.state.Turn()).Start()
}

func (g *Game) clockFor(c Color) *Clock {
	if c == White {
		return g.whiteClock
	}
	return g.blackClock
}

func (g *Game) timeLeft() TimeLeft {
	return TimeLeft{
		White: g.whiteClock.GetTimeLeft().Seconds(),
		Black: g.blackClock.GetTimeLeft().Seconds(),
	}
}

// LegalMoves lists the legal destinations of the piece on pos for the side to move.
func (g *Game) LegalMoves(pos Position) []Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.LegalMovesFrom(pos)
}

// BoardAndView reads the live board and the view of the same position.
func (g *Game) BoardAndView() (*Board, GameView) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Board(), g.view()
}

func (g *Game) GetState() GameView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.view()
}

func (g *Game) view() GameView {
	selected, legal := g.state.Selection()
	if legal == nil {
		legal = []Position{}
	}
	v := GameView{
		ID:             g.ID,
		Board:          g.state.Board().Grid(),
		ToMove:         g.state.Turn(),
		Phase:          g.state.Phase(),
		MoveHistory:    g.state.RecentHistory(),
		MoveCount:      g.state.MoveCount(),
		CapturedPieces: g.state.Captured(),
		IsCheck:        g.state.InCheck(),
		GameOver:       g.state.GameOver(),
		Winner:         g.state.Winner(),
		SelectedSquare: selected,
		LegalMoves:     legal,
		LastMove:       g.state.LastMove(),
		Players: PlayersView{
			White: ClientPlayer{ID: g.whiteID, Color: White, TimeLeft: g.whiteClock.GetTimeLeft().Seconds(), Flagged: g.whiteClock.Flagged()},
			Black: ClientPlayer{ID: g.blackID, Color: Black, TimeLeft: g.blackClock.GetTimeLeft().Seconds(), Flagged: g.blackClock.Flagged()},
		},
	}
	if p := g.state.Promotion(); p != nil {
		v.PromotionSquare = &p.Square
	}
	return v
}

func (g *Game) History() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.History()
}

func (g *Game) Snapshot() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Snapshot(g.timeLeft())
}

// Load replaces the game with snap. On error the current game is untouched.
func (g *Game) Load(snap *Snapshot) error {
	state, err := snap.Restore()
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.state = state
	g.whiteClock.Set(time.Duration(snap.TimeLeft.White * float64(time.Second)))
	g.blackClock.Set(time.Duration(snap.TimeLeft.Black * float64(time.Second)))
	g.publish(nil)
	g.mu.Unlock()

	return nil
}

// Reset starts over from the opening position, keeping the seats.
func (g *Game) Reset() {
	g.mu.Lock()
	g.state = NewGameState()
	g.whiteClock.Set(g.clockLimit)
	g.blackClock.Set(g.clockLimit)
	g.publish(nil)
	g.mu.Unlock()
}

// RegisterConnection attaches conn for playerID. A second connection for the
// same player is refused with ErrAlreadyConnected and the first one kept.
func (g *Game) RegisterConnection(playerID string, conn *websocket.Conn) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isPlayerInGame(playerID) && !g.canSpectate() {
		return ErrNotInGame
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		g.connections.mu.Unlock()
		return ErrAlreadyConnected
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()

	g.publish(nil)
	return nil
}

// UnregisterConnection detaches conn. A newer connection registered for the
// same player is left alone.
func (g *Game) UnregisterConnection(playerID string, conn *websocket.Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if g.connections.connections[playerID] == conn {
		delete(g.connections.connections, playerID)
	}
}

// Close sends a close frame to every connection and drops them all. It
// returns how many were open.
func (g *Game) Close() int {
	g.connections.mu.Lock()
	open := g.connections.connections
	g.connections.connections = make(map[string]*websocket.Conn)
	g.connections.mu.Unlock()

	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()
	for _, conn := range open {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "game removed"))
		conn.Close()
	}
	return len(open)
}

// Write sends msg on conn, serialized with broadcasts.
func (g *Game) Write(conn *websocket.Conn, msg ws.Message) error {
	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// publish queues the current view and events for broadcast. It must be
// called with g.mu held so updates leave in the order the state changed.
func (g *Game) publish(events []Event) {
	c := g.connections
	c.mu.RLock()
	watched := len(c.connections) > 0
	c.mu.RUnlock()
	if !watched {
		return
	}

	c.outMu.Lock()
	c.outbox = append(c.outbox, update{view: g.view(), events: events})
	start := !c.draining
	c.draining = true
	c.outMu.Unlock()

	if start {
		go g.drain()
	}
}

// drain broadcasts queued updates one at a time and exits once the outbox
// is empty.
func (g *Game) drain() {
	c := g.connections
	for {
		c.outMu.Lock()
		if len(c.outbox) == 0 {
			c.draining = false
			c.outMu.Unlock()
			return
		}
		next := c.outbox[0]
		c.outbox = c.outbox[1:]
		c.outMu.Unlock()

		g.broadcast(next.view, next.events)
	}
}

// broadcast pushes the view, then the events, to every connection. Failed
// connections are dropped.
func (g *Game) broadcast(view GameView, events []Event) {
	g.connections.mu.RLock()
	activeConnections := make(map[string]*websocket.Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		activeConnections[playerID] = conn
	}
	g.connections.mu.RUnlock()
	if len(activeConnections) == 0 {
		return
	}

	messages := make([]ws.Message, 0, 2)
	if payload, err := json.Marshal(view); err == nil {
		messages = append(messages, ws.Message{Type: ws.MessageTypeGameState, Payload: payload})
	}
	if len(events) > 0 {
		if payload, err := json.Marshal(events); err == nil {
			messages = append(messages, ws.Message{Type: ws.MessageTypeEvents, Payload: payload})
		}
	}

	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()
	for playerID, conn := range activeConnections {
		for _, msg := range messages {
			if err := conn.WriteJSON(msg); err != nil {
				g.connections.mu.Lock()
				if g.connections.connections[playerID] == conn {
					delete(g.connections.connections, playerID)
				}
				g.connections.mu.Unlock()
				break
			}
		}
	}
}
