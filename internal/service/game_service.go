package service

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/benbeisheim/chess-backend/internal/logging"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/notation"
	"github.com/benbeisheim/chess-backend/internal/render"
	"github.com/benbeisheim/chess-backend/internal/store"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNoOpening = errors.New("no known opening")

type GameService struct {
	gameManager *GameManager
	saves       *store.FileStore
	logger      *zap.Logger
}

func NewGameService(gameManager *GameManager, saves *store.FileStore, logger *zap.Logger) *GameService {
	return &GameService{
		gameManager: gameManager,
		saves:       saves,
		logger:      logging.OrNop(logger),
	}
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.Color, error) {
	color, err := gs.gameManager.AddPlayerToGame(gameID, playerID)
	if err != nil {
		return "", err
	}
	gs.logger.Info("player joined",
		zap.String("game_id", gameID),
		zap.String("player_id", playerID),
		zap.String("color", string(color)),
	)
	return color, nil
}

// CreateGame starts a game from the opening position, or from fen when it
// is not empty.
func (gs *GameService) CreateGame(fen string) (string, error) {
	gameID := uuid.New().String()

	if fen == "" {
		if _, err := gs.gameManager.CreateGame(gameID); err != nil {
			return "", fmt.Errorf("failed to create game: %w", err)
		}
		gs.logger.Info("game created", zap.String("game_id", gameID))
		return gameID, nil
	}

	board, turn, err := notation.ParseFEN(fen)
	if err != nil {
		return "", err
	}
	state, err := model.NewGameStateFromBoard(board, turn)
	if err != nil {
		return "", err
	}
	if _, err := gs.gameManager.AddGame(model.NewGameFromState(gameID, state, gs.gameManager.clockLimit)); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	gs.logger.Info("game created", zap.String("game_id", gameID), zap.String("fen", fen))
	return gameID, nil
}

func (gs *GameService) JoinMatchmaking(playerID string) (int, error) {
	place, err := gs.gameManager.JoinMatchmaking(playerID)
	if err != nil {
		return 0, err
	}
	gs.logger.Info("player queued", zap.String("player_id", playerID), zap.Int("place", place))
	return place, nil
}

func (gs *GameService) MatchmakingStatus(playerID string) (int, time.Duration, bool) {
	return gs.gameManager.MatchmakingStatus(playerID)
}

// Match returns the game playerID was paired into by matchmaking.
func (gs *GameService) Match(playerID string) (model.MatchFoundEvent, bool) {
	return gs.gameManager.Match(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	left := gs.gameManager.LeaveMatchmaking(playerID)
	if left {
		gs.logger.Info("player left matchmaking", zap.String("player_id", playerID))
	}
	return left
}

// RemoveGame ends a game for everyone. Only a seated player may remove it,
// unless nobody is seated.
func (gs *GameService) RemoveGame(gameID string, playerID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	if !game.CanManage(playerID) {
		return model.ErrNotInGame
	}
	closed, ok := gs.gameManager.RemoveGame(gameID)
	if !ok {
		return ErrGameNotFound
	}
	gs.logger.Info("game removed",
		zap.String("game_id", gameID),
		zap.String("player_id", playerID),
		zap.Int("connections_closed", closed),
	)
	return nil
}

func (gs *GameService) GetGameState(gameID string) (model.GameView, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.GameView{}, err
	}
	return game.GetState(), nil
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.MoveRequest) ([]model.Event, error) {
	if move.Promotion != "" {
		t, ok := model.ParsePieceType(string(move.Promotion))
		if !ok {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidPromotion, move.Promotion)
		}
		move.Promotion = t
	}
	return gs.withGame(gameID, playerID, func(g *model.Game) ([]model.Event, error) {
		return g.MakeMove(playerID, move)
	})
}

func (gs *GameService) Select(gameID string, playerID string, square string) ([]model.Event, error) {
	pos, err := model.ParseSquare(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidSelection, err)
	}
	return gs.withGame(gameID, playerID, func(g *model.Game) ([]model.Event, error) {
		return g.Select(playerID, pos)
	})
}

func (gs *GameService) Click(gameID string, playerID string, square string) ([]model.Event, error) {
	pos, err := model.ParseSquare(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidSelection, err)
	}
	return gs.withGame(gameID, playerID, func(g *model.Game) ([]model.Event, error) {
		return g.Click(playerID, pos)
	})
}

func (gs *GameService) Promote(gameID string, playerID string, piece string) ([]model.Event, error) {
	t, ok := model.ParsePieceType(piece)
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidPromotion, piece)
	}
	return gs.withGame(gameID, playerID, func(g *model.Game) ([]model.Event, error) {
		return g.Promote(playerID, t)
	})
}

func (gs *GameService) withGame(gameID, playerID string, fn func(*model.Game) ([]model.Event, error)) ([]model.Event, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	events, err := fn(game)
	gs.logEvents(gameID, playerID, events)
	return events, err
}

// logEvents is where transition outcomes reach the log; the rules engine
// itself never logs.
func (gs *GameService) logEvents(gameID, playerID string, events []model.Event) {
	for _, ev := range events {
		fields := []zap.Field{
			zap.String("game_id", gameID),
			zap.String("player_id", playerID),
			zap.String("event", string(ev.Kind)),
		}
		if ev.Color != "" {
			fields = append(fields, zap.String("color", string(ev.Color)))
		}
		if ev.Piece != "" {
			fields = append(fields, zap.String("piece", string(ev.Piece)))
		}
		if ev.From != nil {
			fields = append(fields, zap.String("from", ev.From.Square()))
		}
		if ev.To != nil {
			fields = append(fields, zap.String("to", ev.To.Square()))
		}
		if ev.Detail != "" {
			fields = append(fields, zap.String("detail", ev.Detail))
		}

		switch ev.Kind {
		case model.EventInvalidAttempt:
			gs.logger.Warn("invalid attempt", fields...)
		case model.EventSelected, model.EventDeselected:
			gs.logger.Debug("selection", fields...)
		default:
			gs.logger.Info("game event", fields...)
		}
	}
}

func (gs *GameService) LegalMoves(gameID string, square string) ([]model.Position, error) {
	pos, err := model.ParseSquare(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidSelection, err)
	}
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.LegalMoves(pos), nil
}

func (gs *GameService) Reset(gameID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	game.Reset()
	gs.logger.Info("game reset", zap.String("game_id", gameID))
	return nil
}

// BoardSVG draws the live board with the current selection highlighted.
func (gs *GameService) BoardSVG(gameID string) ([]byte, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	board, view := game.BoardAndView()
	var buf bytes.Buffer
	render.Board(&buf, board, render.Options{
		Selected:   view.SelectedSquare,
		LegalMoves: view.LegalMoves,
	})
	return buf.Bytes(), nil
}

func (gs *GameService) Opening(gameID string) (notation.Opening, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return notation.Opening{}, err
	}
	found, ok := notation.OpeningFromHistory(game.History())
	if !ok {
		return notation.Opening{}, ErrNoOpening
	}
	return found, nil
}

func (gs *GameService) Save(gameID string) (string, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return "", err
	}
	name, err := gs.saves.Save(game.Snapshot())
	if err != nil {
		gs.logger.Error("save failed", zap.String("game_id", gameID), zap.Error(err))
		return "", err
	}
	return name, nil
}

// Load replaces the game's position with a saved one. A bad save leaves the
// game as it was.
func (gs *GameService) Load(gameID string, filename string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	snap, err := gs.saves.Load(filename)
	if err != nil {
		return err
	}
	if err := game.Load(snap); err != nil {
		gs.logger.Warn("rejected save", zap.String("filename", filename), zap.Error(err))
		return err
	}
	gs.logger.Info("save restored", zap.String("game_id", gameID), zap.String("filename", filename))
	return nil
}

func (gs *GameService) ListSaves() ([]store.SavedGame, error) {
	return gs.saves.List()
}

func (gs *GameService) DeleteSave(filename string) (bool, error) {
	return gs.saves.Delete(filename)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	if err := gs.gameManager.RegisterConnection(gameID, playerID, conn); err != nil {
		return err
	}
	gs.logger.Debug("connection registered", zap.String("game_id", gameID), zap.String("player_id", playerID))
	return nil
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn *websocket.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
	gs.logger.Debug("connection closed", zap.String("game_id", gameID), zap.String("player_id", playerID))
}

// Send writes msg to one connection of gameID without interleaving with the
// game's broadcasts.
func (gs *GameService) Send(gameID string, conn *websocket.Conn, msg ws.Message) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return conn.WriteJSON(msg)
	}
	return game.Write(conn, msg)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID)
}
