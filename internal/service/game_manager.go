package service

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benbeisheim/chess-backend/internal/logging"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	matches          map[string]model.MatchFoundEvent // playerID -> pairing not yet collected
	clockLimit       time.Duration
	logger           *zap.Logger
	mu               sync.RWMutex
	stop             chan struct{}
	stopOnce         sync.Once
}

func NewGameManager(clockLimit time.Duration, logger *zap.Logger) *GameManager {
	return &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		matches:          make(map[string]model.MatchFoundEvent),
		clockLimit:       clockLimit,
		logger:           logging.OrNop(logger),
		stop:             make(chan struct{}),
	}
}

// StartMatchmaking pairs queued players every interval until Close.
func (gm *GameManager) StartMatchmaking(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gm.processMatchmaking()
			case <-gm.stop:
				return
			}
		}
	}()
}

func (gm *GameManager) Close() {
	gm.stopOnce.Do(func() { close(gm.stop) })
}

// RegisterMatchmakingChannel asks for the match notification on ch, which
// should be buffered. A channel registered earlier for the same player is
// closed.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}
	gm.matchingChannels[playerID] = ch
}

func (gm *GameManager) UnregisterMatchmakingChannel(playerID string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	delete(gm.matchingChannels, playerID)
}

// processMatchmaking seats the two longest waiting players in a new game,
// records the pairing for both and notifies whichever of them registered a
// channel.
func (gm *GameManager) processMatchmaking() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for gm.queue.Size() >= 2 {
		player1, player2, ok := gm.queue.GetNextPair()
		if !ok {
			return
		}

		gameID := uuid.New().String()
		game := model.NewGame(gameID, gm.clockLimit)
		p1Color, err := game.AddPlayer(player1.ID)
		if err != nil {
			gm.logger.Error("seat player", zap.String("player_id", player1.ID), zap.Error(err))
			continue
		}
		p2Color, err := game.AddPlayer(player2.ID)
		if err != nil {
			gm.logger.Error("seat player", zap.String("player_id", player2.ID), zap.Error(err))
			continue
		}
		gm.games[gameID] = game
		gm.logger.Info("match found",
			zap.String("game_id", gameID),
			zap.String("white", player1.ID),
			zap.String("black", player2.ID),
		)

		gm.recordMatch(player1.ID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
		gm.recordMatch(player2.ID, model.MatchFoundEvent{GameID: gameID, Color: p2Color})
	}
}

// recordMatch must be called with gm.mu held. The pairing stays available
// through Match even when nobody is listening on a channel.
func (gm *GameManager) recordMatch(playerID string, event model.MatchFoundEvent) {
	gm.matches[playerID] = event
	gm.notifyMatch(playerID, event)
}

// Match returns the game a player was paired into, until they queue again
// or leave.
func (gm *GameManager) Match(playerID string) (model.MatchFoundEvent, bool) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	event, ok := gm.matches[playerID]
	return event, ok
}

func (gm *GameManager) forgetMatch(playerID string) bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, ok := gm.matches[playerID]; !ok {
		return false
	}
	delete(gm.matches, playerID)
	return true
}

// notifyMatch must be called with gm.mu held.
func (gm *GameManager) notifyMatch(playerID string, event model.MatchFoundEvent) {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		gm.logger.Error("marshal match event", zap.Error(err))
		return
	}
	select {
	case ch <- string(payload):
		delete(gm.matchingChannels, playerID)
	default:
		gm.logger.Warn("match notification dropped", zap.String("player_id", playerID))
	}
}

func (gm *GameManager) CreateGame(gameID string) (*model.Game, error) {
	return gm.AddGame(model.NewGame(gameID, gm.clockLimit))
}

// AddGame registers a game built elsewhere, e.g. from a custom position.
func (gm *GameManager) AddGame(game *model.Game) (*model.Game, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[game.ID]; exists {
		return nil, ErrGameExists
	}
	gm.games[game.ID] = game
	return game, nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// RemoveGame drops a game, any uncollected pairings into it and its
// websocket connections. It returns the number of connections closed.
func (gm *GameManager) RemoveGame(gameID string) (int, bool) {
	gm.mu.Lock()
	game, exists := gm.games[gameID]
	if !exists {
		gm.mu.Unlock()
		return 0, false
	}
	delete(gm.games, gameID)
	for playerID, event := range gm.matches {
		if event.GameID == gameID {
			delete(gm.matches, playerID)
		}
	}
	gm.mu.Unlock()

	return game.Close(), true
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.Color, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return game.AddPlayer(playerID)
}

// JoinMatchmaking queues playerID and returns its place in line. A pairing
// the player never collected is discarded.
func (gm *GameManager) JoinMatchmaking(playerID string) (int, error) {
	gm.forgetMatch(playerID)
	return gm.queue.AddPlayer(model.Player{ID: playerID})
}

// MatchmakingStatus reports a queued player's place in line and wait so far.
func (gm *GameManager) MatchmakingStatus(playerID string) (int, time.Duration, bool) {
	return gm.queue.Waiting(playerID)
}

// LeaveMatchmaking takes playerID out of the queue and forgets any pairing
// waiting for them. It reports whether there was anything to leave.
func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	queued := gm.queue.Remove(playerID)
	matched := gm.forgetMatch(playerID)
	return queued || matched
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn *websocket.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}
