package controller

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/notation"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/benbeisheim/chess-backend/internal/store"
	"github.com/gofiber/fiber/v2"
)

type GameController struct {
	gameService *service.GameService
	matchWait   time.Duration
}

// NewGameController builds the REST handlers. matchWait is how long a
// matchmaking request waits for an opponent before answering "queued".
func NewGameController(gameService *service.GameService, matchWait time.Duration) *GameController {
	return &GameController{gameService: gameService, matchWait: matchWait}
}

type createGameRequest struct {
	FEN string `json:"fen"`
}

type squareRequest struct {
	Square string `json:"square"`
}

type promoteRequest struct {
	Piece string `json:"piece"`
}

type loadRequest struct {
	Filename string `json:"filename"`
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
	}

	gameID, err := gc.gameService.CreateGame(req.FEN)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	color, err := gc.gameService.JoinGame(c.Params("gameId"), playerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) RemoveGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if err := gc.gameService.RemoveGame(gameID, playerID(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game removed",
		"game_id": gameID,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(gameState)
}

// JoinMatchmaking queues the player and holds the request until a match is
// made or matchWait runs out. A player answered "queued" stays in line and
// finds the pairing later through MatchmakingStatus.
func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	player := playerID(c)

	ch := make(chan string, 1)
	gc.gameService.RegisterMatchmakingChannel(player, ch)
	if _, err := gc.gameService.JoinMatchmaking(player); err != nil {
		gc.gameService.UnregisterMatchmakingChannel(player)
		return writeError(c, err)
	}
	if gc.matchWait <= 0 {
		gc.gameService.UnregisterMatchmakingChannel(player)
		return gc.queued(c, player)
	}

	timer := time.NewTimer(gc.matchWait)
	defer timer.Stop()
	select {
	case payload, ok := <-ch:
		var match model.MatchFoundEvent
		if ok && json.Unmarshal([]byte(payload), &match) == nil {
			return matched(c, match)
		}
	case <-timer.C:
		gc.gameService.UnregisterMatchmakingChannel(player)
	}
	return gc.queued(c, player)
}

// MatchmakingStatus answers whether the caller is still waiting, or which
// game they were paired into.
func (gc *GameController) MatchmakingStatus(c *fiber.Ctx) error {
	return gc.queued(c, playerID(c))
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	if !gc.gameService.LeaveMatchmaking(playerID(c)) {
		return c.JSON(fiber.Map{"status": "not_queued"})
	}
	return c.JSON(fiber.Map{"status": "left"})
}

func matched(c *fiber.Ctx, match model.MatchFoundEvent) error {
	return c.JSON(fiber.Map{
		"status": "matched",
		"gameId": match.GameID,
		"color":  match.Color,
	})
}

func (gc *GameController) queued(c *fiber.Ctx, player string) error {
	if match, ok := gc.gameService.Match(player); ok {
		return matched(c, match)
	}
	place, waited, ok := gc.gameService.MatchmakingStatus(player)
	if !ok {
		return c.JSON(fiber.Map{"status": "not_queued"})
	}
	return c.JSON(fiber.Map{
		"status":  "queued",
		"place":   place,
		"waiting": waited.Seconds(),
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var move model.MoveRequest
	if err := c.BodyParser(&move); err != nil {
		return badRequest(c, err)
	}
	gameID := c.Params("gameId")
	events, err := gc.gameService.HandleMove(gameID, playerID(c), move)
	return gc.respondWithState(c, gameID, events, err)
}

func (gc *GameController) Select(c *fiber.Ctx) error {
	var req squareRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	gameID := c.Params("gameId")
	events, err := gc.gameService.Select(gameID, playerID(c), req.Square)
	return gc.respondWithState(c, gameID, events, err)
}

func (gc *GameController) Click(c *fiber.Ctx) error {
	var req squareRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	gameID := c.Params("gameId")
	events, err := gc.gameService.Click(gameID, playerID(c), req.Square)
	return gc.respondWithState(c, gameID, events, err)
}

func (gc *GameController) Promote(c *fiber.Ctx) error {
	var req promoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	gameID := c.Params("gameId")
	events, err := gc.gameService.Promote(gameID, playerID(c), req.Piece)
	return gc.respondWithState(c, gameID, events, err)
}

func (gc *GameController) Reset(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if err := gc.gameService.Reset(gameID); err != nil {
		return writeError(c, err)
	}
	return gc.respondWithState(c, gameID, nil, nil)
}

func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	square := c.Params("square")
	moves, err := gc.gameService.LegalMoves(c.Params("gameId"), square)
	if err != nil {
		return writeError(c, err)
	}
	squares := make([]string, 0, len(moves))
	for _, m := range moves {
		squares = append(squares, m.Square())
	}
	return c.JSON(fiber.Map{
		"square": square,
		"moves":  squares,
	})
}

func (gc *GameController) BoardSVG(c *fiber.Ctx) error {
	data, err := gc.gameService.BoardSVG(c.Params("gameId"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.Send(data)
}

func (gc *GameController) Opening(c *fiber.Ctx) error {
	found, err := gc.gameService.Opening(c.Params("gameId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(found)
}

func (gc *GameController) SaveGame(c *fiber.Ctx) error {
	name, err := gc.gameService.Save(c.Params("gameId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Game saved",
		"filename": name,
	})
}

func (gc *GameController) LoadGame(c *fiber.Ctx) error {
	var req loadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	gameID := c.Params("gameId")
	if err := gc.gameService.Load(gameID, req.Filename); err != nil {
		return writeError(c, err)
	}
	return gc.respondWithState(c, gameID, nil, nil)
}

func (gc *GameController) ListSaves(c *fiber.Ctx) error {
	saves, err := gc.gameService.ListSaves()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"saves": saves})
}

func (gc *GameController) DeleteSave(c *fiber.Ctx) error {
	name := c.Params("filename")
	deleted, err := gc.gameService.DeleteSave(name)
	if err != nil {
		return writeError(c, err)
	}
	if !deleted {
		return writeError(c, store.ErrNotFound)
	}
	return c.JSON(fiber.Map{
		"message":  "Save deleted",
		"filename": name,
	})
}

// respondWithState answers a transition with its events and the resulting
// game view. Rejected transitions still carry their events.
func (gc *GameController) respondWithState(c *fiber.Ctx, gameID string, events []model.Event, err error) error {
	if events == nil {
		events = []model.Event{}
	}
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			return writeError(c, err)
		}
		return c.Status(statusFor(err)).JSON(fiber.Map{
			"error":  err.Error(),
			"events": events,
		})
	}
	state, err := gc.gameService.GetGameState(gameID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"events": events,
		"state":  state,
	})
}

func playerID(c *fiber.Ctx) string {
	id, _ := c.Locals("playerID").(string)
	return id
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func writeError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, service.ErrNoOpening),
		errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrNotYourTurn),
		errors.Is(err, model.ErrNotInGame):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrGameFull),
		errors.Is(err, model.ErrAlreadyQueued),
		errors.Is(err, model.ErrAlreadyConnected),
		errors.Is(err, service.ErrGameExists):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrInvalidSelection),
		errors.Is(err, model.ErrIllegalMove),
		errors.Is(err, model.ErrGameOver),
		errors.Is(err, model.ErrPromotionPending),
		errors.Is(err, model.ErrNoPromotionPending),
		errors.Is(err, model.ErrInvalidPromotion):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, model.ErrMalformedSnapshot),
		errors.Is(err, notation.ErrInvalidFEN),
		errors.Is(err, store.ErrInvalidName):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
