package controller

import (
	"encoding/json"
	"fmt"

	"github.com/benbeisheim/chess-backend/internal/logging"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/benbeisheim/chess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

type WebSocketController struct {
	gameService *service.GameService
	logger      *zap.Logger
}

func NewWebSocketController(gameService *service.GameService, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
		logger:      logging.OrNop(logger),
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID, _ := c.Locals("wsGameID").(string)
	if gameID == "" {
		gameID = c.Params("gameId")
	}
	playerID, _ := c.Locals("wsPlayerID").(string)
	if playerID == "" {
		playerID, _ = c.Locals("playerID").(string)
	}
	logger := wsc.logger.With(zap.String("game_id", gameID), zap.String("player_id", playerID))

	// a refused connection must not unregister the one already open
	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		logger.Warn("register connection", zap.Error(err))
		wsc.sendError(gameID, c, err)
		c.Close()
		return
	}

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("read error", zap.Error(err))
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Debug("parse error", zap.Error(err))
			wsc.sendError(gameID, c, err)
			continue
		}
		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			wsc.sendError(gameID, c, err)
		}
	}

	wsc.gameService.UnregisterConnection(gameID, playerID, c)
}

// handleMessage routes one client message. State updates reach the client
// through the game's broadcast, so only errors are answered here.
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.MoveRequest
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		_, err := wsc.gameService.HandleMove(gameID, playerID, move)
		return err

	case ws.MessageTypeSelect:
		var payload ws.SquarePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		_, err := wsc.gameService.Select(gameID, playerID, payload.Square)
		return err

	case ws.MessageTypeClick:
		var payload ws.SquarePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		_, err := wsc.gameService.Click(gameID, playerID, payload.Square)
		return err

	case ws.MessageTypePromote:
		var payload ws.PromotePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		_, err := wsc.gameService.Promote(gameID, playerID, payload.Piece)
		return err

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (wsc *WebSocketController) sendError(gameID string, c *websocket.Conn, err error) {
	payload, _ := json.Marshal(ws.ErrorPayload{Error: err.Error()})
	if werr := wsc.gameService.Send(gameID, c, ws.Message{
		Type:    ws.MessageTypeError,
		Payload: payload,
	}); werr != nil {
		wsc.logger.Debug("write error", zap.Error(werr))
	}
}
