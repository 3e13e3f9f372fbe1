package controller

import (
	"github.com/benbeisheim/chess-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mounts the REST API under /api and the live game channel
// under /ws. origins limits websocket upgrades; empty allows any origin.
func RegisterRoutes(app *fiber.App, gc *GameController, wsc *WebSocketController, origins []string) {
	app.Use("/ws/*", middleware.EnsurePlayerID())
	app.Get("/ws/game/:gameId", middleware.WebSocketUpgrade(), websocket.New(wsc.HandleConnection, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         origins,
	}))

	api := app.Group("/api", middleware.EnsurePlayerID())

	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gc.JoinMatchmaking)
	gameRoutes.Get("/matchmaking/status", gc.MatchmakingStatus)
	gameRoutes.Post("/matchmaking/leave", gc.LeaveMatchmaking)
	gameRoutes.Post("/create", gc.CreateGame)
	gameRoutes.Post("/join/:gameId", gc.JoinGame)
	gameRoutes.Get("/:gameId", gc.GetGameState)
	gameRoutes.Delete("/:gameId", gc.RemoveGame)
	gameRoutes.Post("/:gameId/select", gc.Select)
	gameRoutes.Post("/:gameId/move", gc.MakeMove)
	gameRoutes.Post("/:gameId/click", gc.Click)
	gameRoutes.Post("/:gameId/promote", gc.Promote)
	gameRoutes.Post("/:gameId/reset", gc.Reset)
	gameRoutes.Get("/:gameId/moves/:square", gc.LegalMoves)
	gameRoutes.Get("/:gameId/board.svg", gc.BoardSVG)
	gameRoutes.Get("/:gameId/opening", gc.Opening)
	gameRoutes.Post("/:gameId/save", gc.SaveGame)
	gameRoutes.Post("/:gameId/load", gc.LoadGame)

	saveRoutes := api.Group("/saves")
	saveRoutes.Get("/", gc.ListSaves)
	saveRoutes.Delete("/:filename", gc.DeleteSave)
}
