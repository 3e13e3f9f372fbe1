package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbeisheim/chess-backend/internal/config"
	"github.com/benbeisheim/chess-backend/internal/controller"
	"github.com/benbeisheim/chess-backend/internal/logging"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/benbeisheim/chess-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.DevLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	saves, err := store.New(cfg.SaveDir, logger.Named("store"))
	if err != nil {
		logger.Fatal("open save directory", zap.String("dir", cfg.SaveDir), zap.Error(err))
	}

	// Initialize services
	gameManager := service.NewGameManager(cfg.ClockLimit, logger.Named("games"))
	gameManager.StartMatchmaking(cfg.MatchInterval)
	defer gameManager.Close()
	gameService := service.NewGameService(gameManager, saves, logger.Named("service"))

	// Initialize controllers
	gameController := controller.NewGameController(gameService, cfg.MatchWait)
	wsController := controller.NewWebSocketController(gameService, logger.Named("ws"))

	app := fiber.New(fiber.Config{DisableStartupMessage: !cfg.DevLog})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
		return err
	})

	controller.RegisterRoutes(app, gameController, wsController, splitOrigins(cfg.AllowOrigins))

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("save_dir", saves.Dir()))
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Error("listen", zap.Error(err))
	}
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" && o != "*" {
			origins = append(origins, o)
		}
	}
	return origins
}
