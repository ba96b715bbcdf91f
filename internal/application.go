package application

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-sync/internal/config"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/hub"
	"github.com/rocketscienceinc/tictactoe-sync/internal/repository"
	"github.com/rocketscienceinc/tictactoe-sync/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-sync/internal/session"
	"github.com/rocketscienceinc/tictactoe-sync/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-sync/transport/rest"
	"github.com/rocketscienceinc/tictactoe-sync/transport/websocket"
)

// RunApp - runs the game server until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scoreboard, closeScoreboard, err := newScoreboard(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeScoreboard()

	players := conf.Board.EntityPlayers()

	game, err := entity.NewGame(conf.Board.Size, players)
	if err != nil {
		return fmt.Errorf("could not create game: %w", err)
	}

	connections := hub.New(logger, conf.WebSocket.SendBuffer)
	gameManager := usecase.NewGameManager(logger, game, session.NewRegistry(players), connections, scoreboard)

	wsServer := websocket.New(logger, gameManager, connections, websocket.Options{
		PingInterval: conf.WebSocket.PingInterval,
		WriteTimeout: conf.WebSocket.WriteTimeout,
	})
	handlers := rest.NewHandlers(logger, scoreboard, gameManager)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, handlers); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort, "board", conf.Board.Size, "players", len(players))
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			return fmt.Errorf("WebSocket server error: %w", wsErr)
		}
		return nil
	})

	// a failing server cancels ctx, which stops the other one
	err = group.Wait()

	log.Info("Application stopped")

	return err
}

func newScoreboard(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.Scoreboard, func(), error) {
	addr := conf.Redis.GetRedisAddr()
	if addr == "" {
		log.Info("redis is not configured, keeping scores in memory")
		return repository.NewMemoryScoreboard(), func() {}, nil
	}

	redisStorage, err := storage.NewRedis(ctx, addr)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStorage := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewRedisScoreboard(redisStorage), closeStorage, nil
}
