package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel   string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8001"`
	Board      Board     `yaml:"board"`
	WebSocket  WebSocket `yaml:"websocket"`
	Redis      Redis     `yaml:"redis"`
}

type Board struct {
	Size    int      `yaml:"size" env:"BOARD_SIZE" env-default:"3"`
	Players []Player `yaml:"players"`
}

// Player is a configured player label with the color clients draw it in.
type Player struct {
	Label string `yaml:"label"`
	Color string `yaml:"color"`
}

type WebSocket struct {
	PingInterval time.Duration `yaml:"ping-interval" env:"WS_PING_INTERVAL" env-default:"0s"`
	WriteTimeout time.Duration `yaml:"write-timeout" env:"WS_WRITE_TIMEOUT" env-default:"10s"`
	SendBuffer   int           `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"64"`
}

// Redis keeps the scoreboard. An empty host keeps it in memory.
type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	if that.Board.Size < 1 || that.Board.Size > entity.MaxBoardSize {
		return fmt.Errorf("%w: board size %d is out of 1..%d", ErrInvalidConfig, that.Board.Size, entity.MaxBoardSize)
	}

	if err := entity.ValidatePlayers(that.Board.EntityPlayers()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if that.WebSocket.PingInterval < 0 {
		return fmt.Errorf("%w: negative ping interval", ErrInvalidConfig)
	}

	if that.WebSocket.SendBuffer < 1 {
		return fmt.Errorf("%w: send buffer must be positive", ErrInvalidConfig)
	}

	return nil
}

// EntityPlayers returns the configured players in turn order, or the default X and O when none are set.
func (that *Board) EntityPlayers() []entity.Player {
	if len(that.Players) == 0 {
		return append([]entity.Player(nil), entity.DefaultPlayers...)
	}

	players := make([]entity.Player, 0, len(that.Players))
	for _, player := range that.Players {
		players = append(players, entity.Player{Label: player.Label, Color: player.Color})
	}

	return players
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// ClientConfig is read from the environment only.
type ClientConfig struct {
	ServerURL string `env:"TTT_SERVER_URL" env-default:"ws://localhost:8001/ws"`
	LogFile   string `env:"TTT_LOG_FILE"`
	LogLevel  string `env:"TTT_LOG_LEVEL" env-default:"info"`
}

func LoadClient() (*ClientConfig, error) {
	config := &ClientConfig{}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to read client config: %w", err)
	}

	return config, nil
}
