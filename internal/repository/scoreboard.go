package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

const scoreboardKey = "scoreboard"

var ErrInvalidOutcome = errors.New("outcome has no winner")

// Scoreboard counts finished games per winner label. Ties are counted under entity.PlayerTie.
type Scoreboard interface {
	Record(ctx context.Context, outcome entity.Outcome) error
	Scores(ctx context.Context) (map[string]int64, error)
}

type redisScoreboard struct {
	client *redis.Client
}

func NewRedisScoreboard(client *redis.Client) Scoreboard {
	return &redisScoreboard{
		client: client,
	}
}

func (that *redisScoreboard) Record(ctx context.Context, outcome entity.Outcome) error {
	if outcome.Winner == "" {
		return ErrInvalidOutcome
	}

	if err := that.client.HIncrBy(ctx, scoreboardKey, outcome.Winner, 1).Err(); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	return nil
}

func (that *redisScoreboard) Scores(ctx context.Context) (map[string]int64, error) {
	response, err := that.client.HGetAll(ctx, scoreboardKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}

	scores := make(map[string]int64, len(response))
	for label, value := range response {
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse score of %s: %w", label, err)
		}
		scores[label] = count
	}

	return scores, nil
}

type memoryScoreboard struct {
	mu     sync.Mutex
	scores map[string]int64
}

// NewMemoryScoreboard is used when no redis is configured. Scores live as long as the process.
func NewMemoryScoreboard() Scoreboard {
	return &memoryScoreboard{
		scores: make(map[string]int64),
	}
}

func (that *memoryScoreboard) Record(_ context.Context, outcome entity.Outcome) error {
	if outcome.Winner == "" {
		return ErrInvalidOutcome
	}

	that.mu.Lock()
	that.scores[outcome.Winner]++
	that.mu.Unlock()

	return nil
}

func (that *memoryScoreboard) Scores(_ context.Context) (map[string]int64, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	scores := make(map[string]int64, len(that.scores))
	for label, count := range that.scores {
		scores[label] = count
	}

	return scores, nil
}
