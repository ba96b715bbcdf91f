package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
)

type scoreReader interface {
	Scores(ctx context.Context) (map[string]int64, error)
}

type stateReader interface {
	Snapshot(role entity.Role) protocol.StartGame
}

// Handlers serve read-only views of the running game. All mutations go through the websocket.
type Handlers struct {
	logger *slog.Logger
	scores scoreReader
	state  stateReader
}

func NewHandlers(logger *slog.Logger, scores scoreReader, state stateReader) *Handlers {
	return &Handlers{
		logger: logger.With("component", "rest"),
		scores: scores,
		state:  state,
	}
}

func (that *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.PingHandler)
	mux.HandleFunc("GET /scores", that.ScoresHandler)
	mux.HandleFunc("GET /state", that.StateHandler)

	return mux
}

// ScoresHandler returns the number of games won per label. Ties are counted under "-".
func (that *Handlers) ScoresHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ScoresHandler")

	scores, err := that.scores.Scores(r.Context())
	if err != nil {
		log.Error("failed to get scores", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, scores)
}

// StateHandler returns the snapshot a spectator would receive on connect.
func (that *Handlers) StateHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, that.state.Snapshot(entity.Spectator))
}

func (that *Handlers) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Warn("failed to write response", "error", err)
	}
}
