package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

var ErrConnectionClosed = errors.New("connection closed by server")

// Client plays one game session over a websocket. Inbound messages and user intents
// are handled by a single loop, so a render is never interleaved with input.
type Client struct {
	logger *slog.Logger
	conn   *websocket.Conn
	view   View

	mirror *Mirror
	notice string
}

// Dial opens the game connection at url, e.g. ws://localhost:8001/ws.
func Dial(ctx context.Context, url string) (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	_ = resp.Body.Close()

	return conn, nil
}

func New(logger *slog.Logger, conn *websocket.Conn, view View) *Client {
	return &Client{
		logger: logger.With("component", "client"),
		conn:   conn,
		view:   view,
	}
}

type inbound struct {
	data []byte
	err  error
}

// Run connects, renders the snapshot and then serves the session until the server confirms
// a disconnect, the connection fails or ctx is canceled.
func (that *Client) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	messages := make(chan inbound)
	go that.receive(ctx, messages)

	if err := that.send(protocol.Request{Type: protocol.TypeConnect}); err != nil {
		return err
	}

	if err := that.awaitSnapshot(ctx, messages); err != nil {
		return err
	}

	log.Info("joined game", "role", that.mirror.Assigned().String(), "board", that.mirror.Size())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-messages:
			if !ok {
				return ErrConnectionClosed
			}
			if msg.err != nil {
				return msg.err
			}

			done, err := that.handle(msg.data)
			if err != nil || done {
				return err
			}

		case intent := <-that.view.Intents():
			if err := that.request(intent); err != nil {
				return err
			}
		}
	}
}

func (that *Client) awaitSnapshot(ctx context.Context, messages <-chan inbound) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ErrConnectionClosed
			}
			if msg.err != nil {
				return msg.err
			}

			msgType, err := protocol.PeekType(msg.data)
			if err != nil {
				return err
			}

			switch msgType {
			case protocol.TypeStartGame:
				snapshot, err := protocol.Decode[protocol.StartGame](msg.data)
				if err != nil {
					return err
				}

				if that.mirror, err = NewMirror(snapshot); err != nil {
					return err
				}

				return that.render()
			case protocol.TypeError:
				reply, err := protocol.Decode[protocol.Error](msg.data)
				if err != nil {
					return err
				}
				return fmt.Errorf("server refused connect: %s", reply.Error)
			default:
				that.logger.Warn("message before start_game ignored", "type", msgType)
			}
		}
	}
}

// handle applies one server message. It reports true once the server confirmed the disconnect.
func (that *Client) handle(data []byte) (bool, error) {
	log := that.logger.With("method", "handle")

	msgType, err := protocol.PeekType(data)
	if err != nil {
		return false, err
	}

	switch msgType {
	case protocol.TypeIsValidMove:
		result, err := protocol.Decode[protocol.MoveResult](data)
		if err != nil {
			return false, err
		}

		if !result.Valid {
			log.Info("move rejected", "reason", result.Error)
			that.notice = result.Error
			return false, that.render()
		}

		if err = that.mirror.ApplyMove(result); err != nil {
			return false, err
		}

	case protocol.TypeIsValidRestart:
		result, err := protocol.Decode[protocol.RestartResult](data)
		if err != nil {
			return false, err
		}

		if !result.Valid {
			log.Info("restart rejected", "reason", result.Error)
			that.notice = result.Error
			return false, that.render()
		}

		that.mirror.ApplyRestart(result)

	case protocol.TypeError:
		reply, err := protocol.Decode[protocol.Error](data)
		if err != nil {
			return false, err
		}

		log.Warn("server error", "error", reply.Error)
		that.notice = reply.Error
		return false, that.render()

	case protocol.TypeConfirmDisconnect:
		log.Info("disconnect confirmed")
		return true, nil

	default:
		log.Warn("unexpected message", "type", msgType)
		return false, nil
	}

	that.notice = ""

	return false, that.render()
}

// request turns an intent into a message. The mirror is not touched until the server answers.
func (that *Client) request(intent Intent) error {
	switch intent.Kind {
	case IntentMove:
		move := entity.Move{Row: intent.Row, Col: intent.Col}
		return that.send(protocol.Request{Type: protocol.TypeMove, Move: &move})
	case IntentRestart:
		return that.send(protocol.Request{Type: protocol.TypeRestart})
	case IntentQuit:
		return that.send(protocol.Request{Type: protocol.TypeRequestDisconnect})
	default:
		return fmt.Errorf("unknown intent %d", intent.Kind)
	}
}

func (that *Client) render() error {
	frame := that.mirror.Frame()
	frame.Notice = that.notice

	if err := that.view.Render(frame); err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}

	return nil
}

func (that *Client) send(req protocol.Request) error {
	_ = that.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	if err := that.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("failed to send %s: %w", req.Type, err)
	}

	return nil
}

// receive forwards inbound messages until the connection ends. A normal close ends the stream silently.
func (that *Client) receive(ctx context.Context, messages chan<- inbound) {
	defer close(messages)

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				select {
				case messages <- inbound{err: fmt.Errorf("failed to read message: %w", err)}:
				case <-ctx.Done():
				}
			}
			return
		}

		select {
		case messages <- inbound{data: data}:
		case <-ctx.Done():
			return
		}
	}
}
