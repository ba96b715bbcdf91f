package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

const DefaultBuffer = 64

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrSlowConsumer       = errors.New("connection outbound queue is full")
)

// Outbound is one encoded message queued for a connection.
// Close asks the writer to terminate the connection after writing it.
type Outbound struct {
	Payload []byte
	Close   bool
}

// Conn is the outbound side of one live connection.
type Conn struct {
	ID string

	send chan Outbound
	done chan struct{}
	once sync.Once
}

// Outbound yields queued messages in enqueue order.
func (that *Conn) Outbound() <-chan Outbound {
	return that.send
}

// Done is closed once the hub has dropped the connection.
func (that *Conn) Done() <-chan struct{} {
	return that.done
}

func (that *Conn) drop() {
	that.once.Do(func() { close(that.done) })
}

// Hub delivers messages to every registered connection. Enqueueing never blocks:
// a connection that cannot keep up is dropped.
type Hub struct {
	logger *slog.Logger
	buffer int

	mu    sync.RWMutex
	conns map[string]*Conn
}

func New(logger *slog.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	return &Hub{
		logger: logger.With("component", "hub"),
		buffer: buffer,
		conns:  make(map[string]*Conn),
	}
}

func (that *Hub) Register(id string) *Conn {
	conn := &Conn{
		ID:   id,
		send: make(chan Outbound, that.buffer),
		done: make(chan struct{}),
	}

	that.mu.Lock()
	if previous, ok := that.conns[id]; ok {
		previous.drop()
	}
	that.conns[id] = conn
	that.mu.Unlock()

	return conn
}

func (that *Hub) Unregister(id string) {
	that.mu.Lock()
	conn, ok := that.conns[id]
	delete(that.conns, id)
	that.mu.Unlock()

	if ok {
		conn.drop()
	}
}

func (that *Hub) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.conns)
}

func (that *Hub) Send(id string, msg any) error {
	return that.send(id, msg, false)
}

// SendAndClose queues msg as the last message of the connection.
func (that *Hub) SendAndClose(id string, msg any) error {
	return that.send(id, msg, true)
}

func (that *Hub) send(id string, msg any, closeAfter bool) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	that.mu.RLock()
	conn, ok := that.conns[id]
	that.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}

	if !enqueue(conn, Outbound{Payload: payload, Close: closeAfter}) {
		that.evict(conn)
		return fmt.Errorf("%w: %s", ErrSlowConsumer, id)
	}

	return nil
}

// Broadcast queues msg for every connection registered at the time of the call.
func (that *Hub) Broadcast(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	var slow []*Conn

	that.mu.RLock()
	for _, conn := range that.conns {
		if !enqueue(conn, Outbound{Payload: payload}) {
			slow = append(slow, conn)
		}
	}
	that.mu.RUnlock()

	for _, conn := range slow {
		that.evict(conn)
	}

	return nil
}

func (that *Hub) evict(conn *Conn) {
	that.logger.Warn("dropping slow connection", "connID", conn.ID)

	that.mu.Lock()
	if current, ok := that.conns[conn.ID]; ok && current == conn {
		delete(that.conns, conn.ID)
	}
	that.mu.Unlock()

	conn.drop()
}

func enqueue(conn *Conn, out Outbound) bool {
	select {
	case <-conn.done:
		return true
	default:
	}

	select {
	case conn.send <- out:
		return true
	default:
		return false
	}
}
