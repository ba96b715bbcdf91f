package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

// Session binds a live connection to the role it plays.
type Session struct {
	ConnID      string
	Role        entity.Role
	ConnectedAt time.Time
}

// Registry hands out player roles to connections and takes them back on disconnect.
// Free roles form a FIFO queue: configured order first, then in release order.
type Registry struct {
	mu sync.Mutex

	players   []entity.Player
	available []entity.Player
	sessions  map[string]*Session

	now func() time.Time
}

func NewRegistry(players []entity.Player) *Registry {
	return &Registry{
		players:   append([]entity.Player(nil), players...),
		available: append([]entity.Player(nil), players...),
		sessions:  make(map[string]*Session),
		now:       time.Now,
	}
}

// AssignRole pops the next free player role, or returns the spectator role when none is left.
func (that *Registry) AssignRole() entity.Role {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.assignRole()
}

func (that *Registry) assignRole() entity.Role {
	if len(that.available) == 0 {
		return entity.Spectator
	}

	player := that.available[0]
	that.available = that.available[1:]

	return entity.RoleOf(player)
}

// Release returns a player role to the back of the queue. Spectator roles and roles
// still held by a live session are ignored.
func (that *Registry) Release(role entity.Role) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.release(role)
}

func (that *Registry) release(role entity.Role) {
	if !role.IsPlayer() || !that.isConfigured(role.Player) || that.isHeld(role.Player) {
		return
	}

	for _, player := range that.available {
		if player.Equal(role.Player) {
			return
		}
	}

	that.available = append(that.available, role.Player)
}

func (that *Registry) isHeld(player entity.Player) bool {
	for _, sess := range that.sessions {
		if sess.Role.IsPlayer() && sess.Role.Player.Equal(player) {
			return true
		}
	}
	return false
}

func (that *Registry) isConfigured(player entity.Player) bool {
	for _, configured := range that.players {
		if configured.Equal(player) {
			return true
		}
	}
	return false
}

// Open creates the session of a connection and assigns it a role.
func (that *Registry) Open(connID string) (Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[connID]; ok {
		return Session{}, fmt.Errorf("%w: %s", apperror.ErrSessionExists, connID)
	}

	sess := &Session{
		ConnID:      connID,
		Role:        that.assignRole(),
		ConnectedAt: that.now(),
	}
	that.sessions[connID] = sess

	return *sess, nil
}

// Close removes the session of a connection and releases its role.
func (that *Registry) Close(connID string) (Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	sess, ok := that.sessions[connID]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, connID)
	}

	delete(that.sessions, connID)
	that.release(sess.Role)

	return *sess, nil
}

func (that *Registry) Get(connID string) (Session, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	sess, ok := that.sessions[connID]
	if !ok {
		return Session{}, false
	}

	return *sess, true
}

func (that *Registry) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.sessions)
}

// Available returns the free player roles in the order they will be handed out.
func (that *Registry) Available() []entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]entity.Player(nil), that.available...)
}

// Assigned returns the player roles currently held by live sessions.
func (that *Registry) Assigned() []entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	assigned := make([]entity.Player, 0, len(that.players))
	for _, sess := range that.sessions {
		if sess.Role.IsPlayer() {
			assigned = append(assigned, sess.Role.Player)
		}
	}

	return assigned
}
