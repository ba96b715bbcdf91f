package entity

import (
	"encoding/json"
	"fmt"
)

const (
	SpectatorLabel = "spectator"
	PlayerTie      = "-"
)

// Player is an immutable participant identity. Two players are equal when their labels are.
type Player struct {
	Label string
	Color string
}

func (that Player) Equal(other Player) bool {
	return that.Label == other.Label
}

// MarshalJSON encodes a player as a [label, color] pair.
func (that Player) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{that.Label, that.Color})
}

func (that *Player) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("player must be a [label, color] pair: %w", err)
	}

	if len(pair) != 2 {
		return fmt.Errorf("%w: got %d elements", ErrInvalidPlayer, len(pair))
	}

	that.Label, that.Color = pair[0], pair[1]

	return nil
}

// Role is what a connection plays as: one of the configured players or a spectator.
type Role struct {
	Player    Player
	Spectator bool
}

var Spectator = Role{Spectator: true}

func RoleOf(player Player) Role {
	return Role{Player: player}
}

func (that Role) IsPlayer() bool {
	return !that.Spectator
}

// Label returns the player label, or an empty string for spectators.
func (that Role) Label() string {
	if that.Spectator {
		return ""
	}
	return that.Player.Label
}

func (that Role) String() string {
	if that.Spectator {
		return SpectatorLabel
	}
	return that.Player.Label
}

// MarshalJSON encodes a player role as its [label, color] pair and a spectator as "spectator".
func (that Role) MarshalJSON() ([]byte, error) {
	if that.Spectator {
		return json.Marshal(SpectatorLabel)
	}
	return json.Marshal(that.Player)
}

func (that *Role) UnmarshalJSON(data []byte) error {
	var sentinel string
	if err := json.Unmarshal(data, &sentinel); err == nil {
		if sentinel != SpectatorLabel {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidPlayer, sentinel)
		}
		*that = Spectator
		return nil
	}

	var player Player
	if err := json.Unmarshal(data, &player); err != nil {
		return err
	}

	*that = RoleOf(player)

	return nil
}
