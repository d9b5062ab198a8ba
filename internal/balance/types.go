package balance

import (
	"errors"
	"fmt"
	"strings"
)

// TeamSize is the number of players on one side of a scrim
const TeamSize = 5

// LobbySize is the number of players a balancing run needs
const LobbySize = TeamSize * 2

var (
	// ErrInvalidPlayerCount is returned when a generator or the search receives the wrong number of players
	ErrInvalidPlayerCount = errors.New("invalid player count")
	// ErrInvalidMode is returned when a mode name cannot be parsed
	ErrInvalidMode = errors.New("invalid balance mode")
	// ErrNoRandSource is returned when experimental mode is asked to run without a random source
	ErrNoRandSource = errors.New("experimental mode requires a random source")
)

// Role is a functional position on a team
type Role int

const (
	RoleUnset Role = iota
	RoleTank
	RoleDamage
	RoleSupport
)

// Roles lists the assignable roles in slot order
var Roles = []Role{RoleTank, RoleDamage, RoleSupport}

// ParseRole converts a user supplied role name into a Role.
// Unrecognized names map to RoleUnset.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tank":
		return RoleTank
	case "damage", "dps":
		return RoleDamage
	case "support", "healer":
		return RoleSupport
	default:
		return RoleUnset
	}
}

func (r Role) String() string {
	switch r {
	case RoleTank:
		return "tank"
	case RoleDamage:
		return "damage"
	case RoleSupport:
		return "support"
	default:
		return "unset"
	}
}

// Mode selects the candidate generation strategy
type Mode int

const (
	// ModeExhaustive evaluates every 5v5 split
	ModeExhaustive Mode = iota
	// ModeQuick evaluates a handful of skill-sorted splits
	ModeQuick
	// ModeExperimental adds role-stratified and random splits to the quick set
	ModeExperimental
)

// Modes lists every supported mode
var Modes = []Mode{ModeExhaustive, ModeQuick, ModeExperimental}

// ParseMode converts a mode name into a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exhaustive", "full":
		return ModeExhaustive, nil
	case "quick", "heuristic":
		return ModeQuick, nil
	case "experimental":
		return ModeExperimental, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeExhaustive:
		return "exhaustive"
	case ModeQuick:
		return "quick"
	case ModeExperimental:
		return "experimental"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// RoleRecord is a games/wins tally
type RoleRecord struct {
	Games int `json:"games"`
	Wins  int `json:"wins"`
}

// WinRate returns wins/games, or 0 when no games were played
func (r RoleRecord) WinRate() float64 {
	if r.Games <= 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Games)
}

// PlayerSnapshot is the historical record of one player at the start of a run.
// Callers guarantee Wins <= Games for every record.
type PlayerSnapshot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	PrimaryRole Role       `json:"primaryRole"`
	Tank        RoleRecord `json:"tank"`
	Damage      RoleRecord `json:"damage"`
	Support     RoleRecord `json:"support"`
	Overall     RoleRecord `json:"overall"`
}

// RecordFor returns the tally for a role
func (p PlayerSnapshot) RecordFor(role Role) RoleRecord {
	switch role {
	case RoleTank:
		return p.Tank
	case RoleDamage:
		return p.Damage
	case RoleSupport:
		return p.Support
	default:
		return p.Overall
	}
}
