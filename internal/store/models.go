package store

import (
	"time"

	"github.com/hunterjsb/scrimbot/internal/balance"
)

// Player is a guild member's scrim record
type Player struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GuildID      string    `gorm:"size:32;not null;uniqueIndex:idx_player_guild_user" json:"guildId"`
	UserID       string    `gorm:"size:32;not null;uniqueIndex:idx_player_guild_user" json:"userId"`
	DisplayName  string    `gorm:"size:100" json:"displayName"`
	PrimaryRole  string    `gorm:"size:16;default:''" json:"primaryRole"`
	TankGames    int       `gorm:"default:0" json:"tankGames"`
	TankWins     int       `gorm:"default:0" json:"tankWins"`
	DamageGames  int       `gorm:"default:0" json:"damageGames"`
	DamageWins   int       `gorm:"default:0" json:"damageWins"`
	SupportGames int       `gorm:"default:0" json:"supportGames"`
	SupportWins  int       `gorm:"default:0" json:"supportWins"`
	TotalGames   int       `gorm:"default:0;index" json:"totalGames"`
	TotalWins    int       `gorm:"default:0" json:"totalWins"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Player) TableName() string {
	return "players"
}

// Snapshot converts the record into balancer input
func (p Player) Snapshot() balance.PlayerSnapshot {
	return balance.PlayerSnapshot{
		ID:          p.UserID,
		Name:        p.DisplayName,
		PrimaryRole: balance.ParseRole(p.PrimaryRole),
		Tank:        balance.RoleRecord{Games: p.TankGames, Wins: p.TankWins},
		Damage:      balance.RoleRecord{Games: p.DamageGames, Wins: p.DamageWins},
		Support:     balance.RoleRecord{Games: p.SupportGames, Wins: p.SupportWins},
		Overall:     balance.RoleRecord{Games: p.TotalGames, Wins: p.TotalWins},
	}
}

// WinRate returns total wins over total games
func (p Player) WinRate() float64 {
	if p.TotalGames == 0 {
		return 0
	}
	return float64(p.TotalWins) / float64(p.TotalGames)
}

// Team sides
const (
	TeamA = "A"
	TeamB = "B"
)

// ScrimMatch is a recorded scrim built from a balance option
type ScrimMatch struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	GuildID         string    `gorm:"size:32;not null;index" json:"guildId"`
	Mode            string    `gorm:"size:16" json:"mode"`
	Option          int       `json:"option"`
	BalanceScore    float64   `json:"balanceScore"`
	WinProbabilityA float64   `json:"winProbabilityA"`
	Winner          string    `gorm:"size:1;not null" json:"winner"`
	CreatedAt       time.Time `json:"createdAt"`

	Participants []ScrimParticipant `gorm:"foreignKey:MatchID" json:"participants,omitempty"`
}

func (ScrimMatch) TableName() string {
	return "scrim_matches"
}

// ScrimParticipant is one player's seat in a scrim
type ScrimParticipant struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	MatchID string `gorm:"size:36;not null;index" json:"matchId"`
	UserID  string `gorm:"size:32;not null" json:"userId"`
	Team    string `gorm:"size:1;not null" json:"team"`
	Role    string `gorm:"size:16;not null" json:"role"`
}

func (ScrimParticipant) TableName() string {
	return "scrim_participants"
}

// VoiceProfile is a member's accumulated voice activity
type VoiceProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GuildID   string    `gorm:"size:32;not null;uniqueIndex:idx_voice_guild_user" json:"guildId"`
	UserID    string    `gorm:"size:32;not null;uniqueIndex:idx_voice_guild_user" json:"userId"`
	Minutes   float64   `json:"minutes"`
	Exp       float64   `json:"exp"`
	Level     int       `json:"level"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (VoiceProfile) TableName() string {
	return "voice_profiles"
}

// VoiceRelationship is co-presence between two members. UserA sorts before UserB.
type VoiceRelationship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GuildID   string    `gorm:"size:32;not null;uniqueIndex:idx_rel_pair" json:"guildId"`
	UserA     string    `gorm:"size:32;not null;uniqueIndex:idx_rel_pair" json:"userA"`
	UserB     string    `gorm:"size:32;not null;uniqueIndex:idx_rel_pair" json:"userB"`
	Minutes   float64   `json:"minutes"`
	Exp       float64   `json:"exp"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (VoiceRelationship) TableName() string {
	return "voice_relationships"
}

// Other returns the member of the pair that is not userID
func (r VoiceRelationship) Other(userID string) string {
	if r.UserA == userID {
		return r.UserB
	}
	return r.UserA
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	UserID      string  `json:"userId"`
	DisplayName string  `json:"displayName"`
	Games       int     `json:"games"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"winRate"`
	PrimaryRole string  `json:"primaryRole"`
}

// LevelUp reports a member crossing a voice level
type LevelUp struct {
	GuildID string
	UserID  string
	Level   int
}
