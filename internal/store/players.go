package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hunterjsb/scrimbot/internal/balance"
)

// Member identifies a guild member whose record should be loaded
type Member struct {
	UserID      string
	DisplayName string
}

// EnsurePlayer returns the member's record, creating it when missing and
// refreshing the display name when it changed.
func (s *Store) EnsurePlayer(ctx context.Context, guildID, userID, displayName string) (*Player, error) {
	return ensurePlayer(s.db.WithContext(ctx), guildID, userID, displayName)
}

func ensurePlayer(db *gorm.DB, guildID, userID, displayName string) (*Player, error) {
	var player Player
	err := db.Where(Player{GuildID: guildID, UserID: userID}).
		Attrs(Player{DisplayName: displayName}).
		FirstOrCreate(&player).Error
	if err != nil {
		return nil, fmt.Errorf("error ensuring player %s: %w", userID, err)
	}

	if displayName != "" && player.DisplayName != displayName {
		if err := db.Model(&player).Update("display_name", displayName).Error; err != nil {
			return nil, fmt.Errorf("error renaming player %s: %w", userID, err)
		}
		player.DisplayName = displayName
	}
	return &player, nil
}

// GetPlayer loads a member's record
func (s *Store) GetPlayer(ctx context.Context, guildID, userID string) (*Player, error) {
	var player Player
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		First(&player).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &player, nil
}

// SetPrimaryRole stores the member's declared role. RoleUnset clears it.
func (s *Store) SetPrimaryRole(ctx context.Context, guildID, userID, displayName string, role balance.Role) error {
	db := s.db.WithContext(ctx)
	player, err := ensurePlayer(db, guildID, userID, displayName)
	if err != nil {
		return err
	}

	value := role.String()
	if role == balance.RoleUnset {
		value = ""
	}
	return db.Model(player).Update("primary_role", value).Error
}

// PlayerSnapshots loads balancer input for members, creating empty records for
// newcomers. Output order matches input order.
func (s *Store) PlayerSnapshots(ctx context.Context, guildID string, members []Member) ([]balance.PlayerSnapshot, error) {
	snapshots := make([]balance.PlayerSnapshot, 0, len(members))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range members {
			player, err := ensurePlayer(tx, guildID, m.UserID, m.DisplayName)
			if err != nil {
				return err
			}
			snapshots = append(snapshots, player.Snapshot())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// Leaderboard ranks members with at least minGames by win rate, then games played
func (s *Store) Leaderboard(ctx context.Context, guildID string, minGames, limit int) ([]LeaderboardEntry, error) {
	if minGames < 1 {
		minGames = 1
	}
	if limit <= 0 {
		limit = 10
	}

	var players []Player
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND total_games >= ?", guildID, minGames).
		Order("CAST(total_wins AS REAL) / total_games DESC").
		Order("total_games DESC").
		Order("user_id ASC").
		Limit(limit).
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("error loading leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = LeaderboardEntry{
			Rank:        i + 1,
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Games:       p.TotalGames,
			Wins:        p.TotalWins,
			WinRate:     p.WinRate(),
			PrimaryRole: p.PrimaryRole,
		}
	}
	return entries, nil
}
