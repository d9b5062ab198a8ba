package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hunterjsb/scrimbot/internal/balance"
)

// statColumns maps a role to its games and wins columns
var statColumns = map[string][2]string{
	balance.RoleTank.String():    {"tank_games", "tank_wins"},
	balance.RoleDamage.String():  {"damage_games", "damage_wins"},
	balance.RoleSupport.String(): {"support_games", "support_wins"},
}

// NewScrimMatch builds a match record from a balance option and the winning side
func NewScrimMatch(id, guildID string, mode balance.Mode, option int, result balance.BalanceResult, winner string) ScrimMatch {
	match := ScrimMatch{
		ID:              id,
		GuildID:         guildID,
		Mode:            mode.String(),
		Option:          option,
		BalanceScore:    result.BalanceScore,
		WinProbabilityA: result.WinProbabilityA,
		Winner:          winner,
	}
	add := func(team string, comp *balance.TeamComposition) {
		for _, a := range comp.Assignments() {
			match.Participants = append(match.Participants, ScrimParticipant{
				MatchID: id,
				UserID:  a.Player.ID,
				Team:    team,
				Role:    a.Role.String(),
			})
		}
	}
	add(TeamA, result.TeamA)
	add(TeamB, result.TeamB)
	return match
}

// RecordScrim stores a finished scrim and credits every participant's role record
// in a single transaction.
func (s *Store) RecordScrim(ctx context.Context, match ScrimMatch) error {
	if match.Winner != TeamA && match.Winner != TeamB {
		return fmt.Errorf("invalid winner %q", match.Winner)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&ScrimMatch{}).Where("id = ?", match.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s", ErrScrimAlreadyRecorded, match.ID)
		}

		if err := tx.Create(&match).Error; err != nil {
			return fmt.Errorf("error creating scrim: %w", err)
		}

		for _, p := range match.Participants {
			cols, ok := statColumns[p.Role]
			if !ok {
				return fmt.Errorf("participant %s has invalid role %q", p.UserID, p.Role)
			}
			player, err := ensurePlayer(tx, match.GuildID, p.UserID, "")
			if err != nil {
				return err
			}

			win := 0
			if p.Team == match.Winner {
				win = 1
			}
			updates := map[string]interface{}{
				cols[0]:       gorm.Expr(cols[0]+" + ?", 1),
				cols[1]:       gorm.Expr(cols[1]+" + ?", win),
				"total_games": gorm.Expr("total_games + ?", 1),
				"total_wins":  gorm.Expr("total_wins + ?", win),
			}
			if err := tx.Model(player).Updates(updates).Error; err != nil {
				return fmt.Errorf("error crediting player %s: %w", p.UserID, err)
			}
		}
		return nil
	})
}

// GetScrim loads a recorded scrim with its participants
func (s *Store) GetScrim(ctx context.Context, id string) (*ScrimMatch, error) {
	var match ScrimMatch
	err := s.db.WithContext(ctx).Preload("Participants").First(&match, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &match, nil
}
