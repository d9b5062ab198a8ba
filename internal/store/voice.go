package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hunterjsb/scrimbot/internal/voice"
)

// ApplyVoiceAccruals credits voice time and relationship EXP in one transaction
// and returns the members who gained a level.
func (s *Store) ApplyVoiceAccruals(ctx context.Context, users []voice.Accrual, pairs []voice.PairAccrual) ([]LevelUp, error) {
	var levelUps []LevelUp
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range users {
			if a.Minutes <= 0 {
				continue
			}
			var profile VoiceProfile
			if err := tx.Where(VoiceProfile{GuildID: a.GuildID, UserID: a.UserID}).FirstOrCreate(&profile).Error; err != nil {
				return fmt.Errorf("error loading voice profile %s: %w", a.UserID, err)
			}

			before := profile.Level
			profile.Minutes += a.Minutes
			profile.Exp += voice.PersonalGain(a.Minutes)
			profile.Level = voice.LevelForExp(profile.Exp)
			if err := tx.Save(&profile).Error; err != nil {
				return fmt.Errorf("error saving voice profile %s: %w", a.UserID, err)
			}
			if profile.Level > before {
				levelUps = append(levelUps, LevelUp{GuildID: a.GuildID, UserID: a.UserID, Level: profile.Level})
			}
		}

		for _, p := range pairs {
			if p.Minutes <= 0 {
				continue
			}
			userA, userB := p.UserA, p.UserB
			if userB < userA {
				userA, userB = userB, userA
			}
			var rel VoiceRelationship
			if err := tx.Where(VoiceRelationship{GuildID: p.GuildID, UserA: userA, UserB: userB}).FirstOrCreate(&rel).Error; err != nil {
				return fmt.Errorf("error loading relationship %s/%s: %w", userA, userB, err)
			}

			rel.Exp += voice.RelationshipGain(rel.Minutes, p.Minutes)
			rel.Minutes += p.Minutes
			if err := tx.Save(&rel).Error; err != nil {
				return fmt.Errorf("error saving relationship %s/%s: %w", userA, userB, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return levelUps, nil
}

// GetVoiceProfile loads a member's voice activity
func (s *Store) GetVoiceProfile(ctx context.Context, guildID, userID string) (*VoiceProfile, error) {
	var profile VoiceProfile
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		First(&profile).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

// TopCompanions returns the member's strongest voice relationships
func (s *Store) TopCompanions(ctx context.Context, guildID, userID string, limit int) ([]VoiceRelationship, error) {
	if limit <= 0 {
		limit = 3
	}
	var rels []VoiceRelationship
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND (user_a = ? OR user_b = ?)", guildID, userID, userID).
		Order("exp DESC").
		Limit(limit).
		Find(&rels).Error
	if err != nil {
		return nil, fmt.Errorf("error loading companions: %w", err)
	}
	return rels, nil
}
