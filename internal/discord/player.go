package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/hunterjsb/scrimbot/internal/balance"
	"github.com/hunterjsb/scrimbot/internal/metrics"
	"github.com/hunterjsb/scrimbot/internal/store"
	"github.com/hunterjsb/scrimbot/internal/voice"
)

const (
	leaderboardSize = 10
	companionCount  = 3
)

// handleRoleCommand handles the /role command
func (b *DiscordBot) handleRoleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.deferResponse(s, i) {
		return
	}

	opts := ParseOptions(i.ApplicationCommandData().Options)
	role := balance.ParseRole(opts.String("role", ""))
	if role == balance.RoleUnset {
		b.sendError(s, i, "Invalid Role", "Role must be tank, damage or support.")
		return
	}

	user, name := invoker(i)
	if i.GuildID == "" || user == nil {
		b.sendError(s, i, "Server Only", "Roles are tracked per server.")
		return
	}

	if err := b.Store.SetPrimaryRole(context.Background(), i.GuildID, user.ID, name, role); err != nil {
		b.Logger.Error("error setting role", zap.String("user", user.ID), zap.Error(err))
		b.sendError(s, i, "Database Error", "Could not save your role.")
		return
	}

	b.sendEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Role Updated",
		Description: fmt.Sprintf("%s now mains %s.", mention(user.ID), roleLabel(role)),
		Color:       colorSuccess,
	})
	metrics.CommandHandled("role", nil)
}

// handleLeaderboardCommand handles the /leaderboard command
func (b *DiscordBot) handleLeaderboardCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.deferResponse(s, i) {
		return
	}

	opts := ParseOptions(i.ApplicationCommandData().Options)
	minGames := opts.Int("min_games", 1)

	entries, err := b.Store.Leaderboard(context.Background(), i.GuildID, minGames, leaderboardSize)
	if err != nil {
		b.Logger.Error("error loading leaderboard", zap.String("guild", i.GuildID), zap.Error(err))
		b.sendError(s, i, "Database Error", "Could not load the leaderboard.")
		return
	}

	b.sendEmbed(s, i, b.formatLeaderboardEmbed(entries, minGames))
	metrics.CommandHandled("leaderboard", nil)
}

// PostLeaderboard sends the leaderboard to the configured channel.
// It does nothing when no channel is configured.
func (b *DiscordBot) PostLeaderboard(ctx context.Context) error {
	channelID := b.Config.LeaderboardChannelID
	if channelID == "" {
		return nil
	}

	guildID := b.GuildID
	if ch, err := b.Session.State.Channel(channelID); err == nil {
		guildID = ch.GuildID
	} else if ch, err := b.Session.Channel(channelID, discordgo.WithContext(ctx)); err == nil {
		guildID = ch.GuildID
	}
	if guildID == "" {
		return fmt.Errorf("cannot resolve guild for channel %s", channelID)
	}

	entries, err := b.Store.Leaderboard(ctx, guildID, 1, leaderboardSize)
	if err != nil {
		return err
	}

	embed := b.formatLeaderboardEmbed(entries, 1)
	if _, err := b.Session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("error posting leaderboard: %w", err)
	}
	return nil
}

// formatLeaderboardEmbed formats leaderboard rows into a Discord embed
func (b *DiscordBot) formatLeaderboardEmbed(entries []store.LeaderboardEntry, minGames int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🏅 Scrim Leaderboard",
		Color: colorGold,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Minimum %d games · ranked by win rate", minGames),
		},
	}

	if len(entries) == 0 {
		embed.Description = "No one has played enough scrims yet."
		return embed
	}

	medals := []string{"🥇", "🥈", "🥉"}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		rank := fmt.Sprintf("`%2d.`", e.Rank)
		if e.Rank <= len(medals) {
			rank = medals[e.Rank-1]
		}
		name := e.DisplayName
		if name == "" {
			name = mention(e.UserID)
		}
		role := ""
		if r := balance.ParseRole(e.PrimaryRole); r != balance.RoleUnset {
			role = " · " + roleLabel(r)
		}
		lines = append(lines, fmt.Sprintf("%s **%s** %s (%dW / %dG)%s", rank, name, percent(e.WinRate), e.Wins, e.Games, role))
	}
	embed.Description = strings.Join(lines, "\n")
	return embed
}

// handleLevelCommand handles the /level command
func (b *DiscordBot) handleLevelCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.deferResponse(s, i) {
		return
	}

	user, _ := invoker(i)
	if i.GuildID == "" || user == nil {
		b.sendError(s, i, "Server Only", "Voice levels are tracked per server.")
		return
	}
	opts := ParseOptions(i.ApplicationCommandData().Options)
	targetID := opts.UserID("user", user.ID)

	ctx := context.Background()
	profile, err := b.Store.GetVoiceProfile(ctx, i.GuildID, targetID)
	if errors.Is(err, store.ErrNotFound) {
		profile = &store.VoiceProfile{GuildID: i.GuildID, UserID: targetID}
	} else if err != nil {
		b.Logger.Error("error loading voice profile", zap.String("user", targetID), zap.Error(err))
		b.sendError(s, i, "Database Error", "Could not load voice activity.")
		return
	}

	companions, err := b.Store.TopCompanions(ctx, i.GuildID, targetID, companionCount)
	if err != nil {
		b.Logger.Warn("error loading companions", zap.String("user", targetID), zap.Error(err))
	}

	b.sendEmbed(s, i, b.formatLevelEmbed(profile, companions))
	metrics.CommandHandled("level", nil)
}

// formatLevelEmbed formats a member's voice level and closest companions
func (b *DiscordBot) formatLevelEmbed(profile *store.VoiceProfile, companions []store.VoiceRelationship) *discordgo.MessageEmbed {
	level, fraction := voice.Progress(profile.Exp)
	next := voice.ExpForLevel(level + 1)

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Level",
			Value:  fmt.Sprintf("**%d**", level),
			Inline: true,
		},
		{
			Name:   "Voice Time",
			Value:  formatMinutes(profile.Minutes),
			Inline: true,
		},
		{
			Name:   "Progress",
			Value:  fmt.Sprintf("%s `%.0f / %.0f EXP`", progressBar(fraction, 10), profile.Exp, next),
			Inline: false,
		},
	}

	if len(companions) > 0 {
		lines := make([]string, 0, len(companions))
		for _, c := range companions {
			lines = append(lines, fmt.Sprintf("%s · %s together · `%.0f` EXP", mention(c.Other(profile.UserID)), formatMinutes(c.Minutes), c.Exp))
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "🤝 Top Companions",
			Value:  strings.Join(lines, "\n"),
			Inline: false,
		})
	}

	return &discordgo.MessageEmbed{
		Title:       "🎙️ Voice Level",
		Description: mention(profile.UserID),
		Color:       colorInfo,
		Fields:      fields,
	}
}

// formatMinutes renders minutes as hours and minutes
func formatMinutes(minutes float64) string {
	total := int(minutes)
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}
