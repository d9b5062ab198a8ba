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
)

// handleScrimCommand handles the /scrim command
func (b *DiscordBot) handleScrimCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.deferResponse(s, i) {
		return
	}

	opts := ParseOptions(i.ApplicationCommandData().Options)
	matchID := opts.String("match", "")
	winner := strings.ToUpper(opts.String("winner", ""))
	option := opts.Int("option", 1)

	if winner != store.TeamA && winner != store.TeamB {
		b.sendError(s, i, "Invalid Winner", "Winner must be A or B.")
		return
	}

	pending, ok := b.Pending.Take(matchID)
	if !ok {
		b.sendError(s, i, "Unknown Match",
			fmt.Sprintf("No pending balance with ID `%s`. It may have expired or already been recorded.", matchID))
		return
	}
	if pending.GuildID != i.GuildID {
		b.Pending.Restore(pending)
		b.sendError(s, i, "Unknown Match", "That match belongs to another server.")
		return
	}

	result, err := pending.Option(option)
	if err != nil {
		b.Pending.Restore(pending)
		b.sendError(s, i, "Invalid Option", err.Error())
		return
	}

	match := store.NewScrimMatch(pending.ID, pending.GuildID, pending.Mode, option, result, winner)
	if err := b.Store.RecordScrim(context.Background(), match); err != nil {
		if errors.Is(err, store.ErrScrimAlreadyRecorded) {
			b.sendError(s, i, "Already Recorded", "This scrim was already recorded.")
			return
		}
		b.Pending.Restore(pending)
		b.Logger.Error("error recording scrim", zap.String("match", match.ID), zap.Error(err))
		b.sendError(s, i, "Database Error", "Could not record the scrim. Try again.")
		return
	}

	metrics.ScrimRecorded()
	b.sendEmbed(s, i, b.formatScrimRecordedEmbed(match, result))
	metrics.CommandHandled("scrim", nil)
	b.Logger.Info("scrim recorded",
		zap.String("guild", match.GuildID),
		zap.String("match", match.ID),
		zap.String("winner", winner),
		zap.Int("option", option),
	)
}

// formatScrimRecordedEmbed confirms a recorded result
func (b *DiscordBot) formatScrimRecordedEmbed(match store.ScrimMatch, result balance.BalanceResult) *discordgo.MessageEmbed {
	winners, losers := result.TeamA, result.TeamB
	predicted := result.WinProbabilityA
	if match.Winner == store.TeamB {
		winners, losers = losers, winners
		predicted = 1 - predicted
	}

	names := func(c *balance.TeamComposition) string {
		parts := make([]string, 0, balance.TeamSize)
		for _, p := range c.Players() {
			parts = append(parts, p.Name)
		}
		return strings.Join(parts, ", ")
	}

	verdict := "as predicted"
	if predicted < 0.5 {
		verdict = "an upset"
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏆 Team %s Wins", match.Winner),
		Description: fmt.Sprintf("Option %d recorded, %s (winners were given %s).", match.Option, verdict, percent(predicted)),
		Color:       colorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Winners", Value: names(winners), Inline: false},
			{Name: "Losers", Value: names(losers), Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Match ID: " + match.ID},
	}
}
