package discord

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/hunterjsb/scrimbot/internal/balance"
	"github.com/hunterjsb/scrimbot/internal/metrics"
	"github.com/hunterjsb/scrimbot/internal/session"
	"github.com/hunterjsb/scrimbot/internal/store"
)

const commentaryTimeout = 10 * time.Second

var errNotInVoice = errors.New("not in a voice channel")

// handleBalanceCommand handles the /balance command
func (b *DiscordBot) handleBalanceCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Acknowledge the interaction immediately
	if !b.deferResponse(s, i) {
		return
	}

	opts := ParseOptions(i.ApplicationCommandData().Options)
	mode, err := balance.ParseMode(opts.String("mode", balance.ModeExhaustive.String()))
	if err != nil {
		b.sendError(s, i, "Invalid Mode", err.Error())
		return
	}

	user, _ := invoker(i)
	if i.GuildID == "" || user == nil {
		b.sendError(s, i, "Server Only", "Balancing only works inside a server.")
		return
	}

	channelID, members, err := b.voiceLobby(s, i.GuildID, user.ID)
	if err != nil {
		b.sendError(s, i, "Join Voice First", "Join the voice channel with your ten players, then run /balance again.")
		return
	}
	if len(members) != balance.LobbySize {
		b.sendError(s, i, "Wrong Lobby Size",
			fmt.Sprintf("Balancing needs exactly %d players in <#%s>, found %d.", balance.LobbySize, channelID, len(members)))
		return
	}

	ctx := context.Background()
	snapshots, err := b.Store.PlayerSnapshots(ctx, i.GuildID, members)
	if err != nil {
		b.Logger.Error("error loading player snapshots", zap.String("guild", i.GuildID), zap.Error(err))
		b.sendError(s, i, "Database Error", "Could not load player records.")
		return
	}

	results, err := b.runBalance(snapshots, mode)
	if err != nil {
		b.Logger.Error("balance search failed", zap.String("mode", mode.String()), zap.Error(err))
		b.sendError(s, i, "Balance Error", fmt.Sprintf("Could not balance teams: %v", err))
		return
	}

	pending := &session.Pending{
		GuildID:   i.GuildID,
		ChannelID: channelID,
		Mode:      mode,
		Players:   snapshots,
		Results:   results,
	}
	b.Pending.Save(pending)

	embed := b.formatBalanceEmbed(pending)
	if b.Commentator != nil {
		cctx, cancel := context.WithTimeout(ctx, commentaryTimeout)
		preview, err := b.Commentator.Preview(cctx, results[0])
		cancel()
		if err != nil {
			b.Logger.Warn("commentary failed", zap.Error(err))
		} else if preview != "" {
			embed.Description = preview
		}
	}

	b.sendEmbed(s, i, embed)
	metrics.CommandHandled("balance", nil)
	b.Logger.Info("teams balanced",
		zap.String("guild", i.GuildID),
		zap.String("match", pending.ID),
		zap.String("mode", mode.String()),
		zap.Float64("balance_score", results[0].BalanceScore),
	)
}

// runBalance runs one search and records its duration
func (b *DiscordBot) runBalance(snapshots []balance.PlayerSnapshot, mode balance.Mode) ([]balance.BalanceResult, error) {
	start := time.Now()
	b.balanceMu.Lock()
	results, err := b.Balancer.FindOptimalBalance(snapshots, mode)
	b.balanceMu.Unlock()
	metrics.BalanceRun(mode.String(), time.Since(start))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no valid team split")
	}
	return results, nil
}

// voiceLobby returns the invoker's voice channel and the non-bot members in it
func (b *DiscordBot) voiceLobby(s *discordgo.Session, guildID, userID string) (string, []store.Member, error) {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return "", nil, fmt.Errorf("guild %s not in state: %w", guildID, err)
	}

	lookup := func(id string) *discordgo.Member {
		m, err := s.State.Member(guildID, id)
		if err != nil {
			return nil
		}
		return m
	}
	return lobbyFromVoiceStates(guild.VoiceStates, userID, lookup)
}

// lobbyFromVoiceStates collects the members sharing userID's voice channel, sorted by ID.
// lookup may return nil for members missing from state.
func lobbyFromVoiceStates(states []*discordgo.VoiceState, userID string, lookup func(string) *discordgo.Member) (string, []store.Member, error) {
	channelID := ""
	for _, vs := range states {
		if vs != nil && vs.UserID == userID && vs.ChannelID != "" {
			channelID = vs.ChannelID
			break
		}
	}
	if channelID == "" {
		return "", nil, errNotInVoice
	}

	var members []store.Member
	for _, vs := range states {
		if vs == nil || vs.ChannelID != channelID {
			continue
		}
		m := vs.Member
		if m == nil {
			m = lookup(vs.UserID)
		}
		if m != nil && m.User != nil && m.User.Bot {
			continue
		}
		name := memberDisplayName(m)
		if name == "" {
			name = vs.UserID
		}
		members = append(members, store.Member{UserID: vs.UserID, DisplayName: name})
	}

	sort.Slice(members, func(a, c int) bool { return members[a].UserID < members[c].UserID })
	return channelID, members, nil
}

// formatBalanceEmbed formats the best split and its alternatives into a Discord embed
func (b *DiscordBot) formatBalanceEmbed(p *session.Pending) *discordgo.MessageEmbed {
	best := p.Results[0]

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "🔵 Team A",
			Value:  formatTeam(best.TeamA),
			Inline: true,
		},
		{
			Name:   "🔴 Team B",
			Value:  formatTeam(best.TeamB),
			Inline: true,
		},
		{
			Name: "📊 Matchup",
			Value: fmt.Sprintf("%s\n• %s\n• %s\n• %s\nBalance score `%.3f` · skill gap `%.3f`",
				best.Rationale.Overall,
				best.Rationale.Tank,
				best.Rationale.Damage,
				best.Rationale.Support,
				best.BalanceScore,
				best.SkillDifference,
			),
			Inline: false,
		},
	}

	if len(p.Results) > 1 {
		var alts []string
		for n, r := range p.Results[1:] {
			alts = append(alts, fmt.Sprintf("`%d.` balance `%.3f` · Team A %s", n+2, r.BalanceScore, percent(r.WinProbabilityA)))
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "🔁 Alternatives",
			Value:  strings.Join(alts, "\n"),
			Inline: false,
		})
	}

	return &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("⚖️ Balanced Teams (%s)", p.Mode),
		Color:  colorTeamA,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Match ID: %s · record with /scrim", p.ID),
		},
		Timestamp: p.CreatedAt.Format(time.RFC3339),
	}
}

// formatTeam lists a team's players by slot. A star marks a player on their primary role.
func formatTeam(c *balance.TeamComposition) string {
	lines := make([]string, 0, balance.TeamSize)
	for _, a := range c.Assignments() {
		star := ""
		if a.Player.PrimaryRole == a.Role {
			star = " ★"
		}
		lines = append(lines, fmt.Sprintf("%s · **%s**%s", roleLabel(a.Role), a.Player.Name, star))
	}
	lines = append(lines, fmt.Sprintf("Team score `%.3f`", c.TeamScore()))
	return strings.Join(lines, "\n")
}
