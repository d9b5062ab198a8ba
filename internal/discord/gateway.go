package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/hunterjsb/scrimbot/internal/metrics"
	"github.com/hunterjsb/scrimbot/internal/voice"
)

// onGuildCreate seeds the voice tracker with members already in voice
func (b *DiscordBot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	now := time.Now()
	// the snapshot is authoritative, drop whatever survived a reconnect
	b.Voice.ResetGuild(g.ID)
	for _, vs := range g.VoiceStates {
		b.Voice.Update(voiceState(s, g.ID, vs), now)
	}
	b.Logger.Info("guild available", zap.String("guild", g.ID), zap.Int("in_voice", len(g.VoiceStates)))
}

// onVoiceStateUpdate feeds joins, leaves, moves and deafens to the tracker
func (b *DiscordBot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.VoiceState == nil {
		return
	}
	b.Voice.Update(voiceState(s, v.GuildID, v.VoiceState), time.Now())
}

// onGuildMemberAdd creates a player record for new human members
func (b *DiscordBot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil || m.User.Bot {
		return
	}
	if _, err := b.Store.EnsurePlayer(context.Background(), m.GuildID, m.User.ID, memberDisplayName(m.Member)); err != nil {
		b.Logger.Warn("error creating player for new member", zap.String("user", m.User.ID), zap.Error(err))
	}
}

// onGuildMemberRemove drops a departed member's voice presence
func (b *DiscordBot) onGuildMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.Member == nil || m.User == nil {
		return
	}
	b.Voice.RemoveMember(m.GuildID, m.User.ID, time.Now())
}

// AccrueVoice settles tracked voice time into the store
func (b *DiscordBot) AccrueVoice(ctx context.Context) error {
	users, pairs := b.Voice.Tick(time.Now())
	if len(users) == 0 && len(pairs) == 0 {
		return nil
	}

	levelUps, err := b.Store.ApplyVoiceAccruals(ctx, users, pairs)
	if err != nil {
		return err
	}

	var minutes float64
	for _, a := range users {
		minutes += a.Minutes
	}
	metrics.VoiceMinutes(minutes)

	for _, up := range levelUps {
		b.Logger.Info("voice level up",
			zap.String("guild", up.GuildID),
			zap.String("user", up.UserID),
			zap.Int("level", up.Level),
		)
	}
	return nil
}

// voiceState converts a gateway voice state, resolving whether the user is a bot
func voiceState(s *discordgo.Session, guildID string, vs *discordgo.VoiceState) voice.State {
	if vs.GuildID != "" {
		guildID = vs.GuildID
	}

	isBot := false
	if vs.Member != nil && vs.Member.User != nil {
		isBot = vs.Member.User.Bot
	} else if s != nil && s.State != nil {
		if m, err := s.State.Member(guildID, vs.UserID); err == nil && m.User != nil {
			isBot = m.User.Bot
		}
	}

	return voice.State{
		GuildID:   guildID,
		ChannelID: vs.ChannelID,
		UserID:    vs.UserID,
		Bot:       isBot,
		Deafened:  vs.Deaf || vs.SelfDeaf,
	}
}
