package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/hunterjsb/scrimbot/internal/balance"
	"github.com/hunterjsb/scrimbot/internal/config"
	"github.com/hunterjsb/scrimbot/internal/session"
	"github.com/hunterjsb/scrimbot/internal/store"
	"github.com/hunterjsb/scrimbot/internal/voice"
)

// DiscordBot represents a Discord bot
type DiscordBot struct {
	Session         *discordgo.Session
	Config          *config.Config
	Logger          *zap.Logger
	Store           *store.Store
	Balancer        *balance.Balancer
	balanceMu       sync.Mutex // Balancer owns its random source
	Pending         *session.Store
	Voice           *voice.Tracker
	Commentator     *Commentator // nil when no OpenAI key is configured
	BotUserID       string
	GuildID         string
	Commands        []*discordgo.ApplicationCommand
	CommandHandlers map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// Deps are the components the bot drives
type Deps struct {
	Logger   *zap.Logger
	Store    *store.Store
	Balancer *balance.Balancer
	Pending  *session.Store
	Voice    *voice.Tracker
}

// Embed colors
const (
	colorError   = 0xff0000
	colorTeamA   = 0x3498db
	colorSuccess = 0x2ecc71
	colorInfo    = 0x9b59b6
	colorGold    = 0xf1c40f
)
