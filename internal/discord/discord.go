package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/hunterjsb/scrimbot/internal/balance"
	"github.com/hunterjsb/scrimbot/internal/config"
	"github.com/hunterjsb/scrimbot/internal/metrics"
)

var minOption = 1.0

// Command definitions
var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "balance",
		Description: "Split the ten players in your voice channel into two fair teams",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "Search mode (default: exhaustive)",
				Required:    false,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Exhaustive", Value: balance.ModeExhaustive.String()},
					{Name: "Quick", Value: balance.ModeQuick.String()},
					{Name: "Experimental", Value: balance.ModeExperimental.String()},
				},
			},
		},
	},
	{
		Name:        "scrim",
		Description: "Record the winner of a balanced scrim",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "match",
				Description: "Match ID from the /balance footer",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "winner",
				Description: "Winning team",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Team A", Value: "A"},
					{Name: "Team B", Value: "B"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "option",
				Description: "Which balance option was played (1-5, default: 1)",
				Required:    false,
				MinValue:    &minOption,
				MaxValue:    float64(balance.TopResults),
			},
		},
	},
	{
		Name:        "role",
		Description: "Set your primary role",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "role",
				Description: "Your main role",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Tank", Value: balance.RoleTank.String()},
					{Name: "Damage", Value: balance.RoleDamage.String()},
					{Name: "Support", Value: balance.RoleSupport.String()},
				},
			},
		},
	},
	{
		Name:        "leaderboard",
		Description: "Show the scrim win-rate leaderboard",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "min_games",
				Description: "Minimum games played (default: 1)",
				Required:    false,
				MinValue:    &minOption,
			},
		},
	},
	{
		Name:        "level",
		Description: "Show voice level and top companions",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Member to look up (default: you)",
				Required:    false,
			},
		},
	},
}

// NewDiscordBot creates a new Discord bot with the provided configuration
func NewDiscordBot(cfg *config.Config, deps Deps) (*DiscordBot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bot := &DiscordBot{
		Session:         session,
		Config:          cfg,
		Logger:          logger,
		Store:           deps.Store,
		Balancer:        deps.Balancer,
		Pending:         deps.Pending,
		Voice:           deps.Voice,
		GuildID:         cfg.GuildID,
		CommandHandlers: make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)),
	}
	if cfg.OpenAIToken != "" {
		bot.Commentator = NewCommentator(cfg.OpenAIToken, cfg.OpenAIModel, cfg.MaxTokens, cfg.Temperature)
	}

	// Set up command handlers
	bot.CommandHandlers["balance"] = bot.handleBalanceCommand
	bot.CommandHandlers["scrim"] = bot.handleScrimCommand
	bot.CommandHandlers["role"] = bot.handleRoleCommand
	bot.CommandHandlers["leaderboard"] = bot.handleLeaderboardCommand
	bot.CommandHandlers["level"] = bot.handleLevelCommand

	return bot, nil
}

// Start starts the Discord bot
func (b *DiscordBot) Start() error {
	// Get bot user ID
	user, err := b.Session.User("@me")
	if err != nil {
		return fmt.Errorf("error getting bot user: %w", err)
	}
	b.BotUserID = user.ID

	// Register gateway handlers
	b.Session.AddHandler(b.interactionHandler)
	b.Session.AddHandler(b.onGuildCreate)
	b.Session.AddHandler(b.onVoiceStateUpdate)
	b.Session.AddHandler(b.onGuildMemberAdd)
	b.Session.AddHandler(b.onGuildMemberRemove)

	// Open a websocket connection to Discord
	err = b.Session.Open()
	if err != nil {
		return fmt.Errorf("error opening Discord session: %w", err)
	}

	// Register commands
	registeredCommands, err := b.registerCommands()
	if err != nil {
		return fmt.Errorf("error registering commands: %w", err)
	}
	b.Commands = registeredCommands

	b.Logger.Info("bot is running", zap.String("user", user.Username), zap.Int("commands", len(registeredCommands)))
	return nil
}

// Stop removes registered commands and closes the gateway connection
func (b *DiscordBot) Stop() error {
	b.Logger.Info("removing commands")
	for _, cmd := range b.Commands {
		err := b.Session.ApplicationCommandDelete(b.Session.State.User.ID, b.GuildID, cmd.ID)
		if err != nil {
			b.Logger.Warn("error removing command", zap.String("command", cmd.Name), zap.Error(err))
		}
	}

	return b.Session.Close()
}

// registerCommands registers the defined slash commands
func (b *DiscordBot) registerCommands() ([]*discordgo.ApplicationCommand, error) {
	registeredCommands := make([]*discordgo.ApplicationCommand, len(commands))

	for i, cmd := range commands {
		registered, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, b.GuildID, cmd)
		if err != nil {
			return nil, fmt.Errorf("error creating command '%s': %w", cmd.Name, err)
		}
		registeredCommands[i] = registered
	}

	return registeredCommands, nil
}

// interactionHandler handles Discord interaction events
func (b *DiscordBot) interactionHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	commandName := i.ApplicationCommandData().Name
	if handler, ok := b.CommandHandlers[commandName]; ok {
		handler(s, i)
	}
}

// deferResponse acknowledges the interaction so the handler can take longer than 3s
func (b *DiscordBot) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		b.Logger.Error("error acknowledging interaction", zap.Error(err))
		return false
	}
	return true
}

// sendEmbed replaces the deferred response with embed
func (b *DiscordBot) sendEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	}); err != nil {
		b.Logger.Error("error editing interaction response", zap.Error(err))
	}
}

// sendError sends an error embed and counts the failed command
func (b *DiscordBot) sendError(s *discordgo.Session, i *discordgo.InteractionCreate, title, description string) {
	metrics.CommandHandled(i.ApplicationCommandData().Name, fmt.Errorf("%s", title))
	b.sendEmbed(s, i, errorEmbed(title, description))
}

func errorEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colorError,
	}
}
