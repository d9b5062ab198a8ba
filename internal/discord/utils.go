package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/hunterjsb/scrimbot/internal/balance"
)

// CommandOptions indexes slash command options by name
type CommandOptions map[string]*discordgo.ApplicationCommandInteractionDataOption

// ParseOptions extracts command options into a lookup map
func ParseOptions(options []*discordgo.ApplicationCommandInteractionDataOption) CommandOptions {
	opts := make(CommandOptions, len(options))
	for _, opt := range options {
		opts[opt.Name] = opt
	}
	return opts
}

// String returns the named string option or fallback when absent
func (o CommandOptions) String(name, fallback string) string {
	if opt, ok := o[name]; ok {
		if v := strings.TrimSpace(opt.StringValue()); v != "" {
			return v
		}
	}
	return fallback
}

// Int returns the named integer option or fallback when absent
func (o CommandOptions) Int(name string, fallback int) int {
	if opt, ok := o[name]; ok {
		return int(opt.IntValue())
	}
	return fallback
}

// UserID returns the named user option's ID or fallback when absent
func (o CommandOptions) UserID(name, fallback string) string {
	if opt, ok := o[name]; ok {
		if id, ok := opt.Value.(string); ok && id != "" {
			return id
		}
	}
	return fallback
}

// memberDisplayName prefers the guild nickname, then the global name, then the username
func memberDisplayName(m *discordgo.Member) string {
	if m == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User == nil {
		return ""
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

// invoker returns the user who ran the interaction
func invoker(i *discordgo.InteractionCreate) (*discordgo.User, string) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User, memberDisplayName(i.Member)
	}
	if i.User != nil {
		return i.User, i.User.Username
	}
	return nil, ""
}

// roleLabel returns a role name with its emoji
func roleLabel(r balance.Role) string {
	switch r {
	case balance.RoleTank:
		return "🛡️ Tank"
	case balance.RoleDamage:
		return "⚔️ Damage"
	case balance.RoleSupport:
		return "💉 Support"
	default:
		return "❔ Flex"
	}
}

// progressBar renders fraction in [0, 1] as a fixed width bar
func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}

// percent formats a rate in [0, 1] as a whole percentage
func percent(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}

// mention formats a user mention
func mention(userID string) string {
	return "<@" + userID + ">"
}
