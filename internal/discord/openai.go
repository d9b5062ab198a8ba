package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/hunterjsb/scrimbot/internal/balance"
)

// Commentator writes a short shoutcaster preview of a balanced match
type Commentator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewCommentator(apiKey, model string, maxTokens int, temperature float64) *Commentator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Commentator{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
	}
}

// Preview asks the model for a one-paragraph preview of result
func (c *Commentator) Preview(ctx context.Context, result balance.BalanceResult) (string, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are an energetic esports shoutcaster. Reply with one short paragraph, no lists.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: previewPrompt(result),
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("ChatCompletion error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// previewPrompt describes the matchup in plain text for the model
func previewPrompt(result balance.BalanceResult) string {
	var sb strings.Builder
	sb.WriteString("Preview this 5v5 scrim.\n")
	for _, side := range []struct {
		name string
		comp *balance.TeamComposition
	}{{"Team A", result.TeamA}, {"Team B", result.TeamB}} {
		sb.WriteString(side.name + ": ")
		parts := make([]string, 0, balance.TeamSize)
		for _, a := range side.comp.Assignments() {
			parts = append(parts, fmt.Sprintf("%s (%s)", a.Player.Name, a.Role))
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Team A win probability: %.0f%%.\n", result.WinProbabilityA*100)
	fmt.Fprintf(&sb, "%s. %s. %s.\n", result.Rationale.Tank, result.Rationale.Damage, result.Rationale.Support)
	return sb.String()
}
