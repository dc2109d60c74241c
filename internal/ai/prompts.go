package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/beachatlas/beachatlas-server/internal/domain"
)

// ChatFallback is the reply when the concierge cannot answer.
const ChatFallback = "Sorry, I'm having a little trouble connecting to the waves right now. 🌊 Try again in a moment!"

const scoutAck = "Got it! I am ready to help users find their perfect beach as The Beach Scout. 🏖️"

// SummarizeVibe writes a two-sentence "vibe check" for a beach. It returns
// "" when the model is unavailable.
func (c *Client) SummarizeVibe(ctx context.Context, name, description string, vibes []string) string {
	prompt := fmt.Sprintf(`As "The Beach Scout", write a very short, punchy, and enticing "Vibe Check" (max 2 sentences) for %s.
Description: %s
Vibes: %s

Rules:
- Use markdown **bolding** for the most important keywords.
- Do NOT use surrounding quotes.
- Focus on why someone would LOVE this specific beach.
- Use 1-2 emojis.`, name, description, strings.Join(vibes, ", "))

	text, err := c.Generate(ctx, []Message{{Role: RoleUser, Content: prompt}})
	if err != nil {
		c.logger.Warn("vibe summary failed", "beach", name, "error", err)
		return ""
	}
	return text
}

// Chat answers the last message of a conversation with the catalog as
// context. currentSlug, when it names a catalog beach, is what "here" and
// "this beach" refer to. Failures return ChatFallback.
func (c *Client) Chat(ctx context.Context, catalog []domain.Beach, currentSlug string, messages []Message) string {
	if len(messages) == 0 {
		return ChatFallback
	}

	turns := make([]Message, 0, len(messages)+2)
	turns = append(turns,
		Message{Role: RoleUser, Content: CatalogContext(catalog, currentSlug)},
		Message{Role: RoleModel, Content: scoutAck},
	)
	turns = append(turns, messages...)

	text, err := c.Generate(ctx, turns)
	if err != nil {
		c.logger.Warn("chat failed", "error", err)
		return ChatFallback
	}
	return text
}

// CatalogContext builds the concierge instructions listing every beach.
func CatalogContext(catalog []domain.Beach, currentSlug string) string {
	var sb strings.Builder
	sb.WriteString(`You are "The Beach Scout", a helpful and enthusiastic AI concierge for BeachAtlas.
Your goal is to help users find their perfect beach.
You have access to the following beaches in our database:
`)
	var current *domain.Beach
	for i := range catalog {
		b := &catalog[i]
		fmt.Fprintf(&sb, "- %s in %s (%s). Vibe: %s\n", b.Name, b.Country, b.Region, b.ShortDescription)
		if currentSlug != "" && b.Slug == currentSlug {
			current = b
		}
	}
	sb.WriteString(`
Rules:
- Be concise, friendly, and use beach-related emojis.
- Use markdown **bolding** for beach names and key features.
- If a user asks about a specific beach not in the list, tell them we're still exploring the world but recommend a similar one from our list.
`)
	if current != nil {
		fmt.Fprintf(&sb, "\nThe user is currently looking at %s. Use this as context if they ask \"here\" or \"this beach\".\n", current.Name)
	}
	return sb.String()
}
