package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"influencer-agent/internal/domain"
)

// ContentGenerator writes the post body for a topic and platform.
type ContentGenerator struct {
	llm   LLMClient
	model string
}

func NewContentGenerator(llm LLMClient, model string) (*ContentGenerator, error) {
	if llm == nil {
		return nil, errors.New("generator: llm client must not be nil")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("generator: model must not be empty")
	}
	return &ContentGenerator{llm: llm, model: model}, nil
}

// Generate measures the reply against the platform budget but never trims it.
func (g *ContentGenerator) Generate(ctx context.Context, topic domain.Topic, platform string) Result[domain.ContentBody] {
	limit := domain.LookupPlatform(platform).CharLimit

	raw, err := g.llm.Chat(ctx, g.model, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: fmt.Sprintf("You are an expert %s content creator.", platform)},
		{Role: domain.RoleUser, Content: buildContentPrompt(topic, platform, limit)},
	})
	if err != nil {
		slog.Warn("content generation failed, using fallback", "platform", platform, "err", err)
		return fallback(fallbackContent(topic, platform), OutcomeFailed, err)
	}

	text := strings.TrimSpace(raw)
	count := utf8.RuneCountInString(text)
	return generated(domain.ContentBody{
		Text:           text,
		Platform:       platform,
		CharacterCount: count,
		WithinLimit:    count <= limit,
	})
}

func buildContentPrompt(topic domain.Topic, platform string, limit int) string {
	return strings.Join([]string{
		fmt.Sprintf("Create a %s post about:", platform),
		"Title: " + topic.Title,
		"Hook: " + topic.Hook,
		"Angle: " + topic.Angle,
		"",
		"Requirements:",
		"1. Start with the hook",
		fmt.Sprintf("2. Stay under %d characters", limit),
		fmt.Sprintf("3. Match %s's style", platform),
		"4. Include a call-to-action",
		"5. End with " + topic.EngagementQuestion,
		"",
		"Make it engaging and valuable!",
	}, "\n")
}

// fallbackContent reports a zero character count and forces WithinLimit.
func fallbackContent(topic domain.Topic, platform string) domain.ContentBody {
	return domain.ContentBody{
		Text: fmt.Sprintf("%s\n\nStay tuned for more insights on %s!\n\n%s",
			topic.Hook, topic.Title, topic.EngagementQuestion),
		Platform:       platform,
		CharacterCount: 0,
		WithinLimit:    true,
	}
}
