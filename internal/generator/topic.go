package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"influencer-agent/internal/domain"
)

const topicSystemPrompt = "You are an expert social media content strategist."

// TopicGenerator produces the title, hook, angle and engagement question for
// a post.
type TopicGenerator struct {
	llm   LLMClient
	model string
}

func NewTopicGenerator(llm LLMClient, model string) (*TopicGenerator, error) {
	if llm == nil {
		return nil, errors.New("generator: llm client must not be nil")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("generator: model must not be empty")
	}
	return &TopicGenerator{llm: llm, model: model}, nil
}

func (g *TopicGenerator) Generate(ctx context.Context, niche, audience, tone string) Result[domain.Topic] {
	raw, err := g.llm.Chat(ctx, g.model, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: topicSystemPrompt},
		{Role: domain.RoleUser, Content: buildTopicPrompt(niche, audience, tone)},
	})
	if err != nil {
		slog.Warn("topic generation failed, using fallback", "niche", niche, "err", err)
		return fallback(fallbackTopic(niche), OutcomeFailed, err)
	}

	reply, err := parseReply[domain.Topic](raw, topicSchema)
	if !reply.Parsed() {
		slog.Warn("topic reply unparsed, using first line as title", "err", err)
		return fallback(unparsedTopic(reply.Raw), OutcomeUnparsed, err)
	}
	return generated(reply.Fields)
}

func buildTopicPrompt(niche, audience, tone string) string {
	return strings.Join([]string{
		"Generate a compelling social media post topic for:",
		"Niche: " + niche,
		"Audience: " + audience,
		"Tone: " + tone,
		"",
		"Please provide:",
		"1. An attention-grabbing title",
		"2. A hook that draws readers in",
		"3. A unique angle or perspective",
		"4. An engagement question",
		"",
		"Format as JSON with these exact keys:",
		"- title",
		"- hook",
		"- angle",
		"- engagement_question",
	}, "\n")
}

// unparsedTopic keeps whatever the model wrote on its first line as the title.
func unparsedTopic(raw string) domain.Topic {
	first, _, _ := strings.Cut(raw, "\n")
	return domain.Topic{
		Title:              strings.TrimSpace(first),
		Hook:               "Ready to transform your approach?",
		Angle:              "Expert insights and practical tips",
		EngagementQuestion: "What's your experience with this?",
	}
}

// fallbackTopic depends on niche only.
func fallbackTopic(niche string) domain.Topic {
	return domain.Topic{
		Title:              fmt.Sprintf("Latest %s Insights", titleCase(niche)),
		Hook:               "Discover game-changing strategies",
		Angle:              "Expert perspective",
		EngagementQuestion: "What are your thoughts?",
	}
}
