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

const (
	hashtagSystemPrompt = "You are an expert social media hashtag strategist."
	excerptLen          = 200
	defaultPlatform     = "instagram"
)

type hashtagReply struct {
	Primary         []string `json:"primary_hashtags"`
	Alternative     []string `json:"alternative_hashtags"`
	Strategy        string   `json:"strategy"`
	ReachPrediction string   `json:"reach_prediction"`
}

// HashtagGenerator picks primary and alternative hashtags for a post.
type HashtagGenerator struct {
	llm   LLMClient
	model string
}

func NewHashtagGenerator(llm LLMClient, model string) (*HashtagGenerator, error) {
	if llm == nil {
		return nil, errors.New("generator: llm client must not be nil")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("generator: model must not be empty")
	}
	return &HashtagGenerator{llm: llm, model: model}, nil
}

// Generate always returns a set whose primary list fits the platform maximum.
func (g *HashtagGenerator) Generate(ctx context.Context, topic domain.Topic, content domain.ContentBody, seoKeywords []string) Result[domain.HashtagSet] {
	platform := content.Platform
	if strings.TrimSpace(platform) == "" {
		platform = defaultPlatform
	}
	limit := domain.LookupPlatform(platform).MaxTags

	res := g.generate(ctx, topic, content, platform, limit, seoKeywords)
	res.Value = capPrimary(res.Value, limit)
	return res
}

func (g *HashtagGenerator) generate(ctx context.Context, topic domain.Topic, content domain.ContentBody, platform string, limit int, seoKeywords []string) Result[domain.HashtagSet] {
	raw, err := g.llm.Chat(ctx, g.model, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: hashtagSystemPrompt},
		{Role: domain.RoleUser, Content: buildHashtagPrompt(topic, content, platform, limit, seoKeywords)},
	})
	if err != nil {
		slog.Warn("hashtag generation failed, using fallback", "platform", platform, "err", err)
		return fallback(fallbackHashtags(topic, platform), OutcomeFailed, err)
	}

	reply, err := parseReply[hashtagReply](raw, hashtagSchema)
	if !reply.Parsed() {
		slog.Warn("hashtag reply unparsed, using fallback", "platform", platform, "err", err)
		return fallback(fallbackHashtags(topic, platform), OutcomeUnparsed, err)
	}
	return generated(domain.HashtagSet{
		Primary:         reply.Fields.Primary,
		Alternative:     reply.Fields.Alternative,
		Strategy:        reply.Fields.Strategy,
		ReachPrediction: reply.Fields.ReachPrediction,
	})
}

func buildHashtagPrompt(topic domain.Topic, content domain.ContentBody, platform string, limit int, seoKeywords []string) string {
	seoContext := "Use relevant industry keywords"
	if len(seoKeywords) > 0 {
		seoContext = "SEO Keywords: " + strings.Join(seoKeywords, ", ")
	}
	return strings.Join([]string{
		fmt.Sprintf("Generate hashtags for a %s post about:", platform),
		"Title: " + topic.Title,
		"Content: " + truncateRunes(content.Text, excerptLen) + "...",
		"",
		"Requirements:",
		fmt.Sprintf("1. Max %d hashtags", limit),
		"2. Mix of popular and niche tags",
		"3. " + seoContext,
		"4. Include industry-specific tags",
		"",
		"Provide:",
		"1. Primary hashtags (most relevant)",
		"2. Alternative hashtags (for testing)",
		"3. Hashtag strategy explanation",
		"4. Estimated reach prediction",
		"",
		"Format as JSON with these exact keys:",
		"- primary_hashtags (list)",
		"- alternative_hashtags (list)",
		"- strategy",
		"- reach_prediction",
	}, "\n")
}

// fallbackHashtags derives tags from the longer words of the title.
func fallbackHashtags(topic domain.Topic, platform string) domain.HashtagSet {
	var primary []string
	for _, word := range strings.Fields(strings.ToLower(topic.Title)) {
		if utf8.RuneCountInString(word) > 3 {
			primary = append(primary, "#"+word)
		}
	}
	return domain.HashtagSet{
		Primary:         primary,
		Alternative:     []string{"#" + platform, "#content", "#socialmedia"},
		Strategy:        "Using basic keyword-based hashtags",
		ReachPrediction: "Moderate reach expected",
	}
}

// capPrimary keeps the first limit tags in their given order.
func capPrimary(set domain.HashtagSet, limit int) domain.HashtagSet {
	if set.Primary == nil {
		set.Primary = []string{}
	}
	if len(set.Primary) > limit {
		set.Primary = set.Primary[:limit]
	}
	set.TotalPrimary = len(set.Primary)
	return set
}
