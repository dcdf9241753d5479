package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"influencer-agent/internal/domain"
)

const (
	analystPrompt = "You are an expert social media content analyst."

	emptyChatReply      = "What would you like to talk about? Ask me about content ideas, strategy or your past posts."
	chatErrorReply      = "I ran into a problem reaching the model. Let me try to help you in a simpler way: ask me again in a moment."
	noSuggestionsReply  = "I don't have any relevant posts to suggest yet. Let's create some!"
	suggestErrorReply   = "❌ I couldn't analyze your posts right now. Please try again."
	noSimilarReply      = "I couldn't find any similar posts. Let's create something new!"
	searchErrorReply    = "❌ I couldn't analyze similar posts right now. Please try again."
	maxAnalyzedPosts    = 3
	excerptLen          = 200
	suggestionsFallback = 5
)

const persona = `You are an AI social media influencer chatbot with expertise in content creation, social media strategy, and digital marketing.

Your personality:
- Professional yet friendly
- Engaging and informative
- Data-driven but relatable
- Helpful and encouraging`

type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// ChatSession is a conversation with the assistant persona. It remembers the
// last few turns and can analyze previously generated posts.
type ChatSession struct {
	llm    LLMClient
	model  string
	index  PostIndex
	window *Window
}

func NewChatSession(llm LLMClient, model string, idx PostIndex, window *Window) (*ChatSession, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("usecase: chat model must not be empty")
	}
	if idx == nil {
		return nil, errors.New("usecase: post index must not be nil")
	}
	if window == nil {
		return nil, errors.New("usecase: window must not be nil")
	}
	return &ChatSession{llm: llm, model: model, index: idx, window: window}, nil
}

// Chat answers input in the context of the remembered turns. A successful
// exchange is remembered; a failed one is not.
func (s *ChatSession) Chat(ctx context.Context, input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return emptyChatReply
	}

	turns := s.window.Turns()
	messages := make([]domain.ChatMessage, 0, 2+2*len(turns))
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: persona})
	for _, t := range turns {
		messages = append(messages,
			domain.ChatMessage{Role: domain.RoleUser, Content: t.Input},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: t.Output},
		)
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: input})

	reply, err := s.llm.Chat(ctx, s.model, messages)
	if err != nil {
		slog.Warn("usecase: chat failed", "err", err)
		return chatErrorReply
	}
	reply = strings.TrimSpace(reply)
	s.window.Add(domain.Turn{Input: input, Output: reply})
	return reply
}

// Clear forgets every remembered turn.
func (s *ChatSession) Clear() {
	s.window.Clear()
}

// HistorySize is how many exchanges the session keeps as context.
func (s *ChatSession) HistorySize() int {
	return s.window.Capacity()
}

func (s *ChatSession) History() []domain.Turn {
	return s.window.Turns()
}

// Suggestions analyzes past posts and proposes what to write next. Posts are
// selected by platform if given, else by niche, else the most recent ones.
func (s *ChatSession) Suggestions(ctx context.Context, platform, niche string) string {
	platform, niche = strings.TrimSpace(platform), strings.TrimSpace(niche)
	var entries []domain.IndexEntry
	switch {
	case platform != "":
		entries = s.index.ByPlatform(platform)
	case niche != "":
		entries = s.index.ByNiche(niche)
	default:
		entries = s.index.Recent(suggestionsFallback)
	}
	if len(entries) == 0 {
		return noSuggestionsReply
	}

	prompt := fmt.Sprintf(`Based on these recent posts:

%s

Please suggest:
1. Content themes that performed well
2. Hashtag strategies that worked
3. New post ideas building on successful elements
4. Ways to improve engagement

Keep suggestions specific and actionable.`, postsContext(entries))

	return s.analyze(ctx, prompt, suggestErrorReply)
}

// SearchRelated finds posts matching query and summarizes what they share.
func (s *ChatSession) SearchRelated(ctx context.Context, query string) string {
	entries := s.index.Search(strings.TrimSpace(query))
	if len(entries) == 0 {
		return noSimilarReply
	}

	prompt := fmt.Sprintf(`Analyzing these similar posts for %q:

%s

Please provide:
1. Common themes and patterns
2. Successful content strategies
3. Hashtag combinations that worked well
4. Suggestions for new, related content

Focus on actionable insights.`, query, postsContext(entries))

	return s.analyze(ctx, prompt, searchErrorReply)
}

func (s *ChatSession) analyze(ctx context.Context, prompt, failure string) string {
	reply, err := s.llm.Chat(ctx, s.model, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: analystPrompt},
		{Role: domain.RoleUser, Content: prompt},
	})
	if err != nil {
		slog.Warn("usecase: post analysis failed", "err", err)
		return failure
	}
	return strings.TrimSpace(reply)
}

func postsContext(entries []domain.IndexEntry) string {
	if len(entries) > maxAnalyzedPosts {
		entries = entries[:maxAnalyzedPosts]
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("Post: %s\nContent: %s...", e.Title, excerpt(e.Content)))
	}
	return strings.Join(parts, "\n\n")
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) > excerptLen {
		r = r[:excerptLen]
	}
	return string(r)
}
