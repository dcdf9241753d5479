package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"influencer-agent/internal/domain"
	"influencer-agent/internal/generator"
	"influencer-agent/internal/usecase"
)

type plainRenderer struct{}

func (plainRenderer) Render(s string) (string, error) { return s, nil }

type stubPosts struct {
	out usecase.GenerateOutput
	err error
	in  *usecase.GenerateInput
}

func (s *stubPosts) GeneratePost(_ context.Context, in usecase.GenerateInput) (usecase.GenerateOutput, error) {
	s.in = &in
	return s.out, s.err
}

type stubSession struct {
	chats    []string
	cleared  bool
	platform string
	niche    string
	query    string
	suggests int
}

func (s *stubSession) Chat(_ context.Context, input string) string {
	s.chats = append(s.chats, input)
	return "chat reply"
}

func (s *stubSession) Clear() { s.cleared = true }

func (s *stubSession) Suggestions(_ context.Context, platform, niche string) string {
	s.suggests++
	s.platform, s.niche = platform, niche
	return "suggestion reply"
}

func (s *stubSession) SearchRelated(_ context.Context, query string) string {
	s.query = query
	return "search reply"
}

func (s *stubSession) HistorySize() int { return 4 }

func run(t *testing.T, input string, posts Posts, session Session) string {
	t.Helper()
	var out bytes.Buffer
	l, err := NewREPL(strings.NewReader(input), &out, posts, session, WithRenderer(plainRenderer{}))
	require.NoError(t, err)
	require.NoError(t, l.Run(context.Background()))
	return out.String()
}

func readyOutput() usecase.GenerateOutput {
	return usecase.GenerateOutput{
		Post: domain.Post{
			ID:       "p1",
			Topic:    &domain.Topic{Title: "Lift Smarter"},
			Content:  &domain.ContentBody{Text: "Plan your training.", Platform: "twitter", CharacterCount: 19, WithinLimit: true},
			Hashtags: &domain.HashtagSet{Primary: []string{"#lift", "#plan"}},
			Ready:    true,
		},
		Location: "posts/twitter_fitness_260301_0900.json",
	}
}

func TestNewREPL_Validates(t *testing.T) {
	_, err := NewREPL(nil, &bytes.Buffer{}, &stubPosts{}, &stubSession{})
	require.Error(t, err)
	_, err = NewREPL(strings.NewReader(""), &bytes.Buffer{}, nil, &stubSession{})
	require.Error(t, err)
}

func TestRun_GeneratePost(t *testing.T) {
	posts := &stubPosts{out: readyOutput()}
	out := run(t, "Generate Post Twitter Fitness Gym-Goers\nexit\n", posts, &stubSession{})

	require.Equal(t, &usecase.GenerateInput{Platform: "twitter", Niche: "fitness", Audience: "gym-goers"}, posts.in)
	require.Contains(t, out, "Post generated successfully")
	require.Contains(t, out, "Lift Smarter")
	require.Contains(t, out, "Plan your training.")
	require.Contains(t, out, "#lift #plan")
	require.Contains(t, out, "Post saved to: posts/twitter_fitness_260301_0900.json")
	require.NotContains(t, out, "fallback")
	require.Contains(t, out, "Thanks for chatting")
}

func TestRun_GeneratePostDefaultsAndWarnings(t *testing.T) {
	o := readyOutput()
	o.Location = ""
	o.Outcomes = usecase.StageOutcomes{Topic: generator.OutcomeFailed}
	o.Post.Content.WithinLimit = false
	posts := &stubPosts{out: o}
	out := run(t, "generate post\n", posts, &stubSession{})

	require.Equal(t, &usecase.GenerateInput{}, posts.in)
	require.Contains(t, out, "Used fallback content (topic: failed, content: generated, hashtags: generated)")
	require.Contains(t, out, "Over the twitter character limit")
	require.Contains(t, out, "Post could not be saved")
}

func TestRun_GeneratePostError(t *testing.T) {
	posts := &stubPosts{
		out: usecase.GenerateOutput{Post: domain.Post{Error: "usecase: CANCELLED (context_done)"}},
		err: errors.New("cancelled"),
	}
	out := run(t, "generate post\n", posts, &stubSession{})
	require.Contains(t, out, "Error generating post: usecase: CANCELLED (context_done)")
}

func TestRun_SuggestPosts(t *testing.T) {
	s := &stubSession{}
	out := run(t, "suggest posts Facebook\n", &stubPosts{}, s)
	require.Equal(t, "facebook", s.platform)
	require.Empty(t, s.niche)
	require.Contains(t, out, "suggestion reply")

	s = &stubSession{}
	run(t, "suggest posts cooking\n", &stubPosts{}, s)
	require.Empty(t, s.platform)
	require.Equal(t, "cooking", s.niche)

	s = &stubSession{}
	run(t, "suggest posts\n", &stubPosts{}, s)
	require.Equal(t, 1, s.suggests)
	require.Empty(t, s.platform)
	require.Empty(t, s.niche)
}

func TestRun_SearchPosts(t *testing.T) {
	s := &stubSession{}
	out := run(t, "search posts Morning Routine\nsearch posts\n", &stubPosts{}, s)
	require.Equal(t, "morning routine", s.query)
	require.Contains(t, out, "search reply")
	require.Contains(t, out, "Please provide a search query")
}

func TestRun_ChatKeepsCase(t *testing.T) {
	s := &stubSession{}
	out := run(t, "  \nHow do I grow on LinkedIn?\nclear\nhelp\nquit\nnever reached\n", &stubPosts{}, s)
	require.Equal(t, []string{"How do I grow on LinkedIn?"}, s.chats)
	require.True(t, s.cleared)
	require.Contains(t, out, "chat reply")
	require.Contains(t, out, "Conversation history cleared")
	require.Contains(t, out, "Available commands:")
	require.Contains(t, out, "I remember our last 4 exchanges.")
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l, err := NewREPL(strings.NewReader("hello\n"), &bytes.Buffer{}, &stubPosts{}, &stubSession{}, WithRenderer(plainRenderer{}))
	require.NoError(t, err)
	require.ErrorIs(t, l.Run(ctx), context.Canceled)
}
