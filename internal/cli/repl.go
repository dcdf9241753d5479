// Package cli is the interactive command loop.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"influencer-agent/internal/domain"
	"influencer-agent/internal/usecase"
)

const helpText = `Available commands:
- generate post [platform] [niche] [audience]: Generate a complete post
- suggest posts [platform/niche]: Get post suggestions
- search posts [query]: Search similar posts
- clear: Clear conversation history
- help: Show this help message
- exit: End the conversation
Anything else is a conversation about social media strategy.`

type Posts interface {
	GeneratePost(ctx context.Context, in usecase.GenerateInput) (usecase.GenerateOutput, error)
}

type Session interface {
	Chat(ctx context.Context, input string) string
	Clear()
	Suggestions(ctx context.Context, platform, niche string) string
	SearchRelated(ctx context.Context, query string) string
	HistorySize() int
}

// Renderer turns markdown replies into terminal output.
type Renderer interface {
	Render(markdown string) (string, error)
}

type REPL struct {
	in       io.Reader
	out      io.Writer
	posts    Posts
	session  Session
	renderer Renderer
}

type Option func(*REPL)

func WithRenderer(r Renderer) Option {
	return func(l *REPL) {
		l.renderer = r
	}
}

// NewREPL creates a loop reading commands from in and writing to out. Replies
// are rendered with glamour unless another Renderer is given.
func NewREPL(in io.Reader, out io.Writer, posts Posts, session Session, opts ...Option) (*REPL, error) {
	if in == nil || out == nil {
		return nil, errors.New("cli: input and output must not be nil")
	}
	if posts == nil || session == nil {
		return nil, errors.New("cli: services must not be nil")
	}
	l := &REPL{in: in, out: out, posts: posts, session: session}
	for _, opt := range opts {
		opt(l)
	}
	if l.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err != nil {
			return nil, fmt.Errorf("cli: create renderer: %w", err)
		}
		l.renderer = r
	}
	return l, nil
}

// Run reads commands until exit, end of input or ctx is done.
func (l *REPL) Run(ctx context.Context) error {
	l.println(BannerStyle.Render("🤖 AI Social Media Influencer"))
	l.println("I can help you with content creation, social media strategy, and more.")
	l.println(DimStyle.Render(fmt.Sprintf("💭 I remember our last %d exchanges.", l.session.HistorySize())))
	l.println(DimStyle.Render(helpText))

	scanner := bufio.NewScanner(l.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(l.out, "\n"+UserLabelStyle.Render("You: "))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("cli: read input: %w", err)
			}
			l.println("")
			return nil
		}
		if done := l.dispatch(ctx, scanner.Text()); done {
			return nil
		}
	}
}

// dispatch handles one input line and reports whether the loop should stop.
// Commands match case-insensitively; chat text is passed on as typed.
func (l *REPL) dispatch(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	fields := strings.Fields(strings.ToLower(line))

	switch {
	case fields[0] == "exit" || fields[0] == "quit":
		l.println("\n👋 Thanks for chatting! Keep creating amazing content!")
		return true
	case len(fields) == 1 && fields[0] == "help":
		l.println(helpText)
	case len(fields) == 1 && fields[0] == "clear":
		l.session.Clear()
		l.reply("🧹 Conversation history cleared!")
	case hasCommand(fields, "generate", "post"):
		l.generate(ctx, fields[2:])
	case hasCommand(fields, "suggest", "posts"):
		var platform, niche string
		if len(fields) > 2 {
			if domain.KnownPlatform(fields[2]) {
				platform = fields[2]
			} else {
				niche = fields[2]
			}
		}
		l.reply(l.session.Suggestions(ctx, platform, niche))
	case hasCommand(fields, "search", "posts"):
		query := strings.Join(fields[2:], " ")
		if query == "" {
			l.println(ErrorStyle.Render("❌ Please provide a search query"))
			return false
		}
		l.reply(l.session.SearchRelated(ctx, query))
	default:
		l.reply(l.session.Chat(ctx, line))
	}
	return false
}

func hasCommand(fields []string, verb, noun string) bool {
	return len(fields) >= 2 && fields[0] == verb && fields[1] == noun
}

// generate takes optional positional arguments: platform, niche, audience.
func (l *REPL) generate(ctx context.Context, args []string) {
	in := usecase.GenerateInput{}
	if len(args) > 0 {
		in.Platform = args[0]
	}
	if len(args) > 1 {
		in.Niche = args[1]
	}
	if len(args) > 2 {
		in.Audience = args[2]
	}
	l.println(DimStyle.Render("🎯 Generating post..."))

	out, err := l.posts.GeneratePost(ctx, in)
	if err != nil || !out.Post.Ready {
		msg := out.Post.Error
		if msg == "" && err != nil {
			msg = err.Error()
		}
		l.println(ErrorStyle.Render("❌ Error generating post: " + msg))
		return
	}

	p := out.Post
	l.println("\n✅ Post generated successfully!")
	l.println("\n📝 " + TitleStyle.Render(p.Topic.Title))
	l.println("\n💡 Content:")
	l.println(ContentStyle.Render(p.Content.Text))
	l.println(DimStyle.Render(fmt.Sprintf("%d characters for %s", p.Content.CharacterCount, p.Content.Platform)))
	if !p.Content.WithinLimit {
		l.println(WarnStyle.Render(fmt.Sprintf("⚠️  Over the %s character limit", p.Content.Platform)))
	}
	l.println("\n🏷️  Hashtags:")
	l.println(HashtagStyle.Render(strings.Join(p.Hashtags.Primary, " ")))
	if out.Degraded() {
		l.println(WarnStyle.Render(fmt.Sprintf("⚠️  Used fallback content (topic: %s, content: %s, hashtags: %s)",
			out.Outcomes.Topic, out.Outcomes.Content, out.Outcomes.Hashtags)))
	}
	if out.Saved() {
		l.println("\n💾 Post saved to: " + out.Location)
	} else {
		l.println(WarnStyle.Render("\n⚠️  Post could not be saved"))
	}
}

func (l *REPL) reply(text string) {
	rendered, err := l.renderer.Render(text)
	if err != nil {
		rendered = text
	}
	l.println("\n" + AssistantLabelStyle.Render("🤖 AI Influencer:") + " " + strings.TrimSpace(rendered))
}

func (l *REPL) println(s string) {
	fmt.Fprintln(l.out, s)
}
