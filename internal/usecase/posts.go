package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"influencer-agent/internal/domain"
	"influencer-agent/internal/generator"
)

const (
	defaultNiche    = "technology"
	defaultAudience = "professionals"
	defaultTone     = "engaging"
	defaultPlatform = "instagram"
)

type TopicGenerator interface {
	Generate(ctx context.Context, niche, audience, tone string) generator.Result[domain.Topic]
}

type ContentGenerator interface {
	Generate(ctx context.Context, topic domain.Topic, platform string) generator.Result[domain.ContentBody]
}

type HashtagGenerator interface {
	Generate(ctx context.Context, topic domain.Topic, content domain.ContentBody, seoKeywords []string) generator.Result[domain.HashtagSet]
}

// PostWriter persists a post and returns where it was written.
type PostWriter interface {
	Write(post domain.Post) (string, error)
	Read(location string) (domain.Post, error)
}

type PostIndex interface {
	Add(post domain.Post, location string) domain.IndexEntry
	Get(id string) (domain.IndexEntry, bool)
	ByPlatform(name string) []domain.IndexEntry
	ByNiche(name string) []domain.IndexEntry
	Recent(limit int) []domain.IndexEntry
	Search(query string) []domain.IndexEntry
}

// PostArchive is an optional shared copy of generated posts.
type PostArchive interface {
	ArchivePost(ctx context.Context, post domain.Post) error
	GetPost(ctx context.Context, id string) (domain.Post, bool, error)
}

type GenerateInput struct {
	Niche       string
	Audience    string
	Tone        string
	Platform    string
	SEOKeywords []string
}

// StageOutcomes records how each generation stage produced its value.
type StageOutcomes struct {
	Topic    generator.Outcome
	Content  generator.Outcome
	Hashtags generator.Outcome
}

func (o StageOutcomes) Degraded() bool {
	return o.Topic.Degraded() || o.Content.Degraded() || o.Hashtags.Degraded()
}

type GenerateOutput struct {
	Post     domain.Post
	Outcomes StageOutcomes
	// Location is where the post was written; empty when the write failed.
	Location string
}

// Degraded reports whether any stage fell back to deterministic content.
func (o GenerateOutput) Degraded() bool {
	return o.Outcomes.Degraded()
}

// Saved reports whether the post reached disk.
func (o GenerateOutput) Saved() bool {
	return o.Location != ""
}

type PostService struct {
	topics   TopicGenerator
	contents ContentGenerator
	hashtags HashtagGenerator
	writer   PostWriter
	index    PostIndex
	window   *Window
	archive  PostArchive
}

type PostOption func(*PostService)

// WithArchive mirrors every generated post into archive.
func WithArchive(archive PostArchive) PostOption {
	return func(s *PostService) {
		s.archive = archive
	}
}

func NewPostService(t TopicGenerator, c ContentGenerator, h HashtagGenerator, w PostWriter, idx PostIndex, window *Window, opts ...PostOption) (*PostService, error) {
	if t == nil || c == nil || h == nil {
		return nil, errors.New("usecase: generators must not be nil")
	}
	if w == nil {
		return nil, errors.New("usecase: post writer must not be nil")
	}
	if idx == nil {
		return nil, errors.New("usecase: post index must not be nil")
	}
	if window == nil {
		return nil, errors.New("usecase: window must not be nil")
	}
	s := &PostService{
		topics:   t,
		contents: c,
		hashtags: h,
		writer:   w,
		index:    idx,
		window:   window,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GeneratePost runs topic, content and hashtag generation in order, persists
// the assembled post and records it in the index and conversation window.
// Generator failures never fail the call; they show up in Outcomes. On error
// the returned output still carries a Post with Ready=false.
func (s *PostService) GeneratePost(ctx context.Context, in GenerateInput) (GenerateOutput, error) {
	params := normalizeInput(in)
	if err := ctx.Err(); err != nil {
		e := newError(ErrorCancelled, "context_done", err)
		return failedOutput(e), e
	}

	slog.Info("usecase: generating post", "platform", params.Platform, "niche", params.Niche)

	topic := s.topics.Generate(ctx, params.Niche, params.Audience, params.Tone)
	logStage("topic", topic.Outcome, topic.Err)
	content := s.contents.Generate(ctx, topic.Value, params.Platform)
	logStage("content", content.Outcome, content.Err)
	tags := s.hashtags.Generate(ctx, topic.Value, content.Value, params.SEOKeywords)
	logStage("hashtags", tags.Outcome, tags.Err)

	if err := ctx.Err(); err != nil {
		e := newError(ErrorCancelled, "context_done", err)
		return failedOutput(e), e
	}

	generatedAt := now()
	id, err := newPostID(generatedAt)
	if err != nil {
		e := newError(ErrorInternal, "post_id_error", err)
		return failedOutput(e), e
	}

	post := domain.Post{
		ID:          id,
		GeneratedAt: domain.Timestamp{Time: generatedAt},
		Parameters:  &params,
		Topic:       &topic.Value,
		Content:     &content.Value,
		Hashtags:    &tags.Value,
		Ready:       true,
	}
	out := GenerateOutput{
		Post: post,
		Outcomes: StageOutcomes{
			Topic:    topic.Outcome,
			Content:  content.Outcome,
			Hashtags: tags.Outcome,
		},
	}

	location, err := s.writer.Write(post)
	if err != nil {
		slog.Error("usecase: post not saved", "post_id", id, "err", err)
	} else {
		out.Location = location
		s.index.Add(post, location)
	}

	if s.archive != nil {
		if err := s.archive.ArchivePost(ctx, post); err != nil {
			slog.Warn("usecase: archive post failed", "post_id", id, "err", err)
		}
	}

	s.window.Add(domain.Turn{
		Input:  fmt.Sprintf("Generate a %s post about %s", params.Platform, params.Niche),
		Output: "Generated post: " + topic.Value.Title,
	})

	slog.Info("usecase: post generated",
		"post_id", id,
		"characters", content.Value.CharacterCount,
		"primary_hashtags", tags.Value.TotalPrimary,
		"degraded", out.Degraded(),
		"location", out.Location,
	)
	return out, nil
}

// Post returns a previously generated post, from local disk when the index
// knows it, otherwise from the archive.
func (s *PostService) Post(ctx context.Context, id string) (domain.Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Post{}, newError(ErrorInvalidInput, "empty_post_id", nil)
	}
	if entry, ok := s.index.Get(id); ok && isLocal(entry.Location) {
		post, err := s.writer.Read(entry.Location)
		if err == nil {
			return post, nil
		}
		slog.Warn("usecase: indexed post unreadable", "post_id", id, "location", entry.Location, "err", err)
	}
	if s.archive == nil {
		return domain.Post{}, newError(ErrorNotFound, "post_not_found", nil)
	}
	post, ok, err := s.archive.GetPost(ctx, id)
	if err != nil {
		return domain.Post{}, newError(ErrorUpstream, "archive_read_error", err)
	}
	if !ok {
		return domain.Post{}, newError(ErrorNotFound, "post_not_found", nil)
	}
	return post, nil
}

func isLocal(location string) bool {
	return location != "" && !strings.Contains(location, "://")
}

// normalizeInput fills defaults for blank fields. Field lengths are not
// limited.
func normalizeInput(in GenerateInput) domain.Parameters {
	p := domain.Parameters{
		Niche:    orDefault(in.Niche, defaultNiche),
		Audience: orDefault(in.Audience, defaultAudience),
		Tone:     orDefault(in.Tone, defaultTone),
		Platform: orDefault(in.Platform, defaultPlatform),
	}
	for _, kw := range in.SEOKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			p.SEOKeywords = append(p.SEOKeywords, kw)
		}
	}
	return p
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func failedOutput(err error) GenerateOutput {
	return GenerateOutput{Post: domain.Post{
		GeneratedAt: domain.Timestamp{Time: now()},
		Ready:       false,
		Error:       err.Error(),
	}}
}

func logStage(stage string, outcome generator.Outcome, err error) {
	if outcome.Degraded() {
		slog.Warn("usecase: stage fell back", "stage", stage, "outcome", outcome.String(), "err", err)
	}
}

// newPostID builds ai_influencer_<YYYYMMDD_HHMMSS>_<8 hex chars>.
func newPostID(at time.Time) (string, error) {
	u, err := newUUID()
	if err != nil {
		return "", err
	}
	suffix := strings.ReplaceAll(u.String(), "-", "")[:8]
	return "ai_influencer_" + at.Format("20060102_150405") + "_" + suffix, nil
}

var newUUID = uuid.NewRandom

var now = time.Now
