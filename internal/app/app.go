// Package app wires configuration into the services shared by the CLI and the
// Lambda entrypoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"influencer-agent/internal/config"
	"influencer-agent/internal/domain"
	"influencer-agent/internal/generator"
	"influencer-agent/internal/integrations/gemini"
	"influencer-agent/internal/integrations/openai"
	"influencer-agent/internal/integrations/paramstore"
	"influencer-agent/internal/repository"
	"influencer-agent/internal/store"
	"influencer-agent/internal/usecase"
)

const hydrateLimit = 50

// App holds the wired services.
type App struct {
	Config  *config.Config
	Index   *store.Index
	Posts   *usecase.PostService
	Session *usecase.ChatSession
}

type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// Archive is the shared post copy, implemented by repository.Client.
type Archive interface {
	usecase.PostArchive
	RecentPosts(ctx context.Context, platform string, limit int) ([]domain.Post, error)
	Location(postID string) string
}

// Deps overrides collaborators normally built from the configuration.
type Deps struct {
	LLM     LLMClient
	Archive Archive
}

// New builds the application from cfg. Collaborators not supplied in deps
// are created from cfg, reaching AWS only when param_prefix or archive_table
// is set.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config must not be nil")
	}

	llm := deps.LLM
	archive := deps.Archive
	if llm == nil || (archive == nil && cfg.ArchiveTable != "") {
		var err error
		llm, archive, err = buildRemote(ctx, cfg, llm, archive)
		if err != nil {
			return nil, err
		}
	}

	idx := store.New()
	n, err := idx.LoadAll(cfg.PostsDir, cfg.PostPattern)
	if err != nil {
		return nil, fmt.Errorf("app: load posts: %w", err)
	}
	slog.Info("app: posts loaded", "dir", cfg.PostsDir, "count", n)
	if archive != nil {
		hydrate(ctx, idx, archive)
	}

	writer, err := repository.NewFileWriter(cfg.PostsDir)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	topics, err := generator.NewTopicGenerator(llm, cfg.GeneratorModel)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	contents, err := generator.NewContentGenerator(llm, cfg.GeneratorModel)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	hashtags, err := generator.NewHashtagGenerator(llm, cfg.GeneratorModel)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	window := usecase.NewWindow(cfg.HistorySize)
	var opts []usecase.PostOption
	if archive != nil {
		opts = append(opts, usecase.WithArchive(archive))
	}
	posts, err := usecase.NewPostService(topics, contents, hashtags, writer, idx, window, opts...)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	session, err := usecase.NewChatSession(llm, cfg.ChatModel, idx, window)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	return &App{Config: cfg, Index: idx, Posts: posts, Session: session}, nil
}

// buildRemote creates the model client and, when configured, the DynamoDB
// archive. AWS configuration is loaded only if one of them needs it.
func buildRemote(ctx context.Context, cfg *config.Config, llm LLMClient, archive Archive) (LLMClient, Archive, error) {
	needKey := llm == nil && cfg.APIKey == "" && cfg.ParamPrefix != ""
	needArchive := archive == nil && cfg.ArchiveTable != ""

	apiKey := cfg.APIKey
	if needKey || needArchive {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("app: load AWS config: %w", err)
		}
		if needKey {
			ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
			if err != nil {
				return nil, nil, fmt.Errorf("app: %w", err)
			}
			apiKey, err = paramstore.FetchAPIKey(ctx, ps, cfg.KeyParameter())
			if err != nil {
				return nil, nil, fmt.Errorf("app: resolve api key: %w", err)
			}
		}
		if needArchive {
			client, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.ArchiveTable)
			if err != nil {
				return nil, nil, fmt.Errorf("app: %w", err)
			}
			archive = client
		}
	}

	if llm == nil {
		var err error
		llm, err = NewLLM(ctx, cfg, apiKey)
		if err != nil {
			return nil, nil, err
		}
	}
	return llm, archive, nil
}

// NewLLM creates the model client for the configured provider.
func NewLLM(ctx context.Context, cfg *config.Config, apiKey string) (LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		c, err := gemini.NewClient(ctx, apiKey,
			gemini.WithTemperature(cfg.Temperature),
			gemini.WithTimeout(cfg.RequestTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return c, nil
	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithTemperature(cfg.Temperature)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.RequestTimeout > 0 {
			opts = append(opts, openai.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
		}
		c, err := openai.NewClient(apiKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("app: unsupported provider %q", cfg.Provider)
	}
}

// hydrate indexes recent archived posts of every known platform so that a
// fresh instance can answer about posts it did not write.
func hydrate(ctx context.Context, idx *store.Index, archive Archive) {
	added := 0
	for _, platform := range domain.PlatformNames() {
		posts, err := archive.RecentPosts(ctx, platform, hydrateLimit)
		if err != nil {
			slog.Warn("app: archive hydration failed", "platform", platform, "err", err)
			continue
		}
		for _, p := range posts {
			if _, ok := idx.Get(p.ID); ok {
				continue
			}
			idx.Add(p, archive.Location(p.ID))
			added++
		}
	}
	slog.Info("app: archive hydrated", "count", added)
}
