package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"influencer-agent/internal/app"
	"influencer-agent/internal/cli"
	"influencer-agent/internal/config"
	"influencer-agent/internal/usecase"
)

var configFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "influencer",
		Short:         "AI social media influencer: generate posts and talk strategy",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			repl, err := cli.NewREPL(cmd.InOrStdin(), cmd.OutOrStdout(), a.Posts, a.Session)
			if err != nil {
				return err
			}
			return repl.Run(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./influencer.yaml)")
	root.AddCommand(newGenerateCmd())
	return root
}

func newGenerateCmd() *cobra.Command {
	var in usecase.GenerateInput
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one post and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			out, err := a.Posts.GeneratePost(cmd.Context(), in)
			if err != nil {
				return err
			}
			if out.Degraded() {
				slog.Warn("post used fallback content",
					"topic", out.Outcomes.Topic, "content", out.Outcomes.Content, "hashtags", out.Outcomes.Hashtags)
			}
			if out.Saved() {
				slog.Info("post saved", "location", out.Location)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			if err := enc.Encode(out.Post); err != nil {
				return fmt.Errorf("encode post: %w", err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Platform, "platform", "", "target platform (instagram, linkedin, twitter, facebook)")
	f.StringVar(&in.Niche, "niche", "", "content niche")
	f.StringVar(&in.Audience, "audience", "", "target audience")
	f.StringVar(&in.Tone, "tone", "", "tone of voice")
	f.StringSliceVar(&in.SEOKeywords, "seo", nil, "comma-separated SEO keywords")
	return cmd
}

// setup loads configuration, installs the logger and wires the services.
func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	a, err := app.New(ctx, cfg, app.Deps{})
	if err != nil {
		return nil, fmt.Errorf("initialise: %w", err)
	}
	return a, nil
}
