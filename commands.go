package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/seotools/tools"
)

// toolCommand builds a one-shot subcommand that runs a tool and prints its JSON result
func toolCommand(use, short string, args cobra.PositionalArgs, run func(ctx context.Context, svc *tools.Service, args []string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closeLog, err := setup()
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := newApp(cfg, slog.Default())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()
			out, err := run(ctx, a.tools, args)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func init() {
	keywordsCmd := toolCommand("keywords <seed>", "Research keywords related to a seed", cobra.MinimumNArgs(1),
		func(ctx context.Context, svc *tools.Service, args []string) (any, error) {
			return svc.KeywordResearch(ctx, strings.Join(args, " "), location, language)
		})
	keywordsCmd.Flags().StringVar(&location, "location", "United States", "market the research targets")
	keywordsCmd.Flags().StringVar(&language, "language", "English", "language of the suggestions")

	competitionCmd := toolCommand("competition <url> <keyword>...", "Find who competes with a site for keywords", cobra.MinimumNArgs(2),
		func(ctx context.Context, svc *tools.Service, args []string) (any, error) {
			return svc.CheckCompetition(ctx, args[0], args[1:], country)
		})

	rankCmd := toolCommand("rank <domain> <keyword>...", "Track where a domain ranks for keywords", cobra.MinimumNArgs(2),
		func(ctx context.Context, svc *tools.Service, args []string) (any, error) {
			if len(args) == 2 {
				return svc.TrackRank(ctx, args[0], args[1], engine)
			}
			return svc.TrackRanks(ctx, args[0], args[1:], engine)
		})
	rankCmd.Flags().StringVar(&engine, "engine", tools.EngineDuckDuckGo, "search engine: google, bing, yahoo or duckduckgo")

	referrersCmd := toolCommand("referrers <url>", "List sites that mention or link to a site", cobra.ExactArgs(1),
		func(ctx context.Context, svc *tools.Service, args []string) (any, error) {
			return svc.TopReferrers(ctx, args[0])
		})

	queriesCmd := toolCommand("top-queries <url>", "Estimate the search queries a page ranks for", cobra.ExactArgs(1),
		func(ctx context.Context, svc *tools.Service, args []string) (any, error) {
			return svc.TopSearchQueries(ctx, args[0], country)
		})

	amazonCmd := toolCommand("amazon <seed>", "Amazon search suggestions for a seed", cobra.MinimumNArgs(1),
		func(ctx context.Context, svc *tools.Service, args []string) (any, error) {
			return svc.AmazonKeywords(ctx, strings.Join(args, " "), country)
		})

	youtubeCmd := toolCommand("youtube <seed>", "YouTube search suggestions for a seed", cobra.MinimumNArgs(1),
		func(ctx context.Context, svc *tools.Service, args []string) (any, error) {
			return svc.YouTubeKeywords(ctx, strings.Join(args, " "), country)
		})

	auditCmd := toolCommand("audit <url>", "Audit the on-page SEO of a URL", cobra.ExactArgs(1),
		func(ctx context.Context, svc *tools.Service, args []string) (any, error) {
			return svc.AuditPage(ctx, args[0])
		})

	for _, cmd := range []*cobra.Command{competitionCmd, queriesCmd, amazonCmd, youtubeCmd} {
		cmd.Flags().StringVar(&country, "country", "", "country code of the market (default US)")
	}
	rootCmd.AddCommand(keywordsCmd, competitionCmd, rankCmd, referrersCmd, queriesCmd, amazonCmd, youtubeCmd, auditCmd)
}
