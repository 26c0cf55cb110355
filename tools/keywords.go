package tools

import (
	"context"
	"math"
	"strings"

	"github.com/seo-optimizer/seotools/aggregate"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/scoring"
	"github.com/seo-optimizer/seotools/sources"
)

// Platforms of the platform keyword tools
const (
	PlatformAmazon  = "amazon"
	PlatformYouTube = "youtube"
)

const maxQuestions = 20

var questionWords = map[string]bool{
	"how": true, "what": true, "why": true, "when": true, "where": true, "who": true,
	"which": true, "can": true, "does": true, "do": true, "is": true, "are": true,
	"should": true, "will": true,
}

// KeywordResearch expands seed through every research source and scores the
// merged keywords. location defaults to United States and language to English.
func (s *Service) KeywordResearch(ctx context.Context, seed, location, language string) (*model.KeywordResearch, error) {
	seed, err := requireSeed(seed)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc := model.Locale{Country: orDefault(location, "United States"), Language: orDefault(language, "English")}

	results := aggregate.FanOut(ctx, keywordCalls(s.deps.Research, seed, loc)...)
	candidates := aggregate.Keywords(results, s.deps.Trust, s.cfg.KeywordLimit)

	keywords := make([]model.KeywordSuggestion, len(candidates))
	var questions []string
	for i, c := range candidates {
		keywords[i] = scoring.ScoreKeyword(c, seed, loc)
		if isQuestion(c.Keyword) && len(questions) < maxQuestions {
			questions = append(questions, c.Keyword)
		}
	}

	s.logger.Info("tools: keyword research", "seed", seed, "candidates", len(candidates))
	return &model.KeywordResearch{
		SeedKeyword: seed,
		Location:    loc.Country,
		Language:    loc.Language,
		Keywords:    keywords,
		Questions:   nonNil(questions),
		Summary:     summarizeKeywords(keywords),
		Sources:     aggregate.SourceCounts(candidates),
	}, nil
}

// AmazonKeywords expands seed through Amazon autocomplete and search
func (s *Service) AmazonKeywords(ctx context.Context, seed, country string) (*model.PlatformKeywords, error) {
	return s.platformKeywords(ctx, PlatformAmazon, s.deps.Amazon, seed, country)
}

// YouTubeKeywords expands seed through YouTube autocomplete
func (s *Service) YouTubeKeywords(ctx context.Context, seed, country string) (*model.PlatformKeywords, error) {
	return s.platformKeywords(ctx, PlatformYouTube, s.deps.YouTube, seed, country)
}

func (s *Service) platformKeywords(ctx context.Context, platform string, srcs []sources.KeywordSource, seed, country string) (*model.PlatformKeywords, error) {
	seed, err := requireSeed(seed)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	country = strings.ToLower(orDefault(country, "us"))
	loc := model.Locale{Country: country, Language: "English"}

	results := aggregate.FanOut(ctx, keywordCalls(srcs, seed, loc)...)
	candidates := aggregate.Keywords(results, s.deps.Trust, s.cfg.PlatformLimit)
	keywords := make([]model.KeywordSuggestion, len(candidates))
	for i, c := range candidates {
		keywords[i] = scoring.ScorePlatformKeyword(c, seed, platform, country)
	}

	s.logger.Info("tools: platform keywords", "platform", platform, "seed", seed, "candidates", len(candidates))
	return &model.PlatformKeywords{
		SeedKeyword: seed,
		Country:     country,
		Platform:    platform,
		Keywords:    keywords,
		Summary:     summarizeKeywords(keywords),
	}, nil
}

func keywordCalls(srcs []sources.KeywordSource, seed string, loc model.Locale) []func(context.Context) []model.KeywordCandidate {
	calls := make([]func(context.Context) []model.KeywordCandidate, len(srcs))
	for i, src := range srcs {
		calls[i] = func(ctx context.Context) []model.KeywordCandidate {
			return src.Keywords(ctx, seed, loc)
		}
	}
	return calls
}

func isQuestion(keyword string) bool {
	first, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(keyword)), " ")
	return questionWords[first]
}

func summarizeKeywords(ks []model.KeywordSuggestion) model.KeywordResearchSummary {
	sum := model.KeywordResearchSummary{TotalKeywords: len(ks)}
	if len(ks) == 0 {
		return sum
	}
	var volume, difficulty int
	var cpc float64
	for _, k := range ks {
		volume += k.SearchVolume
		difficulty += k.DifficultyScore
		cpc += k.CPC
		switch k.Difficulty {
		case model.DifficultyEasy:
			sum.EasyKeywords++
		case model.DifficultyMedium:
			sum.MediumKeywords++
		default:
			sum.HardKeywords++
		}
	}
	n := float64(len(ks))
	sum.AverageSearchVolume = int(math.Round(float64(volume) / n))
	sum.AverageDifficulty = int(math.Round(float64(difficulty) / n))
	sum.AverageCPC = round(cpc/n, 2)
	return sum
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
