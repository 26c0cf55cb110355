package model

import "time"

// Locale identifies the market a tool runs against
type Locale struct {
	Country  string `json:"country"`
	Language string `json:"language"`
}

// KeywordCandidate is a raw keyword produced by a keyword source
type KeywordCandidate struct {
	Keyword   string  `json:"keyword"`
	Source    string  `json:"source"`
	Relevance float64 `json:"relevance"`
}

// CompetitorCandidate is a raw search result produced by a SERP source.
// Position is local to the source call that produced it.
type CompetitorCandidate struct {
	Domain   string `json:"domain"`
	Position int    `json:"position"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Source   string `json:"source,omitempty"`
}

// Search intent values
const (
	IntentInformational = "informational"
	IntentNavigational  = "navigational"
	IntentTransactional = "transactional"
	IntentCommercial    = "commercial"
)

// Trend values
const (
	TrendRising    = "rising"
	TrendStable    = "stable"
	TrendDeclining = "declining"
	TrendSeasonal  = "seasonal"
)

// Difficulty labels
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// KeywordSuggestion is a scored keyword
type KeywordSuggestion struct {
	Keyword         string  `json:"keyword"`
	SearchVolume    int     `json:"searchVolume"`
	Difficulty      string  `json:"difficulty"`
	DifficultyScore int     `json:"difficultyScore"`
	CPC             float64 `json:"cpc"`
	Competition     int     `json:"competition"`
	Intent          string  `json:"intent"`
	Trend           string  `json:"trend"`
	Seasonality     int     `json:"seasonality"`
	Source          string  `json:"source,omitempty"`
	Relevance       float64 `json:"relevance"`
}

// Authority holds the synthetic authority metrics of a domain or page
type Authority struct {
	DA               int  `json:"da"`
	PA               int  `json:"pa"`
	Backlinks        int  `json:"backlinks"`
	ReferringDomains int  `json:"referringDomains"`
	OrganicKeywords  int  `json:"organicKeywords"`
	Estimated        bool `json:"estimated"`
}

// Competitor is a scored competitor record
type Competitor struct {
	Name             string `json:"name"`
	Domain           string `json:"domain"`
	URL              string `json:"url"`
	Rank             int    `json:"rank"`
	PA               int    `json:"pa"`
	DA               int    `json:"da"`
	Backlinks        int    `json:"backlinks"`
	ReferringDomains int    `json:"referringDomains"`
	OrganicKeywords  int    `json:"organicKeywords"`
}

// KeywordCompetition is the per-keyword part of a competition analysis
type KeywordCompetition struct {
	Keyword        string   `json:"keyword"`
	Difficulty     int      `json:"difficulty"`
	SearchVolume   int      `json:"searchVolume"`
	TopCompetitors []string `json:"topCompetitors"`
	UsedFallback   bool     `json:"usedFallback"`
	// KeywordGap is set when the target domain was not among the results
	KeywordGap     bool     `json:"keywordGap"`
}

// CompetitionSummary aggregates a competition analysis
type CompetitionSummary struct {
	TotalCompetitors   int      `json:"totalCompetitors"`
	AverageDA          int      `json:"averageDA"`
	AveragePA          int      `json:"averagePA"`
	TopCompetitorsByDA []string `json:"topCompetitorsByDA"`
	KeywordGaps        []string `json:"keywordGaps"`
}

// CompetitionAnalysis is the output of the competition checker
type CompetitionAnalysis struct {
	TargetDomain    string               `json:"targetDomain"`
	Keywords        []string             `json:"keywords"`
	Country         string               `json:"country"`
	Competitors     []Competitor         `json:"competitors"`
	KeywordAnalysis []KeywordCompetition `json:"keywordAnalysis"`
	Summary         CompetitionSummary   `json:"summary"`
}

// KeywordResearchSummary aggregates a keyword research run
type KeywordResearchSummary struct {
	TotalKeywords       int     `json:"totalKeywords"`
	AverageSearchVolume int     `json:"averageSearchVolume"`
	AverageDifficulty   int     `json:"averageDifficulty"`
	AverageCPC          float64 `json:"averageCpc"`
	EasyKeywords        int     `json:"easyKeywords"`
	MediumKeywords      int     `json:"mediumKeywords"`
	HardKeywords        int     `json:"hardKeywords"`
}

// KeywordResearch is the output of the keyword research tool
type KeywordResearch struct {
	SeedKeyword string                 `json:"seedKeyword"`
	Location    string                 `json:"location"`
	Language    string                 `json:"language"`
	Keywords    []KeywordSuggestion    `json:"keywords"`
	Questions   []string               `json:"questions"`
	Summary     KeywordResearchSummary `json:"summary"`
	Sources     map[string]int         `json:"sources"`
}

// PlatformKeywords is the output of the Amazon and YouTube keyword tools
type PlatformKeywords struct {
	SeedKeyword string                 `json:"seedKeyword"`
	Country     string                 `json:"country"`
	Platform    string                 `json:"platform"`
	Keywords    []KeywordSuggestion    `json:"keywords"`
	Summary     KeywordResearchSummary `json:"summary"`
}

// Visibility values of a rank result
const (
	VisibilityEasy   = "easy"
	VisibilityMedium = "medium"
	VisibilityHard   = "hard"
)

// RankResult is the position of a domain for one keyword
type RankResult struct {
	Keyword      string    `json:"keyword"`
	Domain       string    `json:"domain"`
	SearchEngine string    `json:"searchEngine"`
	Position     *int      `json:"position"`
	Top3         bool      `json:"top3"`
	Top10        bool      `json:"top10"`
	Top20        bool      `json:"top20"`
	FirstPage    bool      `json:"firstPage"`
	Visibility   string    `json:"visibility"`
	MatchedURL   string    `json:"matchedUrl,omitempty"`
	TotalResults int       `json:"totalResults"`
	SearchURL    string    `json:"searchUrl"`
	Timestamp    time.Time `json:"timestamp"`
}

// RankSummary aggregates a batch of rank results
type RankSummary struct {
	Tracked         int     `json:"tracked"`
	Ranked          int     `json:"ranked"`
	Top3            int     `json:"top3"`
	Top10           int     `json:"top10"`
	Top20           int     `json:"top20"`
	AveragePosition float64 `json:"averagePosition"`
}

// BatchRankResult is the output of batch rank tracking
type BatchRankResult struct {
	Domain       string       `json:"domain"`
	SearchEngine string       `json:"searchEngine"`
	Results      []RankResult `json:"results"`
	Summary      RankSummary  `json:"summary"`
}

// SearchQuery is one query a site is estimated to receive traffic from
type SearchQuery struct {
	Query        string  `json:"query"`
	Position     int     `json:"position"`
	SearchVolume int     `json:"searchVolume"`
	Impressions  int     `json:"impressions"`
	Clicks       int     `json:"clicks"`
	CTR          float64 `json:"ctr"`
	Difficulty   string  `json:"difficulty"`
	Source       string  `json:"source"`
}

// TopQueriesSummary aggregates top search queries
type TopQueriesSummary struct {
	TotalQueries     int     `json:"totalQueries"`
	TotalClicks      int     `json:"totalClicks"`
	TotalImpressions int     `json:"totalImpressions"`
	AveragePosition  float64 `json:"averagePosition"`
	AverageCTR       float64 `json:"averageCtr"`
}

// TopQueries is the output of the top search queries tool
type TopQueries struct {
	TargetURL string            `json:"targetUrl"`
	Domain    string            `json:"domain"`
	Country   string            `json:"country"`
	Queries   []SearchQuery     `json:"queries"`
	Summary   TopQueriesSummary `json:"summary"`
}

// Link types of a referrer
const (
	LinkDofollow = "dofollow"
	LinkNofollow = "nofollow"
)

// Referrer is a page found linking to or mentioning a target site
type Referrer struct {
	URL             string     `json:"url"`
	Domain          string     `json:"domain"`
	Backlinks       int        `json:"backlinks"`
	DomainAuthority int        `json:"domainAuthority"`
	FirstSeenDate   *time.Time `json:"firstSeenDate"`
	LastSeenDate    *time.Time `json:"lastSeenDate"`
	LinkType        string     `json:"linkType"`
	AnchorText      string     `json:"anchorText"`
	PageTitle       string     `json:"pageTitle"`
	Source          string     `json:"source"`
}

// ReferrerSummary aggregates top referrers
type ReferrerSummary struct {
	TotalReferrers         int `json:"totalReferrers"`
	TotalBacklinks         int `json:"totalBacklinks"`
	Dofollow               int `json:"dofollow"`
	Nofollow               int `json:"nofollow"`
	AverageDomainAuthority int `json:"averageDomainAuthority"`
	IndexedPages           int `json:"indexedPages"`
}

// TopReferrers is the output of the top referrers tool
type TopReferrers struct {
	TargetURL string          `json:"targetUrl"`
	Domain    string          `json:"domain"`
	Referrers []Referrer      `json:"referrers"`
	Summary   ReferrerSummary `json:"summary"`
}
