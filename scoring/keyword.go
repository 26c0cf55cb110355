package scoring

import (
	"math"
	"strings"

	"github.com/seo-optimizer/seotools/model"
)

var (
	transactionalTerms = []string{"buy", "price", "cheap", "order", "purchase", "deal", "discount", "coupon", "shop"}
	commercialTerms    = []string{"best", "top", "review", "vs", "compare", "alternative"}
	navigationalTerms  = []string{"login", "sign in", "website", "official", "download", "app"}
	seasonalTerms      = []string{"christmas", "halloween", "summer", "winter", "black friday", "valentine", "back to school", "tax"}
)

var intentCPC = map[string]float64{
	model.IntentTransactional: 2.5,
	model.IntentCommercial:    1.8,
	model.IntentNavigational:  0.9,
	model.IntentInformational: 0.6,
}

var intentCompetition = map[string]int{
	model.IntentTransactional: 30,
	model.IntentCommercial:    20,
	model.IntentNavigational:  10,
	model.IntentInformational: 0,
}

// modifier scales volume and CPC when any of its terms appears in a keyword
type modifier struct {
	terms  []string
	volume float64
	cpc    float64
}

var modifiers = []modifier{
	{terms: []string{"buy", "price", "cheap", "deal", "discount"}, volume: 0.8, cpc: 3},
	{terms: []string{"free"}, volume: 2, cpc: 0.3},
	{terms: []string{"how", "what", "why", "guide"}, volume: 1.2, cpc: 0.5},
	{terms: []string{"best", "top", "review"}, volume: 1.1, cpc: 1.5},
}

// Platform factors applied on top of the keyword scores
var platformFactors = map[string]struct{ volume, cpc float64 }{
	"amazon":  {volume: 0.6, cpc: 1.2},
	"youtube": {volume: 0.8, cpc: 0.4},
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// hasTerm matches whole words or phrases
func hasTerm(kw, term string) bool {
	return strings.Contains(" "+kw+" ", " "+term+" ")
}

func hasAny(kw string, terms []string) bool {
	for _, t := range terms {
		if hasTerm(kw, t) {
			return true
		}
	}
	return false
}

// Intent classifies a keyword. Transactional terms win over commercial,
// commercial over navigational.
func Intent(keyword string) string {
	kw := normalize(keyword)
	switch {
	case hasAny(kw, transactionalTerms):
		return model.IntentTransactional
	case hasAny(kw, commercialTerms):
		return model.IntentCommercial
	case hasAny(kw, navigationalTerms):
		return model.IntentNavigational
	default:
		return model.IntentInformational
	}
}

// IsSeasonal reports keywords tied to a time of year
func IsSeasonal(keyword string) bool {
	return hasAny(normalize(keyword), seasonalTerms)
}

// DifficultyLabel maps a 0-100 difficulty score to Easy, Medium or Hard
func DifficultyLabel(score int) string {
	switch {
	case score < 30:
		return model.DifficultyEasy
	case score < 60:
		return model.DifficultyMedium
	default:
		return model.DifficultyHard
	}
}

func difficultyScore(competition, volume int) int {
	v := math.Max(float64(volume), 1)
	return Clamp(int(math.Round(0.6*float64(competition)+8*math.Log10(v))), 0, 100)
}

// SearchVolume estimates the monthly searches of keyword
func SearchVolume(keyword, seed string, loc model.Locale) int {
	kw := normalize(keyword)
	volume := float64(100 + absHash(kw+loc.Country+loc.Language)%9900)

	switch n := len(strings.Fields(kw)); {
	case n <= 1:
		volume *= 3
	case n == 2:
		volume *= 1.5
	case n >= 4:
		volume *= 0.5
	}

	vm, _ := modifierProduct(kw)
	volume *= vm
	if seed != "" && kw == normalize(seed) {
		volume *= 1.5
	}

	countryVol, _ := countryMultipliers(loc.Country)
	volume *= countryVol * languageMultiplier(loc.Language)
	return int(math.Max(10, math.Round(volume)))
}

func modifierProduct(kw string) (volume, cpc float64) {
	volume, cpc = 1, 1
	for _, m := range modifiers {
		if hasAny(kw, m.terms) {
			volume *= m.volume
			cpc *= m.cpc
		}
	}
	return volume, cpc
}

// CPC estimates the cost per click of keyword in dollars
func CPC(keyword string, loc model.Locale) float64 {
	kw := normalize(keyword)
	base := intentCPC[Intent(kw)]
	spread := 0.5 + float64(absHash(kw+"cpc")%100)/100
	_, mod := modifierProduct(kw)
	_, countryMul := countryMultipliers(loc.Country)
	return math.Max(0.05, roundCents(base*spread*mod*countryMul))
}

// Competition estimates how contested keyword is, 0-100
func Competition(keyword string, loc model.Locale) int {
	kw := normalize(keyword)
	c := int(absHash(kw+"competition"+loc.Country) % 60)
	c += intentCompetition[Intent(kw)]
	if n := len(strings.Fields(kw)); n > 3 {
		c -= 5 * (n - 3)
	}
	return Clamp(c, 0, 100)
}

func trend(kw string) string {
	if IsSeasonal(kw) {
		return model.TrendSeasonal
	}
	switch absHash(kw+"trend") % 3 {
	case 0:
		return model.TrendRising
	case 1:
		return model.TrendStable
	default:
		return model.TrendDeclining
	}
}

func seasonality(kw string) int {
	s := int(absHash(kw+"season") % 40)
	if IsSeasonal(kw) {
		s += 50
	}
	return Clamp(s, 0, 100)
}

// ScoreKeyword derives the synthetic metrics of a candidate
func ScoreKeyword(c model.KeywordCandidate, seed string, loc model.Locale) model.KeywordSuggestion {
	kw := normalize(c.Keyword)
	volume := SearchVolume(kw, seed, loc)
	competition := Competition(kw, loc)
	ds := difficultyScore(competition, volume)

	return model.KeywordSuggestion{
		Keyword:         strings.TrimSpace(c.Keyword),
		SearchVolume:    volume,
		Difficulty:      DifficultyLabel(ds),
		DifficultyScore: ds,
		CPC:             CPC(kw, loc),
		Competition:     competition,
		Intent:          Intent(kw),
		Trend:           trend(kw),
		Seasonality:     seasonality(kw),
		Source:          c.Source,
		Relevance:       c.Relevance,
	}
}

// ScorePlatformKeyword scores a candidate for a marketplace or video platform.
// Unknown platforms score like ScoreKeyword.
func ScorePlatformKeyword(c model.KeywordCandidate, seed, platform, country string) model.KeywordSuggestion {
	s := ScoreKeyword(c, seed, model.Locale{Country: country, Language: "English"})
	f, ok := platformFactors[strings.ToLower(platform)]
	if !ok {
		return s
	}
	s.SearchVolume = int(math.Max(10, math.Round(float64(s.SearchVolume)*f.volume)))
	s.CPC = math.Max(0.05, roundCents(s.CPC*f.cpc))
	s.DifficultyScore = difficultyScore(s.Competition, s.SearchVolume)
	s.Difficulty = DifficultyLabel(s.DifficultyScore)
	return s
}
