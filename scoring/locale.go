package scoring

import "strings"

// countryNames maps the display names accepted by the tools to ISO codes
var countryNames = map[string]string{
	"united states":        "US",
	"usa":                  "US",
	"united kingdom":       "GB",
	"uk":                   "GB",
	"canada":               "CA",
	"australia":            "AU",
	"germany":              "DE",
	"france":               "FR",
	"spain":                "ES",
	"italy":                "IT",
	"india":                "IN",
	"japan":                "JP",
	"brazil":               "BR",
	"mexico":               "MX",
	"united arab emirates": "AE",
	"singapore":            "SG",
}

var countryVolume = map[string]float64{
	"US": 1.0,
	"GB": 0.35,
	"CA": 0.25,
	"AU": 0.2,
	"DE": 0.3,
	"FR": 0.28,
	"ES": 0.2,
	"IT": 0.2,
	"IN": 0.6,
	"JP": 0.3,
	"BR": 0.3,
	"MX": 0.2,
	"AE": 0.08,
	"SG": 0.06,
}

var countryCPC = map[string]float64{
	"US": 1.0,
	"GB": 0.9,
	"CA": 0.85,
	"AU": 0.9,
	"DE": 0.85,
	"FR": 0.75,
	"ES": 0.6,
	"IT": 0.6,
	"IN": 0.2,
	"JP": 0.8,
	"BR": 0.3,
	"MX": 0.3,
	"AE": 0.7,
	"SG": 0.8,
}

var languageVolume = map[string]float64{
	"english":    1.0,
	"spanish":    0.8,
	"german":     0.7,
	"french":     0.7,
	"portuguese": 0.6,
	"italian":    0.5,
	"japanese":   0.6,
	"hindi":      0.5,
}

var languageCodes = map[string]string{
	"en": "english",
	"es": "spanish",
	"de": "german",
	"fr": "french",
	"pt": "portuguese",
	"it": "italian",
	"ja": "japanese",
	"hi": "hindi",
}

const (
	unknownCountryVolume = 0.15
	unknownCountryCPC    = 0.5
	unknownLanguage      = 0.5
)

// CountryCode resolves a country name or code to an upper-case ISO code.
// Empty input resolves to "US"; unknown names are returned upper-cased.
func CountryCode(country string) string {
	c := strings.ToLower(strings.TrimSpace(country))
	if c == "" {
		return "US"
	}
	if code, ok := countryNames[c]; ok {
		return code
	}
	return strings.ToUpper(c)
}

// LanguageCode resolves a language name or code to a two-letter code, "en" by default
func LanguageCode(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if _, ok := languageCodes[l]; ok {
		return l
	}
	for code, name := range languageCodes {
		if name == l {
			return code
		}
	}
	return "en"
}

func countryMultipliers(country string) (volume, cpc float64) {
	code := CountryCode(country)
	volume, ok := countryVolume[code]
	if !ok {
		volume = unknownCountryVolume
	}
	cpc, ok = countryCPC[code]
	if !ok {
		cpc = unknownCountryCPC
	}
	return volume, cpc
}

func languageMultiplier(language string) float64 {
	l := strings.ToLower(strings.TrimSpace(language))
	if l == "" {
		return 1.0
	}
	if name, ok := languageCodes[l]; ok {
		l = name
	}
	if m, ok := languageVolume[l]; ok {
		return m
	}
	return unknownLanguage
}
