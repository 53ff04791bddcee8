package location

import (
	"regexp"
	"strings"
)

// Directional filler that confuses geocoders into resolving the filler
// term itself ("on Kakamega road" geocodes to Kakamega town).
var (
	roadPhraseRe     = regexp.MustCompile(`(?i)\b(?:on|along|off)\s+[\w' ]+?\s+(?:road|rd|highway|hwy|bypass)\b`)
	towardsPhraseRe  = regexp.MustCompile(`(?i)\btowards?\s+\w+\b`)
	landmarkNoiseRe  = regexp.MustCompile(`(?i)\b(?:near|next to|opposite|behind|before|after|past)\b`)
	junctionNoiseRe  = regexp.MustCompile(`(?i)\b(?:junction|stage|stop|market|centre|center)\b`)
	spaceRe          = regexp.MustCompile(`\s+`)
	explicitKmRe     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:km|kms|kilometers?|kilometres?)\b`)
)

// StripRoadFiller removes "on X road" / "towards Y" phrases while
// keeping landmark names intact, so the gazetteer can still see them.
func StripRoadFiller(text string) string {
	out := roadPhraseRe.ReplaceAllString(text, " ")
	out = towardsPhraseRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(out, " "))
}

// NormalizeForGeocoder additionally drops landmark prepositions and
// junction/stage noise, leaving the place name the geocoder should see.
func NormalizeForGeocoder(text string) string {
	out := StripRoadFiller(text)
	out = landmarkNoiseRe.ReplaceAllString(out, " ")
	out = junctionNoiseRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(out, " "))
}

// ParseExplicitKm extracts a distance the customer stated directly,
// e.g. "about 12 km from town". Values outside a plausible range are
// rejected.
func ParseExplicitKm(text string) (float64, bool) {
	m := explicitKmRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	km, err := parseFloat(m[1])
	if err != nil {
		return 0, false
	}
	if km <= 0 || km > 300 {
		return 0, false
	}
	return km, true
}
