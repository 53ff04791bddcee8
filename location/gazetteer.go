package location

import (
	"strings"
	"unicode"
)

// gazetteer maps known place names around Kisumu to their road distance
// in km from the shop. Distances are road distances, not straight-line,
// so no road factor is applied to a gazetteer hit.
var gazetteer = map[string]float64{
	"town":        1,
	"cbd":         1,
	"milimani":    2,
	"nyalenda":    3,
	"kondele":     4,
	"manyatta":    4,
	"dunga":       5,
	"tom mboya":   3,
	"migosi":      5,
	"otonglo":     7,
	"mamboleo":    8,
	"kibos":       9,
	"riat":        10,
	"kisian":      12,
	"rabuor":      14,
	"holo":        18,
	"ahero":       22,
	"maseno":      25,
	"kombewa":     30,
	"katito":      34,
	"vihiga":      38,
	"luanda":      40,
	"oyugis":      45,
	"kakamega":    50,
	"bondo":       60,
	"siaya":       65,
	"kendu bay":   70,
	"sondu":       42,
	"muhoroni":    50,
	"chemelil":    45,
	"awasi":       30,
	"paw akuche":  16,
}

// GazetteerLookup scans free text for a known place name. Matching is
// case-insensitive on word boundaries; when several names match, the
// longest wins so that a short name embedded in a longer one does not
// shadow it. Returns the canonical name, its road distance and whether
// anything matched.
func GazetteerLookup(text string) (string, float64, bool) {
	lowered := strings.ToLower(text)
	bestName := ""
	bestKm := 0.0
	for name, km := range gazetteer {
		if containsWord(lowered, name) && len(name) > len(bestName) {
			bestName = name
			bestKm = km
		}
	}
	if bestName == "" {
		return "", 0, false
	}
	return bestName, bestKm, true
}

// containsWord reports whether name occurs in text delimited by
// non-letter boundaries on both sides.
func containsWord(text, name string) bool {
	start := 0
	for {
		idx := strings.Index(text[start:], name)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(name)
		leftOK := idx == 0 || !isWordRune(rune(text[idx-1]))
		rightOK := end == len(text) || !isWordRune(rune(text[end]))
		if leftOK && rightOK {
			return true
		}
		start = idx + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
