package extraction

import (
	"regexp"
	"sort"
	"strings"
)

// Vocabulary holds the per-concept synonym tables the extractor matches
// against. Registry descriptions mix Devanagari and Latin script, so
// every concept carries terms in both; adding a script means adding
// terms here, not touching the extraction logic.
type Vocabulary struct {
	// UnitMarkers introduce the flat/building clause of a description.
	// Text before the first marker describes the plot or land parcel.
	UnitMarkers []string

	// TotalMarkers introduce an explicit aggregate area figure.
	TotalMarkers []string

	// ParkingTerms mark an area figure as parking, not living space.
	ParkingTerms []string

	// MetricUnits and ImperialUnits are the unit tokens that may follow
	// an area figure.
	MetricUnits   []string
	ImperialUnits []string
}

// DefaultVocabulary covers the Marathi/English blend seen in
// Maharashtra registry extracts.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		UnitMarkers: []string{
			"सदनिका", "फ्लॅट", "फ्लैट", "अपार्टमेंट", "टॉवर", "विंग", "गाळा", "युनिट",
			"flat", "apartment", "tower", "wing", "unit",
		},
		TotalMarkers: []string{
			"एकूण क्षेत्रफळ", "एकूण क्षेत्र", "एकंदर क्षेत्रफळ", "एकूण कार्पेट",
			"total area", "total carpet area", "aggregate area",
		},
		ParkingTerms: []string{
			"पार्किंग", "पार्कींग", "वाहनतळ",
			"parking", "car park",
		},
		MetricUnits: []string{
			"चौ.मीटर", "चौ.मी", "चौ.मि", "चौरस मीटर",
			"sq.mtrs", "sq.mtr", "sq.mts", "sq.mt", "sq.meters", "sq.meter", "sq.m",
			"square metres", "square metre", "square meters", "square meter",
		},
		ImperialUnits: []string{
			"चौ.फूट", "चौ.फुट", "चौरस फूट",
			"sq.feet", "sq.fts", "sq.ft", "sqft", "sq.foot",
			"square feet", "square foot",
		},
	}
}

// alternation builds a case-insensitive regexp fragment matching any of
// the terms. Dots and spaces inside a term are treated as optional and
// elastic, so "sq.mt" also matches "sq. mt" and "sq mt". Latin terms
// get word-boundary anchors so "wing" cannot match inside "following";
// \b is ASCII-only in RE2, so Devanagari terms go unanchored.
func alternation(terms []string) string {
	// Longest first, so "sq.mtrs" wins over its own "sq.m" prefix.
	sorted := make([]string, len(terms))
	copy(sorted, terms)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	parts := make([]string, 0, len(sorted))
	for _, term := range sorted {
		p := regexp.QuoteMeta(term)
		p = strings.ReplaceAll(p, `\.`, `\.?\s*`)
		p = strings.ReplaceAll(p, ` `, `\s*`)
		runes := []rune(term)
		if isASCIIWord(runes[0]) {
			p = `\b` + p
		}
		if isASCIIWord(runes[len(runes)-1]) {
			p = p + `\b`
		}
		parts = append(parts, p)
	}
	return "(?i:" + strings.Join(parts, "|") + ")"
}

func isASCIIWord(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}
