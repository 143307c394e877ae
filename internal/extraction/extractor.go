package extraction

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"propdash/server/internal/units"
)

// Options are the tunable parameters of the extraction algorithm. The
// observed registry variants disagree on the exact numbers, so they are
// configuration rather than constants.
type Options struct {
	// MinPlausibleSqm / MaxPlausibleSqm bound what counts as a single
	// residential sub-area. Figures above the ceiling are land parcels
	// that survived narrowing; figures below the floor are noise.
	MinPlausibleSqm float64
	MaxPlausibleSqm float64

	// TotalToleranceSqm is the absolute slack allowed when deciding that
	// the largest figure merely restates the sum of the others.
	TotalToleranceSqm float64

	// ParkingWindowRunes is how far (in runes) a parking term may sit
	// from an area figure and still disqualify it.
	ParkingWindowRunes int
}

// DefaultOptions returns the defaults used across batch runs.
func DefaultOptions() Options {
	return Options{
		MinPlausibleSqm:    1,
		MaxPlausibleSqm:    650,
		TotalToleranceSqm:  1.0,
		ParkingWindowRunes: 40,
	}
}

// strategy attempts one way of reading an area out of the narrowed
// text. The first strategy to succeed wins.
type strategy func(text string) (float64, bool)

// Extractor parses free-text property descriptions into a carpet area
// in square meters. It is pure and safe for concurrent use.
type Extractor struct {
	opts       Options
	narrowRe   *regexp.Regexp
	parkingRe  *regexp.Regexp
	strategies []strategy
}

var (
	numberGroup = `(\d+(?:\.\d+)?)`
	wsRe        = regexp.MustCompile(`\s+`)
	thousandsRe = regexp.MustCompile(`(\d),(\d)`)
)

// NewExtractor compiles the vocabulary into the matching machinery.
func NewExtractor(vocab Vocabulary, opts Options) *Extractor {
	metricUnit := alternation(vocab.MetricUnits)
	imperialUnit := alternation(vocab.ImperialUnits)
	totalMarker := alternation(vocab.TotalMarkers)

	metricValueRe := regexp.MustCompile(numberGroup + `\s*` + metricUnit)
	imperialValueRe := regexp.MustCompile(numberGroup + `\s*` + imperialUnit)
	metricTotalRe := regexp.MustCompile(totalMarker + `\D{0,40}?` + numberGroup + `\s*` + metricUnit)
	imperialTotalRe := regexp.MustCompile(totalMarker + `\D{0,40}?` + numberGroup + `\s*` + imperialUnit)

	e := &Extractor{
		opts:      opts,
		narrowRe:  regexp.MustCompile(alternation(vocab.UnitMarkers)),
		parkingRe: regexp.MustCompile(alternation(vocab.ParkingTerms)),
	}

	identity := func(v float64) float64 { return v }
	e.strategies = []strategy{
		func(text string) (float64, bool) { return e.statedTotal(text, metricTotalRe, identity) },
		func(text string) (float64, bool) { return e.sumComponents(text, metricValueRe, identity) },
		func(text string) (float64, bool) { return e.statedTotal(text, imperialTotalRe, units.SqftToSqm) },
		func(text string) (float64, bool) { return e.sumComponents(text, imperialValueRe, units.SqftToSqm) },
	}
	return e
}

// Extract returns the carpet area in square meters, or 0.0 when no
// plausible area can be determined. It never fails: malformed text
// degrades to the zero sentinel.
func (e *Extractor) Extract(description string) float64 {
	text := normalize(description)
	if text == "" {
		return 0
	}

	// Descriptions sometimes put the marker after the figures
	// ("72 sq.mt flat"); when the narrowed tail holds no figures at
	// all, retry against the full text. The plausibility bounds still
	// keep land parcels out on that second pass.
	narrowed := e.narrow(text)
	if v, ok := e.run(narrowed); ok {
		return v
	}
	if narrowed != text {
		if v, ok := e.run(text); ok {
			return v
		}
	}
	return 0
}

func (e *Extractor) run(text string) (float64, bool) {
	for _, try := range e.strategies {
		if v, ok := try(text); ok {
			return v, true
		}
	}
	return 0, false
}

// normalize collapses whitespace and strips thousands separators so
// "13,600" parses as one number.
func normalize(s string) string {
	s = wsRe.ReplaceAllString(strings.TrimSpace(s), " ")
	return thousandsRe.ReplaceAllString(s, "$1$2")
}

// narrow drops everything before the first flat/building marker. The
// leading clauses of a registry description cover the plot and survey
// numbers; area figures there are land, not the unit.
func (e *Extractor) narrow(text string) string {
	if loc := e.narrowRe.FindStringIndex(text); loc != nil {
		return text[loc[0]:]
	}
	return text
}

// statedTotal looks for an explicit total-area phrase. An explicit,
// plausible total is the strongest signal and is returned as-is; the
// first phrase in textual order wins.
func (e *Extractor) statedTotal(text string, re *regexp.Regexp, toSqm func(float64) float64) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	sqm := toSqm(v)
	if sqm < e.opts.MinPlausibleSqm || sqm > e.opts.MaxPlausibleSqm {
		return 0, false
	}
	return sqm, true
}

// sumComponents collects every remaining (number, unit) occurrence,
// drops parking figures and implausible values, de-duplicates a
// restated total, and sums what is left.
func (e *Extractor) sumComponents(text string, re *regexp.Regexp, toSqm func(float64) float64) (float64, bool) {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return 0, false
	}
	excluded := e.parkingExclusions(text, matches)

	var vals []float64
	for i, m := range matches {
		if excluded[i] {
			continue
		}
		v, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
		if err != nil {
			continue
		}
		sqm := toSqm(v)
		if sqm < e.opts.MinPlausibleSqm || sqm > e.opts.MaxPlausibleSqm {
			continue
		}
		vals = append(vals, sqm)
	}
	if len(vals) == 0 {
		return 0, false
	}
	return resolveComponents(vals, e.opts.TotalToleranceSqm), true
}

// attachedGapRunes is how close a trailing parking term must sit to a
// figure's unit token to claim it ("45 sq.mt parking").
const attachedGapRunes = 5

// parkingExclusions resolves which area figures belong to a parking
// mention. A parking term claims the first figure that follows it
// within the window ("पार्किंग 12.5 चौ.मी"), or, failing that, the
// figure whose unit token it directly trails ("45 sq.mt parking"). A
// parking mention with no figure of its own ("together with one car
// park") describes an amenity and claims nothing.
func (e *Extractor) parkingExclusions(text string, matches [][]int) map[int]bool {
	excluded := make(map[int]bool)
	for _, p := range e.parkingRe.FindAllStringIndex(text, -1) {
		if i := e.figureAfter(text, p, matches); i >= 0 {
			excluded[i] = true
			continue
		}
		if i := e.figureJustBefore(text, p, matches); i >= 0 {
			excluded[i] = true
		}
	}
	return excluded
}

// figureAfter returns the index of the first figure following the
// parking span, if it falls inside the window, else -1.
func (e *Extractor) figureAfter(text string, p []int, matches [][]int) int {
	for i, m := range matches {
		if m[0] >= p[1] {
			if runeGap(text, p, m[:2]) <= e.opts.ParkingWindowRunes {
				return i
			}
			return -1
		}
	}
	return -1
}

// figureJustBefore returns the index of the last figure preceding the
// parking span, but only when the parking term sits directly against
// its unit token.
func (e *Extractor) figureJustBefore(text string, p []int, matches [][]int) int {
	for i := len(matches) - 1; i >= 0; i-- {
		if matches[i][1] <= p[0] {
			if runeGap(text, p, matches[i][:2]) <= attachedGapRunes {
				return i
			}
			return -1
		}
	}
	return -1
}

// runeGap is the distance in runes between two byte-offset spans, 0 if
// they overlap.
func runeGap(text string, a, b []int) int {
	switch {
	case a[1] <= b[0]:
		return utf8.RuneCountInString(text[a[1]:b[0]])
	case b[1] <= a[0]:
		return utf8.RuneCountInString(text[b[1]:a[0]])
	default:
		return 0
	}
}

// resolveComponents returns the single figure when the largest value
// restates the sum of the rest (itemized components followed by their
// total), and the plain sum otherwise (carpet + balcony + terrace add
// up).
func resolveComponents(vals []float64, tolerance float64) float64 {
	if len(vals) == 1 {
		return vals[0]
	}
	largest, sum := vals[0], 0.0
	for _, v := range vals {
		sum += v
		if v > largest {
			largest = v
		}
	}
	if rest := sum - largest; math.Abs(largest-rest) <= tolerance {
		return largest
	}
	return sum
}
