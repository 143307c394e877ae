package classification

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when classification parameters are
// rejected (non-ascending thresholds, loading factor below 1.0).
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Configuration labels. LabelNA is reserved for a zero/unknown area and
// never overlaps with the area bands.
const (
	LabelNA       = "N/A"
	LabelOneBHK   = "1 BHK"
	LabelTwoBHK   = "2 BHK"
	LabelThreeBHK = "3 BHK"
	LabelTopBand  = "4+ BHK / Duplex"
)

// Thresholds are the three ascending cutoffs, in square feet, that
// separate the configuration bands.
type Thresholds struct {
	OneToTwo   float64 `json:"one_to_two"`
	TwoToThree float64 `json:"two_to_three"`
	ThreeToTop float64 `json:"three_to_top"`
}

// Validate rejects thresholds that are not strictly ascending positive
// numbers. An inverted triple would silently collapse bands, so it is
// treated as a contract violation rather than classified through.
func (t Thresholds) Validate() error {
	if t.OneToTwo <= 0 {
		return fmt.Errorf("%w: thresholds must be positive, got t1=%.2f", ErrInvalidConfiguration, t.OneToTwo)
	}
	if t.OneToTwo >= t.TwoToThree || t.TwoToThree >= t.ThreeToTop {
		return fmt.Errorf("%w: thresholds must be strictly ascending, got (%.2f, %.2f, %.2f)",
			ErrInvalidConfiguration, t.OneToTwo, t.TwoToThree, t.ThreeToTop)
	}
	return nil
}

// Classify maps a carpet area in square feet to a configuration label.
// Bands are half-open on the upper threshold: an area exactly equal to a
// cutoff belongs to the next band up. A zero area means the area could
// not be determined and maps to LabelNA.
func Classify(areaSqft float64, t Thresholds) string {
	switch {
	case areaSqft == 0:
		return LabelNA
	case areaSqft < t.OneToTwo:
		return LabelOneBHK
	case areaSqft < t.TwoToThree:
		return LabelTwoBHK
	case areaSqft < t.ThreeToTop:
		return LabelThreeBHK
	default:
		return LabelTopBand
	}
}
