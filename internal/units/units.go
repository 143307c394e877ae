package units

// SqftPerSqm is the fixed conversion ratio between square meters and
// square feet. Extraction and reporting must share this constant so a
// value round-tripped through both conversions only moves by rounding
// error at display precision.
const SqftPerSqm = 10.764

// SqmToSqft converts square meters to square feet.
func SqmToSqft(sqm float64) float64 {
	return sqm * SqftPerSqm
}

// SqftToSqm converts square feet to square meters.
func SqftToSqm(sqft float64) float64 {
	return sqft / SqftPerSqm
}
