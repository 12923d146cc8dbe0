// Package agebin maps a child's age in months onto the fixed ordered set of
// developmental age bins. Bin boundaries are static configuration, not
// learned, and stay stable across the corpus, the trainer, and scoring.
package agebin

import "math"

// Unknown is the label for records without a usable age. It is never a
// training label.
const Unknown = "UNK"

// Labels is the ordered bin set. Index order is the tie-break order at
// prediction time.
var Labels = []string{"0yo", "1yo", "2yo", "3yo", "4yo", "5yo", "6yo_plus"}

// cutoffs[i] is the exclusive upper bound in months for Labels[i]; the last
// bin is open-ended.
var cutoffs = []float64{12, 24, 36, 48, 60, 72}

// midpoints[label] is the representative age in months, used for MAE in
// months.
var midpoints = map[string]float64{
	"0yo":      6,
	"1yo":      18,
	"2yo":      30,
	"3yo":      42,
	"4yo":      54,
	"5yo":      66,
	"6yo_plus": 78,
}

// FromMonths returns the bin label for an age in months. Negative or NaN
// ages yield Unknown.
func FromMonths(months float64) string {
	if months < 0 || math.IsNaN(months) {
		return Unknown
	}
	for i, cut := range cutoffs {
		if months < cut {
			return Labels[i]
		}
	}
	return Labels[len(Labels)-1]
}

// Index returns the position of label in the ordered bin set.
func Index(label string) (int, bool) {
	for i, l := range Labels {
		if l == label {
			return i, true
		}
	}
	return 0, false
}

// Midpoint returns the representative age in months for a bin label.
func Midpoint(label string) (float64, bool) {
	m, ok := midpoints[label]
	return m, ok
}
