package colormatch

import (
	"fmt"

	"github.com/hupe1980/colormatch/catalog"
)

// Strategy is the search backend answering matches.
type Strategy uint8

const (
	// StrategyIndex answers from the in-memory spatial index.
	StrategyIndex Strategy = iota
	// StrategyFallback scans the catalog stream on every cache miss.
	StrategyFallback
	// StrategyEmergency answers from the built-in palette.
	StrategyEmergency
)

func (s Strategy) String() string {
	switch s {
	case StrategyIndex:
		return "index"
	case StrategyFallback:
		return "fallback"
	case StrategyEmergency:
		return "emergency"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Quality grades a match by its ΔE00 distance.
type Quality uint8

const (
	QualityExcellent Quality = iota // ΔE00 < 1, not perceptible
	QualityGood                     // ΔE00 < 3
	QualityFair                     // ΔE00 < 6
	QualityPoor
)

// GradeDistance returns the quality of a ΔE00 distance.
func GradeDistance(deltaE float64) Quality {
	switch {
	case deltaE < 1:
		return QualityExcellent
	case deltaE < 3:
		return QualityGood
	case deltaE < 6:
		return QualityFair
	default:
		return QualityPoor
	}
}

func (q Quality) String() string {
	switch q {
	case QualityExcellent:
		return "excellent"
	case QualityGood:
		return "good"
	case QualityFair:
		return "fair"
	case QualityPoor:
		return "poor"
	default:
		return fmt.Sprintf("Unknown(%d)", q)
	}
}

// Result is the answer to one Match call.
type Result struct {
	// Label is "Name (Code)", or Name when the record has no code.
	Label  string
	Record catalog.Record
	// Distance is the ΔE00 difference between the reading and the record,
	// whatever metric the backend searched with.
	Distance float64
	Quality  Quality
	Strategy Strategy
}

// Classify names the broad colour family of a reading. It is the last
// resort when no catalog at all is available.
func Classify(r, g, b uint8) string {
	switch {
	case r > 200 && g > 200 && b > 200:
		return "Light Color"
	case r < 50 && g < 50 && b < 50:
		return "Dark Color"
	case r > g && r > b:
		return "Red Tone"
	case g > r && g > b:
		return "Green Tone"
	case b > r && b > g:
		return "Blue Tone"
	default:
		return "Mixed Color"
	}
}

// EmergencyPalette returns the built-in palette used by WithEmergencyPalette.
func EmergencyPalette() []catalog.Record {
	return []catalog.Record{
		{Name: "Pure Brilliant White", Code: "10BB83", R: 255, G: 255, B: 255, LRVScaled: 8900, ID: 1},
		{Name: "Natural White", Code: "10BB31", R: 252, G: 251, B: 247, LRVScaled: 8500, ID: 2},
		{Name: "Antique White", Code: "20YY83", R: 248, G: 243, B: 234, LRVScaled: 8200, ID: 3},
		{Name: "Light Grey", Code: "00NN79", R: 200, G: 200, B: 200, LRVScaled: 6500, ID: 4},
		{Name: "Medium Grey", Code: "00NN53", R: 135, G: 135, B: 135, LRVScaled: 3500, ID: 5},
		{Name: "Charcoal", Code: "00NN21", R: 54, G: 54, B: 54, LRVScaled: 800, ID: 6},
		{Name: "Pure Black", Code: "00NN05", R: 13, G: 13, B: 13, LRVScaled: 200, ID: 7},
		{Name: "Bright Red", Code: "10YR68", R: 218, G: 59, B: 59, LRVScaled: 2500, ID: 8},
		{Name: "Forest Green", Code: "30GY25", R: 34, G: 102, B: 34, LRVScaled: 1500, ID: 9},
		{Name: "Sky Blue", Code: "70BG65", R: 135, G: 206, B: 235, LRVScaled: 5500, ID: 10},
	}
}
