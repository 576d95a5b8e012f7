package distance

import (
	"fmt"
	"math"
)

// SquaredRGB returns the squared Euclidean distance between two 8-bit RGB colours.
func SquaredRGB(r1, g1, b1, r2, g2, b2 uint8) uint32 {
	dr := int32(r1) - int32(r2)
	dg := int32(g1) - int32(g2)
	db := int32(b1) - int32(b2)
	return uint32(dr*dr + dg*dg + db*db) //nolint:gosec // sum of squares is non-negative and < 2^18
}

// EuclideanRGB returns the Euclidean distance between two 8-bit RGB colours.
func EuclideanRGB(r1, g1, b1, r2, g2, b2 uint8) float64 {
	return math.Sqrt(float64(SquaredRGB(r1, g1, b1, r2, g2, b2)))
}

// Metric represents the distance metric used for colour comparison.
type Metric int

const (
	MetricCIEDE2000 Metric = iota
	MetricEuclideanRGB
)

func (m Metric) String() string {
	switch m {
	case MetricCIEDE2000:
		return "CIEDE2000"
	case MetricEuclideanRGB:
		return "EuclideanRGB"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation between two RGB colours.
type Func func(r1, g1, b1, r2, g2, b2 uint8) float64

// Perceptual returns the ΔE00 difference between two RGB colours.
func Perceptual(r1, g1, b1, r2, g2, b2 uint8) float64 {
	return CIEDE2000(RGBToLab(r1, g1, b1), RGBToLab(r2, g2, b2))
}

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricCIEDE2000:
		return Perceptual, nil
	case MetricEuclideanRGB:
		return EuclideanRGB, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
