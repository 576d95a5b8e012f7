// Package distance provides colour difference calculations.
//
// # Supported Metrics
//
//   - MetricCIEDE2000: perceptual ΔE00 in CIE L*a*b* (default)
//   - MetricEuclideanRGB: plain Euclidean distance on 8-bit sRGB channels
//
// CIEDE2000's hue term becomes numerically unstable for near-neutral,
// low-chroma colours, which is why callers comparing two light greys or whites
// fall back to MetricEuclideanRGB.
//
// # Usage
//
//	lab := distance.RGBToLab(200, 30, 40)
//	dE := distance.CIEDE2000(lab, distance.RGBToLab(190, 35, 45))
//	d := distance.EuclideanRGB(250, 250, 250, 255, 255, 255)
package distance
