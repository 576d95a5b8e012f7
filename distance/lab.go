package distance

import "math"

// Lab is a colour in CIE L*a*b* space.
type Lab struct {
	L float64
	A float64
	B float64
}

// D65 reference white, scaled to Y = 100.
const (
	whiteX = 95.047
	whiteY = 100.000
	whiteZ = 108.883
)

const (
	labDelta  = 6.0 / 29.0
	labDelta3 = labDelta * labDelta * labDelta
)

// RGBToLab converts an 8-bit gamma-encoded sRGB colour to L*a*b* (D65).
func RGBToLab(r, g, b uint8) Lab {
	x, y, z := RGBToXYZ(r, g, b)
	return XYZToLab(x, y, z)
}

// RGBToXYZ converts an 8-bit sRGB colour to CIE XYZ scaled to Y = 100.
func RGBToXYZ(r, g, b uint8) (x, y, z float64) {
	rl := linearize(float64(r) / 255.0)
	gl := linearize(float64(g) / 255.0)
	bl := linearize(float64(b) / 255.0)

	x = (rl*0.4124564 + gl*0.3575761 + bl*0.1804375) * 100.0
	y = (rl*0.2126729 + gl*0.7151522 + bl*0.0721750) * 100.0
	z = (rl*0.0193339 + gl*0.1191920 + bl*0.9503041) * 100.0
	return x, y, z
}

// XYZToLab converts CIE XYZ (Y = 100 scale) to L*a*b* against the D65 white.
func XYZToLab(x, y, z float64) Lab {
	fx := labF(x / whiteX)
	fy := labF(y / whiteY)
	fz := labF(z / whiteZ)

	return Lab{
		L: 116.0*fy - 16.0,
		A: 500.0 * (fx - fy),
		B: 200.0 * (fy - fz),
	}
}

func linearize(v float64) float64 {
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}

func labF(t float64) float64 {
	if t > labDelta3 {
		return math.Cbrt(t)
	}
	return t/(3.0*labDelta*labDelta) + 4.0/29.0
}
