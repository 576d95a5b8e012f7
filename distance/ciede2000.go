package distance

import "math"

const (
	deg360 = 2 * math.Pi
	deg180 = math.Pi
	pow25  = 6103515625.0 // 25^7
)

func deg2Rad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

// CIEDE2000 returns the ΔE00 difference between two L*a*b* colours with the
// parametric weights kL = kC = kH = 1.
//
// The result is always finite and non-negative.
func CIEDE2000(lab1, lab2 Lab) float64 {
	const kL, kC, kH = 1.0, 1.0, 1.0

	// Step 1: C'ᵢ and h'ᵢ.
	c1 := math.Hypot(lab1.A, lab1.B)
	c2 := math.Hypot(lab2.A, lab2.B)
	barC := (c1 + c2) / 2.0
	barC7 := math.Pow(barC, 7)
	g := 0.5 * (1 - math.Sqrt(barC7/(barC7+pow25)))

	a1p := (1.0 + g) * lab1.A
	a2p := (1.0 + g) * lab2.A
	c1p := math.Hypot(a1p, lab1.B)
	c2p := math.Hypot(a2p, lab2.B)

	h1p := hueAngle(a1p, lab1.B)
	h2p := hueAngle(a2p, lab2.B)

	// Step 2: ΔL', ΔC', ΔH'.
	dLp := lab2.L - lab1.L
	dCp := c2p - c1p

	cpProduct := c1p * c2p
	var dhp float64
	if cpProduct != 0 {
		dhp = h2p - h1p
		if dhp < -deg180 {
			dhp += deg360
		} else if dhp > deg180 {
			dhp -= deg360
		}
	}
	dHp := 2.0 * math.Sqrt(cpProduct) * math.Sin(dhp/2.0)

	// Step 3: weighting functions.
	barLp := (lab1.L + lab2.L) / 2.0
	barCp := (c1p + c2p) / 2.0

	hSum := h1p + h2p
	var barhp float64
	switch {
	case cpProduct == 0:
		barhp = hSum
	case math.Abs(h1p-h2p) <= deg180:
		barhp = hSum / 2.0
	case hSum < deg360:
		barhp = (hSum + deg360) / 2.0
	default:
		barhp = (hSum - deg360) / 2.0
	}

	t := 1.0 -
		0.17*math.Cos(barhp-deg2Rad(30.0)) +
		0.24*math.Cos(2.0*barhp) +
		0.32*math.Cos(3.0*barhp+deg2Rad(6.0)) -
		0.20*math.Cos(4.0*barhp-deg2Rad(63.0))

	dTheta := deg2Rad(30.0) * math.Exp(-math.Pow((barhp-deg2Rad(275.0))/deg2Rad(25.0), 2.0))

	barCp7 := math.Pow(barCp, 7)
	rC := 2.0 * math.Sqrt(barCp7/(barCp7+pow25))

	lm50 := (barLp - 50.0) * (barLp - 50.0)
	sL := 1 + (0.015*lm50)/math.Sqrt(20+lm50)
	sC := 1 + 0.045*barCp
	sH := 1 + 0.015*barCp*t
	rT := -math.Sin(2.0*dTheta) * rC

	lTerm := dLp / (kL * sL)
	cTerm := dCp / (kC * sC)
	hTerm := dHp / (kH * sH)

	radicand := lTerm*lTerm + cTerm*cTerm + hTerm*hTerm + rT*cTerm*hTerm
	if radicand < 0 {
		radicand = 0
	}

	return math.Sqrt(radicand)
}

// hueAngle returns atan2(b, a') in [0, 2π); achromatic points map to 0.
func hueAngle(ap, b float64) float64 {
	if ap == 0 && b == 0 {
		return 0
	}
	h := math.Atan2(b, ap)
	if h < 0 {
		h += deg360
	}
	return h
}
