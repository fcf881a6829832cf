package led

// QAdd8 adds a and b, saturating at 255.
func QAdd8(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

// QSub8 subtracts b from a, saturating at 0.
func QSub8(a, b uint8) uint8 {
	if b > a {
		return 0
	}
	return a - b
}

// Scale8 scales v by s/256, treating 255 as identity.
func Scale8(v, s uint8) uint8 {
	return uint8((uint16(v) * (1 + uint16(s))) >> 8)
}

// Lerp8 blends a towards b by frac/256. A frac of 0 returns a.
func Lerp8(a, b, frac uint8) uint8 {
	if b > a {
		return a + Scale8(b-a, frac)
	}
	return a - Scale8(a-b, frac)
}

// Unit8 converts a fraction in [0, 1] into 0..255. Values out of range and
// NaN are clamped.
func Unit8(f float64) uint8 {
	switch {
	case f != f || f <= 0:
		return 0
	case f >= 1:
		return 255
	default:
		return uint8(f*255 + 0.5)
	}
}
