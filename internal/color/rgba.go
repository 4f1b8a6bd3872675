// Package color provides the premultiplied-alpha color arithmetic shared by
// the color-only pixel encodings in internal/pixel.
package color

import "math"

// RGBAf is a premultiplied RGBA color with channels in [0, 1]. Premultiplied
// storage is what makes the "over" operator below associative, which is the
// property the order-dependent encodings rely on when folding more than two
// ranks' contributions together a round at a time.
type RGBAf struct {
	R, G, B, A float64
}

// Over composites a over b, both premultiplied, per the Porter-Duff "over"
// rule. a is the front (later-painted, higher-rank) operand.
func Over(a, b RGBAf) RGBAf {
	inv := 1 - a.A
	return RGBAf{
		R: a.R + b.R*inv,
		G: a.G + b.G*inv,
		B: a.B + b.B*inv,
		A: a.A + b.A*inv,
	}
}

// FromBytes scales four 0-255 channel bytes into an RGBAf with channels in
// [0, 1]. It does not premultiply; the bytes are taken as they are.
func FromBytes(r, g, b, a uint8) RGBAf {
	const scale = 1.0 / 255.0
	return RGBAf{
		R: float64(r) * scale,
		G: float64(g) * scale,
		B: float64(b) * scale,
		A: float64(a) * scale,
	}
}

// ToBytes rounds an RGBAf to four 0-255 channel bytes, clamping against
// accumulated floating point drift from repeated Over calls.
func (c RGBAf) ToBytes() (r, g, b, a uint8) {
	return round255(c.R), round255(c.G), round255(c.B), round255(c.A)
}

func round255(v float64) uint8 {
	v = v*255.0 + 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Clamp01 clamps a channel to [0, 1], guarding against drift in the float
// encoding where Over is applied directly without a byte round trip.
func (c RGBAf) Clamp01() RGBAf {
	return RGBAf{clamp(c.R), clamp(c.G), clamp(c.B), clamp(c.A)}
}

func clamp(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
