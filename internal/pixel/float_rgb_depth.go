package pixel

import (
	"encoding/binary"
	"math"
)

// FloatRGBDepth is 3x32-bit float color plus a 32-bit float depth, with no
// alpha channel. Blending is z-less-wins, same as UByteRGBADepth.
type FloatRGBDepth struct{}

func (FloatRGBDepth) BytesPerPixel() int   { return 3*4 + 4 }
func (FloatRGBDepth) OrderDependent() bool { return false }

func (FloatRGBDepth) Clear() Pixel {
	return Pixel{Depth: math.Inf(1)}
}

func (FloatRGBDepth) Blend(a, b Pixel) Pixel {
	if b.Depth < a.Depth {
		return b
	}
	return a
}

func (FloatRGBDepth) Encode(p Pixel, dst []byte) {
	binary.NativeEndian.PutUint32(dst[0:4], math.Float32bits(float32(p.R)))
	binary.NativeEndian.PutUint32(dst[4:8], math.Float32bits(float32(p.G)))
	binary.NativeEndian.PutUint32(dst[8:12], math.Float32bits(float32(p.B)))
	binary.NativeEndian.PutUint32(dst[12:16], math.Float32bits(float32(p.Depth)))
}

func (FloatRGBDepth) Decode(src []byte) Pixel {
	return Pixel{
		R:     float64(math.Float32frombits(binary.NativeEndian.Uint32(src[0:4]))),
		G:     float64(math.Float32frombits(binary.NativeEndian.Uint32(src[4:8]))),
		B:     float64(math.Float32frombits(binary.NativeEndian.Uint32(src[8:12]))),
		Depth: float64(math.Float32frombits(binary.NativeEndian.Uint32(src[12:16]))),
	}
}
