package pixel

import (
	"encoding/binary"
	"math"

	"github.com/mekolabs/sortlast/internal/basics"
)

// UByteRGBADepth is the default encoding: 4x8-bit color plus a 32-bit float
// depth. Blending is z-less-wins (the smaller depth survives, ties go to a)
// and therefore commutative.
type UByteRGBADepth struct{}

func (UByteRGBADepth) BytesPerPixel() int   { return 4 + 4 }
func (UByteRGBADepth) OrderDependent() bool { return false }

func (UByteRGBADepth) Clear() Pixel {
	return Pixel{Depth: math.Inf(1)}
}

func (UByteRGBADepth) Blend(a, b Pixel) Pixel {
	if b.Depth < a.Depth {
		return b
	}
	return a
}

func (UByteRGBADepth) Encode(p Pixel, dst []byte) {
	dst[0] = basics.ClampByte(p.R)
	dst[1] = basics.ClampByte(p.G)
	dst[2] = basics.ClampByte(p.B)
	dst[3] = basics.ClampByte(p.A)
	binary.NativeEndian.PutUint32(dst[4:8], math.Float32bits(float32(p.Depth)))
}

func (UByteRGBADepth) Decode(src []byte) Pixel {
	return Pixel{
		R:     float64(src[0]),
		G:     float64(src[1]),
		B:     float64(src[2]),
		A:     float64(src[3]),
		Depth: float64(math.Float32frombits(binary.NativeEndian.Uint32(src[4:8]))),
	}
}
