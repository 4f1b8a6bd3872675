package pixel

import (
	"encoding/binary"
	"math"

	"github.com/mekolabs/sortlast/internal/color"
)

// FloatRGBA is color-only (no depth): 4x32-bit premultiplied RGBA in
// [0, 1]. Blending is Porter-Duff "over", order-dependent like UByteRGBA.
type FloatRGBA struct{}

func (FloatRGBA) BytesPerPixel() int   { return 4 * 4 }
func (FloatRGBA) OrderDependent() bool { return true }

func (FloatRGBA) Clear() Pixel {
	return Pixel{}
}

func (FloatRGBA) Blend(a, b Pixel) Pixel {
	out := color.Over(toRGBAf(a), toRGBAf(b)).Clamp01()
	return fromRGBAf(out)
}

func (FloatRGBA) Encode(p Pixel, dst []byte) {
	binary.NativeEndian.PutUint32(dst[0:4], math.Float32bits(float32(p.R)))
	binary.NativeEndian.PutUint32(dst[4:8], math.Float32bits(float32(p.G)))
	binary.NativeEndian.PutUint32(dst[8:12], math.Float32bits(float32(p.B)))
	binary.NativeEndian.PutUint32(dst[12:16], math.Float32bits(float32(p.A)))
}

func (FloatRGBA) Decode(src []byte) Pixel {
	return Pixel{
		R: float64(math.Float32frombits(binary.NativeEndian.Uint32(src[0:4]))),
		G: float64(math.Float32frombits(binary.NativeEndian.Uint32(src[4:8]))),
		B: float64(math.Float32frombits(binary.NativeEndian.Uint32(src[8:12]))),
		A: float64(math.Float32frombits(binary.NativeEndian.Uint32(src[12:16]))),
	}
}

func toRGBAf(p Pixel) color.RGBAf {
	return color.RGBAf{R: p.R, G: p.G, B: p.B, A: p.A}
}

func fromRGBAf(c color.RGBAf) Pixel {
	return Pixel{R: c.R, G: c.G, B: c.B, A: c.A}
}
