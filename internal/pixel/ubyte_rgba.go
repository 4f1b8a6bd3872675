package pixel

import (
	"github.com/mekolabs/sortlast/internal/basics"
	"github.com/mekolabs/sortlast/internal/color"
)

// UByteRGBA is color-only (no depth): 4x8-bit premultiplied RGBA. Blending
// is Porter-Duff "over" and is therefore order-dependent: the painter must
// present triangles back-to-front, and the compositor's binary-swap rounds
// treat the lower rank as back (see internal/compositor).
//
// Pixel channels here are stored in the 0-255 domain but, unlike the depth
// encodings, are premultiplied by alpha so that Blend composes associatively
// across repeated rounds.
type UByteRGBA struct{}

func (UByteRGBA) BytesPerPixel() int   { return 4 }
func (UByteRGBA) OrderDependent() bool { return true }

func (UByteRGBA) Clear() Pixel {
	return Pixel{}
}

func (UByteRGBA) Blend(a, b Pixel) Pixel {
	out := color.Over(toRGBAf255(a), toRGBAf255(b))
	return fromRGBAf255(out)
}

func (UByteRGBA) Encode(p Pixel, dst []byte) {
	dst[0] = basics.ClampByte(p.R)
	dst[1] = basics.ClampByte(p.G)
	dst[2] = basics.ClampByte(p.B)
	dst[3] = basics.ClampByte(p.A)
}

func (UByteRGBA) Decode(src []byte) Pixel {
	return Pixel{R: float64(src[0]), G: float64(src[1]), B: float64(src[2]), A: float64(src[3])}
}

func toRGBAf255(p Pixel) color.RGBAf {
	const scale = 1.0 / 255.0
	return color.RGBAf{R: p.R * scale, G: p.G * scale, B: p.B * scale, A: p.A * scale}
}

func fromRGBAf255(c color.RGBAf) Pixel {
	r, g, b, a := c.ToBytes()
	return Pixel{R: float64(r), G: float64(g), B: float64(b), A: float64(a)}
}
