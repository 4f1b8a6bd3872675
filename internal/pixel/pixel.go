// Package pixel defines the closed set of pixel encodings the compositor
// understands and the blend/serialize operations each one supports. A
// Format is a tagged variant carrying its own clear value, blend rule, and
// wire encoding; the compositor is generic over Format and never downcasts.
package pixel

import "github.com/mekolabs/sortlast/internal/config"

// Pixel is a decoded pixel value wide enough to represent any of the four
// encodings. A Format interprets the fields it cares about; fields unused
// by a given encoding are left zero.
type Pixel struct {
	R, G, B, A float64 // channel values in the format's native domain
	Depth      float64 // meaningful only for depth-bearing encodings
}

// Format is the interface every pixel encoding satisfies. Encode/Decode are
// the only place wire bytes are touched, and byte order is host order
// throughout (the compositor runs within one homogeneous cluster of
// goroutines; network-heterogeneous byte order is a future extension, not
// handled here).
type Format interface {
	// BytesPerPixel is the encoded size of one pixel.
	BytesPerPixel() int

	// OrderDependent reports whether Blend is non-commutative, i.e.
	// whether Blend(a, b) may differ from Blend(b, a).
	OrderDependent() bool

	// Clear returns this format's background value. It must be idempotent
	// under Blend with itself.
	Clear() Pixel

	// Blend combines two pixels. For order-dependent encodings, a is the
	// front (later, higher-rank) operand and b is the back operand.
	Blend(a, b Pixel) Pixel

	// Encode writes one pixel's native byte encoding into dst, which must
	// be at least BytesPerPixel() bytes long.
	Encode(p Pixel, dst []byte)

	// Decode reads one pixel from its native byte encoding. src must be at
	// least BytesPerPixel() bytes long.
	Decode(src []byte) Pixel
}

// New constructs the Format named by enc.
func New(enc config.Encoding) Format {
	switch enc {
	case config.EncodingUByteRGBADepth:
		return UByteRGBADepth{}
	case config.EncodingFloatRGBDepth:
		return FloatRGBDepth{}
	case config.EncodingUByteRGBA:
		return UByteRGBA{}
	case config.EncodingFloatRGBA:
		return FloatRGBA{}
	default:
		// The encoding selector is a closed enum; an unrecognized value is
		// a programming error in the caller, not a data-dependent failure.
		panic("pixel: unknown encoding")
	}
}

// EncodeRange encodes every pixel of src into dst, which must be at least
// len(src)*f.BytesPerPixel() bytes.
func EncodeRange(f Format, src []Pixel, dst []byte) {
	bpp := f.BytesPerPixel()
	for i, p := range src {
		f.Encode(p, dst[i*bpp:(i+1)*bpp])
	}
}

// DecodeRange decodes count pixels from src into dst.
func DecodeRange(f Format, src []byte, count int, dst []Pixel) {
	bpp := f.BytesPerPixel()
	for i := 0; i < count; i++ {
		dst[i] = f.Decode(src[i*bpp : (i+1)*bpp])
	}
}
