// Package imagebuf implements the Image Buffer component: a rectangular
// window of pixels plus the half-open region [RegionBegin, RegionEnd) that
// was actually touched by rasterization. Pixels outside the region are
// logically the format's clear value and are never stored.
package imagebuf

import (
	"strconv"

	"github.com/mekolabs/sortlast/internal/cerr"
	"github.com/mekolabs/sortlast/internal/pixel"
)

// Image is a disjoint or full-screen window of one framebuffer. It is
// mutated in place while a rank paints it, and treated as immutable once
// handed to a compositor, which constructs new Images for intermediate
// results rather than mutating its inputs.
type Image struct {
	Width, Height          int
	RegionBegin, RegionEnd int
	Format                 pixel.Format
	Pixels                 []byte // len == (RegionEnd-RegionBegin) * Format.BytesPerPixel(), native encoding
}

// New allocates an Image over [begin, end), with every pixel initialized to
// the format's clear value.
func New(width, height, begin, end int, f pixel.Format) (*Image, error) {
	if begin < 0 || end < begin || end > width*height {
		return nil, cerr.New("imagebuf.New", cerr.ErrInvalidRegion, errRegionMsg(width, height, begin, end))
	}
	img := &Image{
		Width:       width,
		Height:      height,
		RegionBegin: begin,
		RegionEnd:   end,
		Format:      f,
		Pixels:      make([]byte, (end-begin)*f.BytesPerPixel()),
	}
	img.Clear()
	return img, nil
}

// Clear resets every stored pixel to the format's clear value.
func (img *Image) Clear() {
	clear := img.Format.Clear()
	bpp := img.Format.BytesPerPixel()
	clearBytes := make([]byte, bpp)
	img.Format.Encode(clear, clearBytes)
	for i := 0; i < img.count(); i++ {
		copy(img.Pixels[i*bpp:(i+1)*bpp], clearBytes)
	}
}

func (img *Image) count() int {
	return img.RegionEnd - img.RegionBegin
}

func (img *Image) sameShape(other *Image) error {
	if img.Width != other.Width || img.Height != other.Height || img.Format.BytesPerPixel() != other.Format.BytesPerPixel() || img.Format.OrderDependent() != other.Format.OrderDependent() {
		return cerr.New("imagebuf.BlendOver", cerr.ErrIncompatibleImages, "dimensions or encoding differ")
	}
	return nil
}

// BlendOver blends other into img over the intersection of their regions
// and stores the result in img; pixels outside the intersection are left
// unchanged in img. img is the front (a) operand and other the back (b),
// per the back-to-front rank convention order-dependent encodings rely on.
func (img *Image) BlendOver(other *Image) error {
	if err := img.sameShape(other); err != nil {
		return err
	}
	lo := max(img.RegionBegin, other.RegionBegin)
	hi := min(img.RegionEnd, other.RegionEnd)
	for i := lo; i < hi; i++ {
		a := img.Format.Decode(img.pixelBytes(i))
		b := other.Format.Decode(other.pixelBytes(i))
		out := img.Format.Blend(a, b)
		img.Format.Encode(out, img.pixelBytes(i))
	}
	return nil
}

func (img *Image) pixelBytes(index int) []byte {
	bpp := img.Format.BytesPerPixel()
	off := (index - img.RegionBegin) * bpp
	return img.Pixels[off : off+bpp]
}

// Subset returns a new Image covering [begin, end) ∩ [img.RegionBegin,
// img.RegionEnd). The returned Image owns a fresh copy of the overlapping
// bytes; it never aliases img's backing storage, so the two can be handed
// to different goroutines (e.g. the kept half and the sent half of a
// binary-swap round) without synchronization.
func (img *Image) Subset(begin, end int) (*Image, error) {
	lo := max(begin, img.RegionBegin)
	hi := min(end, img.RegionEnd)
	if hi < lo {
		hi = lo
	}
	out, err := New(img.Width, img.Height, lo, hi, img.Format)
	if err != nil {
		return nil, err
	}
	bpp := img.Format.BytesPerPixel()
	srcOff := (lo - img.RegionBegin) * bpp
	copy(out.Pixels, img.Pixels[srcOff:srcOff+(hi-lo)*bpp])
	return out, nil
}

// Overwrite copies previously serialized bytes for [begin, end) into img's
// backing storage at the matching offset. Used by the gather collective to
// assemble a full-frame image out of strips received from other ranks.
func (img *Image) Overwrite(begin, end int, data []byte) error {
	if begin < img.RegionBegin || end > img.RegionEnd {
		return cerr.New("imagebuf.Overwrite", cerr.ErrInvalidRegion, errRegionMsg(img.Width, img.Height, begin, end))
	}
	bpp := img.Format.BytesPerPixel()
	if len(data) != (end-begin)*bpp {
		return cerr.New("imagebuf.Overwrite", cerr.ErrInvalidRegion, "payload length does not match region size")
	}
	off := (begin - img.RegionBegin) * bpp
	copy(img.Pixels[off:off+len(data)], data)
	return nil
}

// Serialize returns the image's pixel bytes exactly as stored. Decoding
// these bytes with Deserialize (or Format.Decode directly) reproduces the
// same pixels bit for bit.
func (img *Image) Serialize() []byte {
	out := make([]byte, len(img.Pixels))
	copy(out, img.Pixels)
	return out
}

// Deserialize builds an Image over [begin, end) from previously serialized
// bytes, which must be exactly (end-begin)*f.BytesPerPixel() long.
func Deserialize(data []byte, width, height, begin, end int, f pixel.Format) (*Image, error) {
	img, err := New(width, height, begin, end, f)
	if err != nil {
		return nil, err
	}
	if len(data) != len(img.Pixels) {
		return nil, cerr.New("imagebuf.Deserialize", cerr.ErrInvalidRegion, "payload length does not match region size")
	}
	copy(img.Pixels, data)
	return img, nil
}

func errRegionMsg(width, height, begin, end int) string {
	i := strconv.Itoa
	return "region [" + i(begin) + "," + i(end) + ") invalid for " + i(width) + "x" + i(height)
}
