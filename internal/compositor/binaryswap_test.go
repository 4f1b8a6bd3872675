package compositor

import (
	"context"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/mekolabs/sortlast/internal/comm"
	"github.com/mekolabs/sortlast/internal/imagebuf"
	"github.com/mekolabs/sortlast/internal/pixel"
)

// pixelBytes is a test-local stand-in for imagebuf's unexported accessor
// of the same name: the byte slice for absolute pixel index i within an
// image's stored region.
func pixelBytes(img *imagebuf.Image, i int) []byte {
	bpp := img.Format.BytesPerPixel()
	off := (i - img.RegionBegin) * bpp
	return img.Pixels[off : off+bpp]
}

// runCompose spawns one goroutine per rank, each composing locals[r]
// through New(group[r], Options{}), and returns the per-rank results in
// rank order.
func runCompose(t *testing.T, locals []*imagebuf.Image) []*imagebuf.Image {
	t.Helper()
	size := len(locals)
	group := comm.NewGroup(size)
	results := make([]*imagebuf.Image, size)

	g, ctx := errgroup.WithContext(context.Background())
	for r := 0; r < size; r++ {
		r := r
		g.Go(func() error {
			c, err := New(group[r], Options{})
			if err != nil {
				return err
			}
			out, err := c.Compose(ctx, locals[r])
			if err != nil {
				return err
			}
			results[r] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	return results
}

func TestScenarioS2(t *testing.T) {
	f := pixel.UByteRGBADepth{}
	a, _ := imagebuf.New(2, 2, 0, 4, f)
	f.Encode(pixel.Pixel{R: 255, A: 255, Depth: 0.3}, pixelBytes(a, 0))
	f.Encode(pixel.Pixel{G: 255, A: 255, Depth: 0.8}, pixelBytes(a, 3))

	b, _ := imagebuf.New(2, 2, 0, 4, f)
	f.Encode(pixel.Pixel{B: 255, A: 255, Depth: 0.7}, pixelBytes(b, 0))
	f.Encode(pixel.Pixel{G: 255, A: 255, Depth: 0.2}, pixelBytes(b, 3))

	results := runCompose(t, []*imagebuf.Image{a, b})

	strip0, strip1 := results[0], results[1]
	if strip0.RegionBegin != 0 || strip0.RegionEnd != 2 {
		t.Fatalf("rank0 region = [%d,%d), want [0,2)", strip0.RegionBegin, strip0.RegionEnd)
	}
	if strip1.RegionBegin != 2 || strip1.RegionEnd != 4 {
		t.Fatalf("rank1 region = [%d,%d), want [2,4)", strip1.RegionBegin, strip1.RegionEnd)
	}

	p0 := f.Decode(pixelBytes(strip0, 0))
	// Depth is stored as float32, so compare against the float32 value.
	if p0.R != 255 || p0.Depth != float64(float32(0.3)) {
		t.Errorf("pixel 0 = %+v, want red@0.3", p0)
	}
	p3 := f.Decode(pixelBytes(strip1, 3))
	if p3.G != 255 || p3.Depth != float64(float32(0.2)) {
		t.Errorf("pixel 3 = %+v, want green@0.2", p3)
	}
}

// TestScenarioS3BinarySwap reproduces S3 through the full BinarySwap
// collective rather than calling pixel.Blend directly: rank 0 (back)
// paints premultiplied (255,0,0,128), rank 1 (front) paints premultiplied
// (0,0,255,128), w=2,h=1, UByteRGBA color-only.
func TestScenarioS3BinarySwap(t *testing.T) {
	f := pixel.UByteRGBA{}
	premul := func(r, g, b, a float64) pixel.Pixel {
		return pixel.Pixel{R: r * a / 255, G: g * a / 255, B: b * a / 255, A: a}
	}

	back, _ := imagebuf.New(2, 1, 0, 2, f)
	f.Encode(premul(255, 0, 0, 128), pixelBytes(back, 0))

	front, _ := imagebuf.New(2, 1, 0, 2, f)
	f.Encode(premul(0, 0, 255, 128), pixelBytes(front, 0))

	results := runCompose(t, []*imagebuf.Image{back, front})

	p0 := f.Decode(pixelBytes(results[0], 0))
	if p0.R != 64 || p0.G != 0 || p0.B != 128 || p0.A != 192 {
		t.Errorf("rank0 strip pixel 0 = %+v, want (64,0,128,192)", p0)
	}
}

// TestScenarioS4FourRanksQuadrants: w=8,h=8 FloatRGB+Depth, each rank
// paints a distinct quadrant in a full-screen local image, others clear.
// After compose each rank holds a 16-pixel strip of the 64-pixel frame.
// Pairing r with r XOR 2^k and keeping the low half on the low rank leaves
// ranks 0,1,2,3 with strips 0,2,1,3.
func TestScenarioS4FourRanksQuadrants(t *testing.T) {
	locals := buildS4Locals(t)
	results := runCompose(t, locals)

	f := pixel.FloatRGBDepth{}
	stripOf := []int{0, 2, 1, 3}
	total := 0
	for r, strip := range results {
		wantBegin, wantEnd := stripOf[r]*16, (stripOf[r]+1)*16
		if strip.RegionBegin != wantBegin || strip.RegionEnd != wantEnd {
			t.Errorf("rank %d region = [%d,%d), want [%d,%d)", r, strip.RegionBegin, strip.RegionEnd, wantBegin, wantEnd)
		}
		for i := strip.RegionBegin; i < strip.RegionEnd; i++ {
			p := f.Decode(pixelBytes(strip, i))
			if p.Depth == 0.5 {
				total++
			}
		}
	}
	if total != 64 {
		t.Errorf("expected each quadrant's 16 painted pixels to survive exactly once, got %d", total)
	}
}

// TestScenarioS5Determinism runs S4 twice and byte-compares the composed
// strip contents.
func TestScenarioS5Determinism(t *testing.T) {
	r1 := runCompose(t, buildS4Locals(t))
	r2 := runCompose(t, buildS4Locals(t))

	for i := range r1 {
		a, b := r1[i].Serialize(), r2[i].Serialize()
		if len(a) != len(b) {
			t.Fatalf("rank %d: length mismatch", i)
		}
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("rank %d: byte %d differs across runs", i, j)
			}
		}
	}
}

func buildS4Locals(t *testing.T) []*imagebuf.Image {
	t.Helper()
	f := pixel.FloatRGBDepth{}
	locals := make([]*imagebuf.Image, 4)
	for r := 0; r < 4; r++ {
		img, err := imagebuf.New(8, 8, 0, 64, f)
		if err != nil {
			t.Fatal(err)
		}
		quadBegin, quadEnd := r*16, (r+1)*16
		for i := quadBegin; i < quadEnd; i++ {
			f.Encode(pixel.Pixel{R: float64(r), Depth: 0.5}, pixelBytes(img, i))
		}
		locals[r] = img
	}
	return locals
}

func TestNewSelectsBinarySwapForPowerOfTwo(t *testing.T) {
	group := comm.NewGroup(4)
	c, err := New(group[0], Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*BinarySwap); !ok {
		t.Errorf("New(size=4) = %T, want *BinarySwap", c)
	}
}

func TestNewSelectsDirectSendForNonPowerOfTwo(t *testing.T) {
	group := comm.NewGroup(3)
	c, err := New(group[0], Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*DirectSend); !ok {
		t.Errorf("New(size=3) = %T, want *DirectSend", c)
	}
}

func TestNewStrictRejectsNonPowerOfTwo(t *testing.T) {
	group := comm.NewGroup(3)
	if _, err := New(group[0], Options{Strict: true}); err == nil {
		t.Error("expected ErrUnsupportedGroupSize for strict non-power-of-two size")
	}
}
