package gather

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/mekolabs/sortlast/internal/cerr"
	"github.com/mekolabs/sortlast/internal/comm"
	"github.com/mekolabs/sortlast/internal/imagebuf"
	"github.com/mekolabs/sortlast/internal/pixel"
)

func pixelBytes(img *imagebuf.Image, i int) []byte {
	bpp := img.Format.BytesPerPixel()
	off := (i - img.RegionBegin) * bpp
	return img.Pixels[off : off+bpp]
}

// TestGatherReassemblesPartition gathers four disjoint quarter-strips of
// an 8-pixel frame onto root and checks the full image matches.
func TestGatherReassemblesPartition(t *testing.T) {
	f := pixel.UByteRGBADepth{}
	size := 4
	group := comm.NewGroup(size)
	locals := make([]*imagebuf.Image, size)
	for r := 0; r < size; r++ {
		img, err := imagebuf.New(8, 1, 2*r, 2*r+2, f)
		if err != nil {
			t.Fatal(err)
		}
		f.Encode(pixel.Pixel{R: float64(10 * r)}, pixelBytes(img, 2*r))
		f.Encode(pixel.Pixel{R: float64(10*r + 1)}, pixelBytes(img, 2*r+1))
		locals[r] = img
	}

	results := make([]*imagebuf.Image, size)
	g, ctx := errgroup.WithContext(context.Background())
	for r := 0; r < size; r++ {
		r := r
		g.Go(func() error {
			out, err := Gather(ctx, group[r], 0, locals[r])
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

	full := results[0]
	if full.RegionBegin != 0 || full.RegionEnd != 8 {
		t.Fatalf("root region = [%d,%d), want [0,8)", full.RegionBegin, full.RegionEnd)
	}
	for r := 0; r < size; r++ {
		if got := f.Decode(pixelBytes(full, 2*r)).R; got != float64(10*r) {
			t.Errorf("pixel %d = %v, want %v", 2*r, got, 10*r)
		}
	}
	for r := 1; r < size; r++ {
		if results[r].RegionBegin != 0 || results[r].RegionEnd != 0 {
			t.Errorf("non-root rank %d region = [%d,%d), want empty [0,0)", r, results[r].RegionBegin, results[r].RegionEnd)
		}
	}
}

// TestScenarioS6OverlappingRegionsFail reproduces S6: two ranks both
// claim the full region [0, w*h); Gather must fail with
// ErrNonPartitioningRegions rather than silently picking one.
func TestScenarioS6OverlappingRegionsFail(t *testing.T) {
	f := pixel.UByteRGBADepth{}
	group := comm.NewGroup(2)
	a, _ := imagebuf.New(2, 2, 0, 4, f)
	b, _ := imagebuf.New(2, 2, 0, 4, f)

	results := make([]error, 2)
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { _, results[0] = Gather(ctx, group[0], 0, a); return nil })
	g.Go(func() error { _, results[1] = Gather(ctx, group[1], 0, b); return nil })
	g.Wait()

	if !errors.Is(results[0], cerr.ErrNonPartitioningRegions) {
		t.Errorf("root Gather err = %v, want ErrNonPartitioningRegions", results[0])
	}
}

func TestGatherGapFails(t *testing.T) {
	f := pixel.UByteRGBADepth{}
	group := comm.NewGroup(2)
	a, _ := imagebuf.New(4, 1, 0, 2, f)
	b, _ := imagebuf.New(4, 1, 3, 4, f) // leaves a gap at [2,3)

	results := make([]error, 2)
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { _, results[0] = Gather(ctx, group[0], 0, a); return nil })
	g.Go(func() error { _, results[1] = Gather(ctx, group[1], 0, b); return nil })
	g.Wait()

	if !errors.Is(results[0], cerr.ErrNonPartitioningRegions) {
		t.Errorf("root Gather err = %v, want ErrNonPartitioningRegions", results[0])
	}
}
