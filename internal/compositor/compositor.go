// Package compositor implements the distributed image-composition
// collectives: BinarySwap, the default log2(P)-round pairwise exchange,
// and DirectSend, the fallback used when the group size is not a power
// of two.
package compositor

import (
	"context"

	"github.com/mekolabs/sortlast/internal/imagebuf"
)

// Compositor merges one local image per rank into a disjoint strip of the
// final, full-resolution result.
type Compositor interface {
	Compose(ctx context.Context, local *imagebuf.Image) (*imagebuf.Image, error)
}

// Options configures New's choice of algorithm.
type Options struct {
	// Strict disables the DirectSend fallback: New returns
	// ErrUnsupportedGroupSize instead of falling back for group sizes
	// that are not a power of two.
	Strict bool
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func log2(n int) int {
	k := 0
	for (1 << k) < n {
		k++
	}
	return k
}
