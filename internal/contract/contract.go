// Package contract defines the interfaces the composition core consumes
// from, and hands results to, collaborators that are explicitly out of
// scope for this module: a rasterizer, a mesh distribution scheme, and
// whatever ultimately consumes the final composited image (a PPM writer,
// a display, a test harness). The core only ever talks to these
// interfaces, never to a concrete implementation of them.
package contract

import (
	"context"

	"github.com/mekolabs/sortlast/internal/imagebuf"
)

// MeshView is the minimal shape the core needs from a mesh: how many
// triangles it holds, for logging and trivial demonstration painters.
// Real geometry (vertices, depth order) lives entirely on the
// implementation's side of this interface.
type MeshView interface {
	TriangleCount() int
}

// MeshDistributor hands each rank its share of the scene geometry. A real
// implementation would scatter or broadcast a parsed mesh (e.g. from
// STL); this module only depends on the shape of the result.
type MeshDistributor interface {
	Distribute(ctx context.Context, rank, size int) (MeshView, error)
}

// Painter rasterizes a MeshView into an Image under the given
// model-view/projection matrices. Order-dependent pixel encodings require
// the painter to submit triangles back-to-front before rasterizing; see
// internal/compositor's back-to-front rank convention for how that order
// is then preserved across ranks.
type Painter interface {
	Paint(ctx context.Context, mesh MeshView, modelview, projection [16]float64, out *imagebuf.Image) error
}

// ImageConsumer receives the final, gathered image on the root rank. A
// real implementation might write a PPM, push to a display, or hand the
// bytes to a test harness.
type ImageConsumer interface {
	Consume(ctx context.Context, final *imagebuf.Image) error
}
