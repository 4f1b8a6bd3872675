package compositor

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mekolabs/sortlast/internal/cerr"
	"github.com/mekolabs/sortlast/internal/comm"
	"github.com/mekolabs/sortlast/internal/imagebuf"
)

const (
	directSendFullTag  = 0
	directSendStripTag = 1
	directSendOwner    = 0
)

// DirectSend is the fallback compositor for group sizes that are not a
// power of two: every non-owner rank sends its full local image to a
// single owner rank, which blends them in rank order (lower rank first,
// so the back-to-front convention matches BinarySwap's) and redistributes
// the result as size contiguous strips.
type DirectSend struct {
	Comm comm.Communicator
	Log  *logrus.Entry
}

func (ds *DirectSend) Compose(ctx context.Context, local *imagebuf.Image) (*imagebuf.Image, error) {
	rank := ds.Comm.Rank()
	size := ds.Comm.Size()
	log := ds.Log.WithField("phase", "direct-send")

	if rank != directSendOwner {
		log.WithField("bytes", len(local.Pixels)).Debug("sending full image to owner")
		if err := ds.Comm.Send(ctx, directSendOwner, directSendFullTag, local.Serialize()); err != nil {
			return nil, cerr.NewRank("compositor.DirectSend.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		data, err := ds.Comm.Recv(ctx, directSendOwner, directSendStripTag)
		if err != nil {
			return nil, cerr.NewRank("compositor.DirectSend.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		begin, end := stripBounds(local.Width*local.Height, size, rank)
		strip, err := imagebuf.Deserialize(data, local.Width, local.Height, begin, end, local.Format)
		if err != nil {
			return nil, cerr.NewRank("compositor.DirectSend.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		return strip, nil
	}

	final := local
	for r := 1; r < size; r++ {
		data, err := ds.Comm.Recv(ctx, r, directSendFullTag)
		if err != nil {
			return nil, cerr.NewRank("compositor.DirectSend.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		incoming, err := imagebuf.Deserialize(data, local.Width, local.Height, local.RegionBegin, local.RegionEnd, local.Format)
		if err != nil {
			return nil, cerr.NewRank("compositor.DirectSend.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		// Rank r is front relative to everything accumulated so far
		// (ranks 0..r-1), matching BinarySwap's lower-rank-is-back rule.
		if err := incoming.BlendOver(final); err != nil {
			return nil, cerr.NewRank("compositor.DirectSend.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		final = incoming
	}

	log.Debug("blended all ranks, redistributing strips")
	for r := 0; r < size; r++ {
		if r == directSendOwner {
			continue
		}
		begin, end := stripBounds(final.Width*final.Height, size, r)
		strip, err := final.Subset(begin, end)
		if err != nil {
			return nil, cerr.NewRank("compositor.DirectSend.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		if err := ds.Comm.Send(ctx, r, directSendStripTag, strip.Serialize()); err != nil {
			return nil, cerr.NewRank("compositor.DirectSend.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}
	}

	begin, end := stripBounds(final.Width*final.Height, size, directSendOwner)
	return final.Subset(begin, end)
}

// stripBounds splits [0, frameSize) into size contiguous, near-equal
// strips; the last strip absorbs any remainder.
func stripBounds(frameSize, size, rank int) (begin, end int) {
	chunk := frameSize / size
	begin = rank * chunk
	if rank == size-1 {
		end = frameSize
	} else {
		end = begin + chunk
	}
	return begin, end
}
