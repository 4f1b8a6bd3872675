package compositor

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mekolabs/sortlast/internal/cerr"
	"github.com/mekolabs/sortlast/internal/comm"
	"github.com/mekolabs/sortlast/internal/imagebuf"
)

// BinarySwap is the default compositor: log2(size) rounds, each pairing
// rank r with r XOR 2^k, splitting the current region at its midpoint and
// blending the kept half against the half received from the partner.
type BinarySwap struct {
	Comm comm.Communicator
	Log  *logrus.Entry
}

// New returns a BinarySwap for a power-of-two communicator size, or a
// DirectSend for any other size unless opts.Strict is set, in which case
// a non-power-of-two size is rejected outright.
func New(c comm.Communicator, opts Options) (Compositor, error) {
	size := c.Size()
	if size < 1 {
		return nil, cerr.NewRank("compositor.New", cerr.ErrUnsupportedGroupSize, c.Rank(), "group size must be positive")
	}
	if isPowerOfTwo(size) {
		return NewBinarySwap(c)
	}
	if opts.Strict {
		return nil, cerr.NewRank("compositor.New", cerr.ErrUnsupportedGroupSize, c.Rank(), "group size is not a power of two")
	}
	return NewDirectSend(c), nil
}

// NewBinarySwap builds a BinarySwap directly, for callers that want that
// specific algorithm rather than New's auto-selection. It fails with
// ErrUnsupportedGroupSize if the communicator's size is not a power of
// two, since BinarySwap has no fallback of its own.
func NewBinarySwap(c comm.Communicator) (*BinarySwap, error) {
	if !isPowerOfTwo(c.Size()) {
		return nil, cerr.NewRank("compositor.NewBinarySwap", cerr.ErrUnsupportedGroupSize, c.Rank(), "BinarySwap requires a power-of-two group size")
	}
	return &BinarySwap{Comm: c, Log: entryFor(c)}, nil
}

// NewDirectSend builds a DirectSend directly; it accepts any group size.
func NewDirectSend(c comm.Communicator) *DirectSend {
	return &DirectSend{Comm: c, Log: entryFor(c)}
}

func entryFor(c comm.Communicator) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"rank": c.Rank(), "size": c.Size()})
}

// Compose runs log2(size) rounds of pairwise exchange and returns the
// caller's disjoint strip of the final image.
func (bs *BinarySwap) Compose(ctx context.Context, local *imagebuf.Image) (*imagebuf.Image, error) {
	rank := bs.Comm.Rank()
	size := bs.Comm.Size()
	if !isPowerOfTwo(size) {
		return nil, cerr.NewRank("compositor.BinarySwap.Compose", cerr.ErrUnsupportedGroupSize, rank, "BinarySwap requires a power-of-two group size")
	}
	rounds := log2(size)
	mine := local

	for k := 0; k < rounds; k++ {
		partner := rank ^ (1 << k)
		low, high := rank, partner
		if low > high {
			low, high = high, low
		}

		b, e := mine.RegionBegin, mine.RegionEnd
		m := b + (e-b)/2

		var keepBegin, keepEnd, sendBegin, sendEnd int
		isLow := rank == low
		if isLow {
			keepBegin, keepEnd = b, m
			sendBegin, sendEnd = m, e
		} else {
			keepBegin, keepEnd = m, e
			sendBegin, sendEnd = b, m
		}

		log := bs.Log.WithFields(logrus.Fields{"round": k, "partner": partner, "phase": "swap"})

		outgoing, err := mine.Subset(sendBegin, sendEnd)
		if err != nil {
			return nil, cerr.NewRank("compositor.BinarySwap.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		kept, err := mine.Subset(keepBegin, keepEnd)
		if err != nil {
			return nil, cerr.NewRank("compositor.BinarySwap.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}

		payload := outgoing.Serialize()
		log.WithField("bytes", len(payload)).Debug("sending half to partner")
		// Send blocks until the partner receives, so the low rank sends
		// first and the high rank receives first.
		var data []byte
		if isLow {
			if err := bs.Comm.Send(ctx, partner, k, payload); err != nil {
				return nil, cerr.NewRank("compositor.BinarySwap.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
			}
		}
		data, err = bs.Comm.Recv(ctx, partner, k)
		if err != nil {
			return nil, cerr.NewRank("compositor.BinarySwap.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		if !isLow {
			if err := bs.Comm.Send(ctx, partner, k, payload); err != nil {
				return nil, cerr.NewRank("compositor.BinarySwap.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
			}
		}

		theirs, err := imagebuf.Deserialize(data, mine.Width, mine.Height, keepBegin, keepEnd, mine.Format)
		if err != nil {
			return nil, cerr.NewRank("compositor.BinarySwap.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
		}

		// Back-to-front convention: the lower rank is back, the higher
		// rank is front. BlendOver composites the receiver (front, a)
		// over its argument (back, b) and stores the result in the
		// receiver.
		var blended *imagebuf.Image
		if isLow {
			// We are back; partner (theirs) is front.
			if err := theirs.BlendOver(kept); err != nil {
				return nil, cerr.NewRank("compositor.BinarySwap.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
			}
			blended = theirs
		} else {
			// We are front; partner (theirs) is back.
			if err := kept.BlendOver(theirs); err != nil {
				return nil, cerr.NewRank("compositor.BinarySwap.Compose", cerr.ErrCollectiveFailure, rank, err.Error())
			}
			blended = kept
		}

		log.WithField("region", [2]int{keepBegin, keepEnd}).Debug("round complete")
		mine = blended
	}

	return mine, nil
}
