// Package gather implements the collective that reassembles the disjoint
// strips left behind by a compositor into one full-resolution image on a
// chosen root rank.
package gather

import (
	"context"
	"encoding/binary"

	"github.com/sirupsen/logrus"

	"github.com/mekolabs/sortlast/internal/cerr"
	"github.com/mekolabs/sortlast/internal/comm"
	"github.com/mekolabs/sortlast/internal/imagebuf"
)

// Reserved outside the tag space compositors use for their own rounds
// (which start at 0) so a gather immediately following a compose on the
// same Communicator never cross-delivers.
const (
	tagHeader  = -1
	tagPayload = -2
)

// Gather collects every rank's local region onto root and returns the
// reassembled full-frame image there. Non-root callers return an empty
// image (region [0,0)) and a nil error on success. The callers' regions
// MUST partition [0, width*height) exactly; otherwise Gather fails with
// ErrNonPartitioningRegions.
func Gather(ctx context.Context, c comm.Communicator, root int, local *imagebuf.Image) (*imagebuf.Image, error) {
	rank := c.Rank()
	log := logrus.WithFields(logrus.Fields{"rank": rank, "root": root, "phase": "gather"})

	if rank != root {
		header := make([]byte, 8)
		binary.NativeEndian.PutUint32(header[0:4], uint32(local.RegionBegin))
		binary.NativeEndian.PutUint32(header[4:8], uint32(local.RegionEnd))
		log.WithField("region", [2]int{local.RegionBegin, local.RegionEnd}).Debug("sending region to root")
		if err := c.Send(ctx, root, tagHeader, header); err != nil {
			return nil, cerr.NewRank("gather.Gather", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		if err := c.Send(ctx, root, tagPayload, local.Serialize()); err != nil {
			return nil, cerr.NewRank("gather.Gather", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		return imagebuf.New(local.Width, local.Height, 0, 0, local.Format)
	}

	frameSize := local.Width * local.Height
	covered := make([]bool, frameSize)
	full, err := imagebuf.New(local.Width, local.Height, 0, frameSize, local.Format)
	if err != nil {
		return nil, cerr.NewRank("gather.Gather", cerr.ErrCollectiveFailure, rank, err.Error())
	}

	mark := func(begin, end int, bytes []byte) error {
		if begin < 0 || end > frameSize || end < begin {
			return cerr.NewRank("gather.Gather", cerr.ErrNonPartitioningRegions, rank, "region out of frame bounds")
		}
		for i := begin; i < end; i++ {
			if covered[i] {
				return cerr.NewRank("gather.Gather", cerr.ErrNonPartitioningRegions, rank, "regions overlap")
			}
			covered[i] = true
		}
		if err := full.Overwrite(begin, end, bytes); err != nil {
			return cerr.NewRank("gather.Gather", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		return nil
	}

	if err := mark(local.RegionBegin, local.RegionEnd, local.Serialize()); err != nil {
		return nil, err
	}

	size := c.Size()
	for r := 0; r < size; r++ {
		if r == root {
			continue
		}
		header, err := c.Recv(ctx, r, tagHeader)
		if err != nil {
			return nil, cerr.NewRank("gather.Gather", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		if len(header) != 8 {
			return nil, cerr.NewRank("gather.Gather", cerr.ErrCollectiveFailure, rank, "malformed region header")
		}
		begin := int(binary.NativeEndian.Uint32(header[0:4]))
		end := int(binary.NativeEndian.Uint32(header[4:8]))

		payload, err := c.Recv(ctx, r, tagPayload)
		if err != nil {
			return nil, cerr.NewRank("gather.Gather", cerr.ErrCollectiveFailure, rank, err.Error())
		}
		log.WithFields(logrus.Fields{"from": r, "region": [2]int{begin, end}}).Debug("received region")
		if err := mark(begin, end, payload); err != nil {
			return nil, err
		}
	}

	for _, ok := range covered {
		if !ok {
			return nil, cerr.NewRank("gather.Gather", cerr.ErrNonPartitioningRegions, rank, "regions leave a gap")
		}
	}

	return full, nil
}
