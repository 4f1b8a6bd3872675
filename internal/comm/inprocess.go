package comm

import (
	"context"
	"sync"

	"github.com/mekolabs/sortlast/internal/cerr"
)

type key struct{ src, dst, tag int }

// bus is the shared rendezvous point for one group of in-process ranks.
// Each (src, dst, tag) triple gets its own unbuffered channel, created
// lazily, which gives exactly the FIFO-per-triple delivery spec.md assumes
// of the transport: a send blocks until the matching receive claims it.
type bus struct {
	size  int
	mu    sync.Mutex
	chans map[key]chan []byte
	abort chan struct{}
	once  sync.Once
}

func newBus(size int) *bus {
	return &bus{size: size, chans: make(map[key]chan []byte), abort: make(chan struct{})}
}

func (b *bus) channel(k key) chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.chans[k]
	if !ok {
		ch = make(chan []byte)
		b.chans[k] = ch
	}
	return ch
}

func (b *bus) signalFailure() {
	b.once.Do(func() { close(b.abort) })
}

// InProcess is a Communicator backed by goroutines of one process rather
// than separate hosts. NewGroup builds one InProcess per rank, all sharing
// the same bus.
type InProcess struct {
	bus  *bus
	rank int
}

// NewGroup returns size Communicators forming one group, rank 0..size-1.
func NewGroup(size int) []*InProcess {
	b := newBus(size)
	out := make([]*InProcess, size)
	for r := 0; r < size; r++ {
		out[r] = &InProcess{bus: b, rank: r}
	}
	return out
}

func (c *InProcess) Rank() int { return c.rank }
func (c *InProcess) Size() int { return c.bus.size }

// Send blocks until peer calls Recv(ctx, c.Rank(), tag), or the context is
// cancelled, or some other rank in the group has aborted the collective.
func (c *InProcess) Send(ctx context.Context, peer, tag int, data []byte) error {
	ch := c.bus.channel(key{src: c.rank, dst: peer, tag: tag})
	select {
	case ch <- data:
		return nil
	case <-ctx.Done():
		c.bus.signalFailure()
		return cerr.NewRank("comm.Send", cerr.ErrCollectiveFailure, c.rank, ctx.Err().Error())
	case <-c.bus.abort:
		return cerr.NewRank("comm.Send", cerr.ErrCollectiveFailure, c.rank, "collective aborted by a peer")
	}
}

// Recv blocks until peer calls Send(ctx, c.Rank(), tag, data), or the
// context is cancelled, or some other rank in the group has aborted.
func (c *InProcess) Recv(ctx context.Context, peer, tag int) ([]byte, error) {
	ch := c.bus.channel(key{src: peer, dst: c.rank, tag: tag})
	select {
	case data := <-ch:
		return data, nil
	case <-ctx.Done():
		c.bus.signalFailure()
		return nil, cerr.NewRank("comm.Recv", cerr.ErrCollectiveFailure, c.rank, ctx.Err().Error())
	case <-c.bus.abort:
		return nil, cerr.NewRank("comm.Recv", cerr.ErrCollectiveFailure, c.rank, "collective aborted by a peer")
	}
}

// Abort signals every rank in the group blocked in Send or Recv to
// unblock with ErrCollectiveFailure. A rank that detects a local fatal
// condition should call this before exiting so peers do not deadlock,
// mirroring spec.md §7's "SHOULD signal it on the communicator."
func (c *InProcess) Abort() {
	c.bus.signalFailure()
}
