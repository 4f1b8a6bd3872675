// Package comm abstracts the collective communication substrate the
// compositor and gather packages run their exchanges over. It is the seam
// named in spec.md §5: "the communication substrate is the only shared
// resource and it is assumed to be reliable and FIFO per (source,
// destination, tag) triple." A real multi-host deployment would implement
// Communicator over TCP, UCX, or an MPI cgo binding; InProcess below backs
// every rank with a goroutine and plain Go channels, which is sufficient
// for a single-process study of the algorithm and for testing.
package comm

import "context"

// Communicator is the narrow contract the compositor and gather packages
// depend on: point-to-point send/receive between ranks of one group,
// tagged so concurrent collectives (or concurrent rounds of one collective)
// never cross-deliver.
type Communicator interface {
	// Rank returns this communicator's rank in [0, Size()).
	Rank() int
	// Size returns the group size.
	Size() int
	// Send blocks until peer has received data tagged tag from this rank.
	Send(ctx context.Context, peer, tag int, data []byte) error
	// Recv blocks until data tagged tag from peer arrives, and returns it.
	Recv(ctx context.Context, peer, tag int) ([]byte, error)
}
