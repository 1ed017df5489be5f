/*package comm is a small message-passing layer for running one job as a
group of cooperating ranks. Every rank calls the same collectives in the same
order, and a collective returns once this rank's part of it is done.

The only implementation here is an in-process group whose ranks are
goroutines connected by channels. Messages have a size limit, so payloads that
may be larger than it go through BcastLarge.
*/
package comm

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultChunk is the number of bytes BcastLarge sends per message when no
// chunk size is configured.
const DefaultChunk = 10000000

// ErrMessageTooLarge is returned by Bcast when a buffer is longer than the
// group's message limit.
var ErrMessageTooLarge = errors.New("comm: message larger than the group limit")

// Comm is one rank's handle on a group.
type Comm interface {
	Rank() int
	Size() int
	// Bcast copies buf on rank root into buf on every other rank. All ranks
	// must pass buffers of the same length.
	Bcast(ctx context.Context, buf []byte, root int) error
	// Barrier returns once every rank of the group has entered it.
	Barrier(ctx context.Context) error
}

type group struct {
	size, maxMessage int
	inbox []chan []byte
	bar barrier
}

type member struct {
	rank int
	g *group
}

// NewGroup returns the n ranks of an in-process group. Messages longer than
// maxMessage bytes are rejected, and maxMessage <= 0 means no limit. A group
// cannot be reused after a collective fails.
func NewGroup(n, maxMessage int) ([]Comm, error) {
	if n <= 0 {
		return nil, fmt.Errorf("comm: group size %d must be positive", n)
	}

	g := &group{
		size: n, maxMessage: maxMessage,
		inbox: make([]chan []byte, n),
		bar: barrier{ n: n, release: make(chan struct{}) },
	}
	cs := make([]Comm, n)
	for i := range cs {
		g.inbox[i] = make(chan []byte, 1)
		cs[i] = &member{ rank: i, g: g }
	}
	return cs, nil
}

// Run starts a goroutine for every rank of cs and waits for all of them. The
// context passed to f is cancelled as soon as any rank returns an error, and
// the first error is returned.
func Run(
	ctx context.Context, cs []Comm,
	f func(ctx context.Context, c Comm) error,
) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, c := range cs {
		c := c
		eg.Go(func() error { return f(ctx, c) })
	}
	return eg.Wait()
}

func (m *member) Rank() int { return m.rank }
func (m *member) Size() int { return m.g.size }

func (m *member) Bcast(ctx context.Context, buf []byte, root int) error {
	g := m.g
	if root < 0 || root >= g.size {
		return fmt.Errorf("comm: root %d outside group of %d", root, g.size)
	}
	if g.maxMessage > 0 && len(buf) > g.maxMessage {
		return fmt.Errorf(
			"%w: %d bytes, limit is %d", ErrMessageTooLarge, len(buf), g.maxMessage,
		)
	}

	if m.rank == root {
		for r := 0; r < g.size; r++ {
			if r == root { continue }
			msg := append([]byte(nil), buf...)
			select {
			case g.inbox[r] <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}

	select {
	case msg := <-g.inbox[m.rank]:
		if len(msg) != len(buf) {
			return fmt.Errorf(
				"comm: rank %d expected %d bytes from root %d, got %d",
				m.rank, len(buf), root, len(msg),
			)
		}
		copy(buf, msg)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *member) Barrier(ctx context.Context) error {
	return m.g.bar.wait(ctx)
}

type barrier struct {
	mu sync.Mutex
	n, waiting int
	release chan struct{}
}

func (b *barrier) wait(ctx context.Context) error {
	b.mu.Lock()
	release := b.release
	b.waiting++
	if b.waiting == b.n {
		b.waiting = 0
		b.release = make(chan struct{})
		close(release)
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BcastLarge broadcasts *buf from rank root to every rank in messages of at
// most chunk bytes. Only the root's buffer needs to be set: the other ranks
// have *buf replaced by a newly allocated slice of the root's length. All
// ranks wait on a barrier before returning.
func BcastLarge(
	ctx context.Context, c Comm, buf *[]byte, root, chunk int,
) error {
	if chunk <= 0 {
		return fmt.Errorf("comm: chunk size %d must be positive", chunk)
	}

	hd := make([]byte, 8)
	if c.Rank() == root {
		binary.LittleEndian.PutUint64(hd, uint64(len(*buf)))
	}
	if err := c.Bcast(ctx, hd, root); err != nil { return err }

	n := int(binary.LittleEndian.Uint64(hd))
	if c.Rank() != root {
		*buf = make([]byte, n)
	}

	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n { end = n }
		if err := c.Bcast(ctx, (*buf)[start:end], root); err != nil {
			return fmt.Errorf(
				"comm: broadcasting bytes [%d, %d) of %d: %w", start, end, n, err,
			)
		}
	}

	return c.Barrier(ctx)
}
