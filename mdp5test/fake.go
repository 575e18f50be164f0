package mdp5test

import (
	"sync"
	"sync/atomic"

	"github.com/flavioheleno/mdp5/reg"
)

// Plane is a plane collaborator that flushes its own pipe and counts flip
// completions.
type Plane struct {
	P reg.Pipe

	// Extra is OR'd into the flush bits.
	Extra uint32

	flips atomic.Int32
}

// NewPlane returns a Plane on pipe p.
func NewPlane(p reg.Pipe) *Plane {
	return &Plane{P: p}
}

func (p *Plane) Pipe() reg.Pipe { return p.P }

func (p *Plane) FlushBits() uint32 { return reg.FlushMaskPipe(p.P) | p.Extra }

func (p *Plane) CompleteFlip() { p.flips.Add(1) }

// Flips returns how many flips completed on p.
func (p *Plane) Flips() int { return int(p.flips.Load()) }

// Buffer is a scanout buffer with a fixed device address.
type Buffer struct {
	Addr uint32

	// Err is returned by IOVA when set.
	Err error

	mu       sync.Mutex
	released int
	spaces   []int
}

func (b *Buffer) IOVA(space int) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return 0, b.Err
	}
	b.spaces = append(b.spaces, space)
	return b.Addr, nil
}

func (b *Buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released++
}

// Released returns how many times b was released.
func (b *Buffer) Released() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}
