package mdp5

import (
	"github.com/flavioheleno/mdp5/reg"
)

// Plane is a plane attached to an output.
type Plane interface {
	// Pipe returns the source pipe scanning the plane out.
	Pipe() reg.Pipe
	// FlushBits returns the flush bits the plane's staged writes need.
	FlushBits() uint32
	// CompleteFlip is called once the flip showing the plane completed.
	CompleteFlip()
}

// ControlPath commits staged register writes for one mixer. *ctl.Dev
// implements it.
type ControlPath interface {
	SetPipeline(intf reg.Interface, lm int) error
	Blend(stage [reg.NumStages]reg.Pipe, count int, flags reg.BlendFlags) error
	SetCursor(id int, enable bool) error
	Commit(mask uint32) uint32
	CommitStatus() uint32
}

// Buffer is a scanout buffer.
type Buffer interface {
	// IOVA returns the device address of the buffer in address space space,
	// pinning it until Release.
	IOVA(space int) (uint32, error)
	// Release drops the pin and the reference.
	Release()
}

// BufferResolver turns a client handle into a Buffer.
type BufferResolver interface {
	// Lookup returns nil when the handle does not exist for f.
	Lookup(f *File, handle uint32) Buffer
}

// Power switches the display engine clocks.
type Power interface {
	Enable() error
	Disable() error
}
