// Package ctl drives an MDP5 control path: the block that routes source
// pipes onto mixer stages, binds a mixer to a display interface and commits
// staged register writes with a single flush.
package ctl

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-errors/errors"

	"github.com/flavioheleno/mdp5/reg"
)

// ErrNoMixer is returned when an operation needs a mixer before SetPipeline.
var ErrNoMixer = errors.New("ctl: no mixer bound")

// Dev is one control path.
type Dev struct {
	bank reg.Bank
	id   int
	log  *slog.Logger

	mu   sync.Mutex // hw lock: layer and flush registers
	lm   int
	intf reg.Interface

	cursorOn bool
	layer    uint32 // last CTLLayer value, cursor bit excluded
	layerExt uint32

	// flush bits whose staging involved this path's own registers; the
	// next commit that touches them also flushes FlushCTL.
	pendingCTLTrigger uint32
}

// New returns control path id on bank. log may be nil.
func New(bank reg.Bank, id int, log *slog.Logger) (*Dev, error) {
	if id < 0 || id >= reg.NumCTL {
		return nil, errors.Errorf("ctl: id %d out of range", id)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dev{
		bank: bank,
		id:   id,
		lm:   -1,
		log:  log.With("ctl", id),
	}, nil
}

// ID returns the control path index.
func (c *Dev) ID() int { return c.id }

func (c *Dev) String() string {
	return fmt.Sprintf("ctl.Dev{%d}", c.id)
}

// SetPipeline binds mixer lm to intf.
func (c *Dev) SetPipeline(intf reg.Interface, lm int) error {
	if lm < 0 || lm >= reg.NumLM {
		return errors.Errorf("ctl: mixer %d out of range", lm)
	}
	op := reg.OpIntfNum(intf.Num)
	if intf.Type == reg.IntfDisabled {
		op = 0
	}
	if intf.CommandMode() {
		op |= reg.OpModeCommand
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lm = lm
	c.intf = intf
	return c.bank.Write(reg.CTLOp(c.id), op)
}

// Blend routes pipes onto stages. stage is indexed by reg.Stage; PipeNone
// leaves a stage empty. count is the number of occupied stages; zero clears
// the layout. With reg.BlendBorderOut the border color stands in for the
// base stage.
func (c *Dev) Blend(stage [reg.NumStages]reg.Pipe, count int, flags reg.BlendFlags) error {
	var layer, ext uint32
	start := reg.StageBase
	if flags&reg.BlendBorderOut != 0 {
		start = reg.Stage0
		layer |= reg.LayerBorderColor
	}
	if count > 0 {
		for s := start; s <= reg.StageMax; s++ {
			if stage[s] == reg.PipeNone {
				continue
			}
			layer |= reg.LayerMask(stage[s], s)
			ext |= reg.LayerExtMask(stage[s], s)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lm < 0 {
		return ErrNoMixer
	}
	c.layer, c.layerExt = layer, ext
	if c.cursorOn {
		layer |= reg.LayerCursorOut
	}
	c.log.Debug("blend", "lm", c.lm, "layer", fmt.Sprintf("%08x", layer), "ext", fmt.Sprintf("%08x", ext))
	if err := c.bank.Write(reg.CTLLayer(c.id, c.lm), layer); err != nil {
		return err
	}
	if err := c.bank.Write(reg.CTLLayerExt(c.id, c.lm), ext); err != nil {
		return err
	}
	c.pendingCTLTrigger = reg.FlushMaskLM(c.lm)
	return nil
}

// SetCursor shows or hides hardware cursor id on the bound mixer.
func (c *Dev) SetCursor(id int, enable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lm < 0 {
		c.log.Error("cannot find mixer", "cursor", id)
		return ErrNoMixer
	}
	layer := c.layer
	if enable {
		layer |= reg.LayerCursorOut
	}
	if err := c.bank.Write(reg.CTLLayer(c.id, c.lm), layer); err != nil {
		return err
	}
	c.cursorOn = enable
	c.pendingCTLTrigger = reg.FlushMaskCursor(id)
	return nil
}

// Commit flushes mask and returns the bits the hardware accepted. Bits the
// hardware does not implement are dropped. In command mode the frame is
// also kicked out.
func (c *Dev) Commit(mask uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingCTLTrigger&mask != 0 {
		mask |= reg.FlushCTL
		c.pendingCTLTrigger = 0
	}
	mask &= reg.FlushHWMask
	if mask != 0 {
		if err := c.bank.Write(reg.CTLFlush(c.id), mask); err != nil {
			c.log.Error("flush failed", "mask", fmt.Sprintf("%08x", mask), "err", err)
			return 0
		}
	}
	if c.intf.CommandMode() {
		if err := c.bank.Write(reg.CTLStart(c.id), 1); err != nil {
			c.log.Error("start failed", "err", err)
		}
	}
	return mask
}

// CommitStatus returns the flush bits the hardware has not consumed yet.
func (c *Dev) CommitStatus() uint32 {
	v, err := c.bank.Read(reg.CTLFlush(c.id))
	if err != nil {
		c.log.Error("commit status", "err", err)
		return 0
	}
	return v
}

// Mixer returns the bound mixer, -1 when unbound.
func (c *Dev) Mixer() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lm
}
