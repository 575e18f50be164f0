package mdp5

import (
	"fmt"

	"github.com/flavioheleno/mdp5/reg"
)

// flush commits mask through ctl and returns the accepted bits.
func (c *CRTC) flush(ctl ControlPath, mask uint32) uint32 {
	c.log.Debug("flush", "mask", fmt.Sprintf("%08x", mask))
	return ctl.Commit(mask)
}

// flushAll flushes every plane of the committed state together with the
// mixer.
func (c *CRTC) flushAll() (uint32, error) {
	ctl := c.binding()
	if ctl == nil {
		return 0, ErrNotBound
	}
	var mask uint32
	if st := c.currentState(); st != nil {
		for _, ps := range st.Planes {
			mask |= ps.Plane.FlushBits()
		}
	}
	mask |= reg.FlushMaskLM(c.lm)
	return c.flush(ctl, mask), nil
}

// requestPending defers work to the next vblank.
func (c *CRTC) requestPending(p uint32) {
	c.pending.Or(p)
	if err := c.kms.irq.Register(c.vblank); err != nil {
		c.log.Error("vblank register", "err", err)
	}
}
