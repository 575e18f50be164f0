package mdp5

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-errors/errors"
)

// completion is a one shot signal that can be re-armed.
type completion struct {
	mu sync.Mutex
	ch chan struct{}
}

func (c *completion) init() {
	c.reinit()
}

// reinit drops any signal not yet consumed.
func (c *completion) reinit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ch = make(chan struct{}, 1)
}

func (c *completion) complete() {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	select {
	case ch <- struct{}{}:
	default:
	}
}

// wait reports whether the signal arrived within d.
func (c *completion) wait(d time.Duration) bool {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}

// WaitForCommitDone blocks until the last flush reached the hardware, for
// at most CommitTimeout. A timeout is logged and otherwise ignored. It
// returns at once when no control path is bound.
func (c *CRTC) WaitForCommitDone() {
	if c.binding() == nil {
		return
	}
	var err error
	if c.cmdMode {
		err = c.waitForPPDone()
	} else {
		err = c.waitForFlushDone()
	}
	if err != nil {
		c.log.Warn("commit not done", "err", err)
	}
}

func (c *CRTC) waitForPPDone() error {
	if !c.ppComplete.wait(CommitTimeout) {
		return errors.WrapPrefix(ErrHardwareTimeout, fmt.Sprintf("pp done lm=%d", c.lm), 0)
	}
	return nil
}

func (c *CRTC) waitForFlushDone() error {
	ctl := c.binding()
	if ctl == nil {
		return nil
	}
	defer func() { c.flushedMask = 0 }()

	d := c.kms.irq
	if err := d.Register(c.vblankWait); err != nil {
		return err
	}
	defer func() {
		if err := d.Unregister(c.vblankWait); err != nil {
			c.log.Error("vblank wait unregister", "err", err)
		}
	}()

	t := time.NewTimer(CommitTimeout)
	defer t.Stop()
	for ctl.CommitStatus()&c.flushedMask != 0 {
		select {
		case <-c.vsync:
		case <-t.C:
			return errors.WrapPrefix(ErrHardwareTimeout, fmt.Sprintf("vblank crtc=%d", c.id), 0)
		}
	}
	return nil
}
