package mdp5

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-errors/errors"

	"github.com/flavioheleno/mdp5/irq"
	"github.com/flavioheleno/mdp5/pixfmt"
	"github.com/flavioheleno/mdp5/reg"
)

// Work deferred to the next vblank.
const (
	pendingCursor uint32 = 1 << 0
	pendingFlip   uint32 = 1 << 1
)

// Mode is the display timing of an output. Only the active area matters to
// the mixer.
type Mode struct {
	Name     string
	HDisplay int
	VDisplay int
	VRefresh int
}

func (m Mode) String() string {
	return fmt.Sprintf("%q %dx%d@%d", m.Name, m.HDisplay, m.VDisplay, m.VRefresh)
}

// PlaneState is the requested configuration of one plane in a commit.
type PlaneState struct {
	Plane Plane

	// ZPos orders planes bottom to top. Equal values keep input order.
	ZPos int
	// Alpha is the constant plane alpha, 0xFF being opaque.
	Alpha uint8
	// Premultiplied marks pixel color already multiplied by pixel alpha.
	Premultiplied bool
	// Format is the pixel format of the framebuffer; nil means no pixel
	// alpha.
	Format *pixfmt.Format

	// Stage is assigned by Check.
	Stage reg.Stage
}

func (p *PlaneState) alphaEnable() bool {
	return p.Format != nil && p.Format.AlphaEnable
}

// State is the requested configuration of an output.
type State struct {
	Enable bool
	Planes []*PlaneState

	// Event is delivered once the commit reaches the screen.
	Event *Event
}

// CRTC is one output: a layer mixer fed by planes and bound to a display
// interface through a control path.
type CRTC struct {
	kms  *KMS
	id   int
	lm   int
	name string
	log  *slog.Logger

	enabled bool
	cmdMode bool

	// lmMu guards the mixer registers, the control path binding, the
	// committed state and the mode.
	lmMu  sync.Mutex
	ctl   ControlPath
	state *State
	mode  Mode

	// event is guarded by kms.eventMu.
	event *Event

	flushedMask uint32
	pending     atomic.Uint32

	unrefCursor *flipWork[Buffer]

	vblank     *irq.Handler
	vblankWait *irq.Handler
	errIRQ     *irq.Handler
	ppDone     *irq.Handler
	vsync      chan struct{}
	ppComplete completion

	cursor struct {
		mu     sync.Mutex
		buf    Buffer
		width  int
		height int
		x, y   int
	}
}

// NewCRTC creates output id whose primary plane is primary. Output 3 mixes
// on mixer 5, every other output on the mixer with its own index. Outputs
// whose mixer has no flush bit are rejected.
func (k *KMS) NewCRTC(primary Plane, id int) (*CRTC, error) {
	if primary == nil {
		return nil, errors.New("mdp5: output needs a primary plane")
	}
	lm := id
	if id == 3 {
		lm = 5
	}
	if id < 0 || lm >= reg.NumLM || reg.FlushMaskLM(lm) == 0 {
		return nil, errors.Errorf("mdp5: output %d out of range", id)
	}

	c := &CRTC{
		kms:   k,
		id:    id,
		lm:    lm,
		name:  fmt.Sprintf("%s:%d", primary.Pipe(), id),
		vsync: make(chan struct{}, 1),
	}
	c.log = k.log.With("crtc", c.name)
	c.ppComplete.init()
	c.unrefCursor = newFlipWork("unref cursor", func(b Buffer) {
		c.log.Debug("release cursor buffer")
		b.Release()
	})
	c.vblank = &irq.Handler{Name: c.name + " vblank", Fn: c.vblankIRQ}
	c.vblankWait = &irq.Handler{Name: c.name + " vblank wait", Fn: c.vblankWaitIRQ}
	c.errIRQ = &irq.Handler{Name: c.name + " err", Fn: c.errorIRQ}
	c.ppDone = &irq.Handler{Name: c.name + " pp done", Fn: c.ppDoneIRQ}

	k.crtcsMu.Lock()
	k.crtcs = append(k.crtcs, c)
	k.crtcsMu.Unlock()
	return c, nil
}

// ID returns the output index.
func (c *CRTC) ID() int { return c.id }

// LM returns the mixer of the output.
func (c *CRTC) LM() int { return c.lm }

// VBlankMask returns the frame boundary interrupt of the current pipeline.
func (c *CRTC) VBlankMask() uint32 {
	return c.kms.irq.Mask(c.vblank)
}

func (c *CRTC) String() string {
	return fmt.Sprintf("mdp5.CRTC{%s}", c.name)
}

// SetPipeline routes the output to intf through ctl. A nil ctl unbinds the
// output.
func (c *CRTC) SetPipeline(intf reg.Interface, ctl ControlPath) error {
	d := c.kms.irq
	lm := c.lm
	c.log.Debug("set pipeline", "intf", intf.Num, "lm", lm)

	if err := d.SetMask(c.errIRQ, reg.IntfErr(intf.Num)); err != nil {
		return err
	}
	vblank := reg.IntfVBlank(lm, intf)
	if err := d.SetMask(c.vblank, vblank); err != nil {
		return err
	}
	if err := d.SetMask(c.vblankWait, vblank); err != nil {
		return err
	}

	c.cmdMode = intf.CommandMode()
	var ppDone uint32
	if c.cmdMode {
		ppDone = reg.LMPingPongDone(lm)
	}
	if err := d.SetMask(c.ppDone, ppDone); err != nil {
		return err
	}

	c.lmMu.Lock()
	c.ctl = ctl
	c.lmMu.Unlock()
	if ctl == nil {
		return nil
	}
	return ctl.SetPipeline(intf, lm)
}

// binding returns the bound control path or nil.
func (c *CRTC) binding() ControlPath {
	c.lmMu.Lock()
	defer c.lmMu.Unlock()
	return c.ctl
}

func (c *CRTC) currentState() *State {
	c.lmMu.Lock()
	defer c.lmMu.Unlock()
	return c.state
}

func (c *CRTC) currentMode() Mode {
	c.lmMu.Lock()
	defer c.lmMu.Unlock()
	return c.mode
}

// Enable powers the output and starts listening for its error interrupts.
func (c *CRTC) Enable() error {
	c.log.Debug("enable")
	if c.enabled {
		c.log.Warn("already enabled")
		return nil
	}
	if err := c.kms.Enable(); err != nil {
		return err
	}
	if err := c.kms.irq.Register(c.errIRQ); err != nil {
		return err
	}
	if c.cmdMode {
		if err := c.kms.irq.Register(c.ppDone); err != nil {
			return err
		}
	}
	c.enabled = true
	return nil
}

// Disable undoes Enable.
func (c *CRTC) Disable() error {
	c.log.Debug("disable")
	if !c.enabled {
		c.log.Warn("already disabled")
		return nil
	}
	if c.cmdMode {
		if err := c.kms.irq.Unregister(c.ppDone); err != nil {
			return err
		}
	}
	if err := c.kms.irq.Unregister(c.errIRQ); err != nil {
		return err
	}
	c.enabled = false
	return c.kms.Disable()
}

// Enabled reports whether the output is powered.
func (c *CRTC) Enabled() bool { return c.enabled }

// ModeSetNoFB programs the mixer output size for mode.
func (c *CRTC) ModeSetNoFB(mode Mode) error {
	c.log.Debug("mode set", "mode", mode)
	c.lmMu.Lock()
	defer c.lmMu.Unlock()
	if err := c.kms.bank.Write(reg.LMOutSize(c.lm), reg.Size(mode.HDisplay, mode.VDisplay)); err != nil {
		return errors.WrapPrefix(err, "mdp5: mixer out size", 0)
	}
	c.mode = mode
	return nil
}

// Check validates st and assigns a mixer stage to each of its planes. On
// error st is left untouched.
func (c *CRTC) Check(st *State) error {
	c.log.Debug("check", "planes", len(st.Planes))
	for _, ps := range st.Planes {
		if ps == nil || ps.Plane == nil {
			return errors.New("mdp5: plane state without a plane")
		}
	}
	return assignStages(st.Planes, c.kms.opts.Stages, c.log)
}

// SwapState makes st the committed state and returns the previous one.
func (c *CRTC) SwapState(st *State) *State {
	c.lmMu.Lock()
	defer c.lmMu.Unlock()
	old := c.state
	c.state = st
	return old
}

// Begin starts a commit.
func (c *CRTC) Begin() {
	c.log.Debug("begin")
}

// Flush programs the mixer for the committed state and flushes it with
// every plane. The state's event is delivered at the next frame boundary.
// It returns the flushed mask, zero when the output is not bound.
func (c *CRTC) Flush() uint32 {
	st := c.currentState()
	var ev *Event
	if st != nil {
		ev = st.Event
	}
	c.log.Debug("flush", "event", ev)

	c.kms.eventMu.Lock()
	if c.event != nil {
		c.log.Warn("event still pending", "event", c.event)
	}
	c.event = ev
	c.kms.eventMu.Unlock()

	if c.binding() == nil {
		c.log.Debug("no control path bound")
		return 0
	}

	c.blendSetup()

	if c.cmdMode {
		c.ppComplete.reinit()
	}
	mask, err := c.flushAll()
	if err != nil {
		c.log.Warn("flush", "err", err)
		return 0
	}
	c.flushedMask = mask
	c.requestPending(pendingFlip)
	return mask
}

// Commit runs a full commit of st: check, swap, flush and wait.
func (c *CRTC) Commit(st *State) error {
	if err := c.Check(st); err != nil {
		return err
	}
	c.SwapState(st)
	c.Begin()
	c.Flush()
	c.WaitForCommitDone()
	return nil
}

func (c *CRTC) vblankIRQ(status uint32) {
	if err := c.kms.irq.Unregister(c.vblank); err != nil {
		c.log.Error("vblank unregister", "err", err)
	}
	pending := c.pending.Swap(0)
	if pending&pendingFlip != 0 {
		c.kms.wq.queue(func() { c.completeFlip(nil) })
	}
	if pending&pendingCursor != 0 {
		c.unrefCursor.commit(c.kms.wq)
	}
}

func (c *CRTC) vblankWaitIRQ(status uint32) {
	select {
	case c.vsync <- struct{}{}:
	default:
	}
}

func (c *CRTC) errorIRQ(status uint32) {
	c.log.Error("underrun", "status", fmt.Sprintf("%08x", status))
}

func (c *CRTC) ppDoneIRQ(status uint32) {
	c.ppComplete.complete()
}

// completeFlip delivers the pending event when it belongs to file, or any
// pending event when file is nil. At a frame boundary (nil file) it also
// completes the flips of the committed planes. It releases the control path
// of a disabled output.
func (c *CRTC) completeFlip(file *File) {
	c.kms.eventMu.Lock()
	if ev := c.event; ev != nil && (file == nil || ev.File == file) {
		c.event = nil
		ev.Time = time.Now()
		c.log.Debug("send event", "event", ev)
		c.kms.events.SendVBlankEvent(c.id, ev)
	}
	c.kms.eventMu.Unlock()

	st := c.currentState()
	if st != nil && file == nil {
		for _, ps := range st.Planes {
			ps.Plane.CompleteFlip()
		}
	}

	c.lmMu.Lock()
	defer c.lmMu.Unlock()
	if c.ctl != nil && (st == nil || !st.Enable) {
		if err := c.ctl.Blend([reg.NumStages]reg.Pipe{}, 0, 0); err != nil {
			c.log.Error("clear layout", "err", err)
		}
		c.ctl = nil
	}
}

// CancelPendingFlip drops the pending event of file without delivering it
// to the screen.
func (c *CRTC) CancelPendingFlip(file *File) {
	c.log.Debug("cancel", "file", file)
	c.completeFlip(file)
}

// Destroy releases the resources of the output.
func (c *CRTC) Destroy() {
	for _, h := range []*irq.Handler{c.vblank, c.vblankWait, c.errIRQ, c.ppDone} {
		if err := c.kms.irq.Unregister(h); err != nil {
			c.log.Error("unregister", "handler", h.Name, "err", err)
		}
	}
	c.unrefCursor.cleanup(c.log)

	k := c.kms
	k.crtcsMu.Lock()
	defer k.crtcsMu.Unlock()
	for i, o := range k.crtcs {
		if o == c {
			k.crtcs = append(k.crtcs[:i], k.crtcs[i+1:]...)
			break
		}
	}
}
