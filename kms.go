package mdp5

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/flavioheleno/mdp5/irq"
	"github.com/flavioheleno/mdp5/pixfmt"
	"github.com/flavioheleno/mdp5/reg"
)

// CommitTimeout bounds every completion wait.
const CommitTimeout = 50 * time.Millisecond

// MaxStages is the largest mixer stage capacity available to planes. The
// top blender is reserved for the hardware cursor.
const MaxStages = int(reg.Stage5-reg.StageBase) + 1

// Opts is the configuration of the display engine.
type Opts struct {
	// Stages is the number of mixer stages planes may use (default: 5,
	// must be between 1 and MaxStages).
	Stages int

	// AddressSpace is the IOMMU address space buffers are mapped into.
	AddressSpace int

	// Scaler computes cursor scaling (default: pixfmt.Default{}).
	Scaler pixfmt.Scaler

	// Buffers resolves cursor handles. Without it every handle is unknown.
	Buffers BufferResolver

	// Events receives completion events (default: discarded).
	Events EventSink

	// Power switches the engine clocks (optional).
	Power Power

	// IRQ is the interrupt line (optional, nil polls the status register).
	IRQ gpio.PinIn

	// PollInterval is the interrupt line wait granularity and, without an
	// IRQ line, the status polling period (default: 1ms).
	PollInterval time.Duration

	// Logger receives driver logs (default: slog.Default()).
	Logger *slog.Logger
}

// KMS is the device handle of one MDP5 display engine.
type KMS struct {
	bank   reg.Bank
	irq    *irq.Dispatcher
	wq     *workqueue
	log    *slog.Logger
	opts   Opts
	scaler pixfmt.Scaler
	events EventSink

	powerMu   sync.Mutex
	powerRefs int

	// eventMu guards the pending event slot of every CRTC.
	eventMu sync.Mutex

	crtcsMu sync.Mutex
	crtcs   []*CRTC
}

// NewSPI creates a display engine reached through a register bridge on an
// SPI port.
//
// The SPI port is configured for 10MHz, Mode0, 8-bit transfers.
//
// opts can be nil to use defaults.
func NewSPI(p spi.Port, opts *Opts) (*KMS, error) {
	c, err := p.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, errors.WrapPrefix(err, "mdp5: connect", 0)
	}
	return New(c, opts)
}

// New creates a display engine whose registers are reached over c.
//
// opts can be nil to use defaults.
func New(c conn.Conn, opts *Opts) (*KMS, error) {
	o := Opts{Stages: 5}
	if opts != nil {
		o = *opts
		if o.Stages == 0 {
			o.Stages = 5
		}
	}
	if o.Stages < 1 || o.Stages > MaxStages {
		return nil, errors.Errorf("mdp5: stages must be between 1 and %d", MaxStages)
	}
	if o.AddressSpace < 0 {
		return nil, errors.New("mdp5: address space must not be negative")
	}
	if o.PollInterval < 0 {
		return nil, errors.New("mdp5: poll interval must not be negative")
	}
	if o.PollInterval == 0 {
		o.PollInterval = time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	k := &KMS{
		bank:   reg.NewMMR(c),
		wq:     newWorkqueue(),
		log:    o.Logger,
		opts:   o,
		scaler: o.Scaler,
		events: o.Events,
	}
	if k.scaler == nil {
		k.scaler = pixfmt.Default{}
	}
	if k.events == nil {
		k.events = discardEvents{}
	}
	k.irq = irq.New(k.bank, o.IRQ, o.PollInterval, o.Logger)
	return k, nil
}

// Bank returns the register bank of the engine.
func (k *KMS) Bank() reg.Bank {
	return k.bank
}

// IRQ returns the interrupt dispatcher.
func (k *KMS) IRQ() *irq.Dispatcher {
	return k.irq
}

// Run services interrupts and deferred work until ctx is done.
func (k *KMS) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return k.irq.Run(ctx) })
	g.Go(func() error { return k.wq.run(ctx) })
	return g.Wait()
}

// Enable takes a reference on the engine clocks.
func (k *KMS) Enable() error {
	k.powerMu.Lock()
	defer k.powerMu.Unlock()
	if k.powerRefs == 0 && k.opts.Power != nil {
		if err := k.opts.Power.Enable(); err != nil {
			return errors.WrapPrefix(err, "mdp5: power on", 0)
		}
	}
	k.powerRefs++
	return nil
}

// Disable drops a reference taken by Enable.
func (k *KMS) Disable() error {
	k.powerMu.Lock()
	defer k.powerMu.Unlock()
	if k.powerRefs == 0 {
		k.log.Warn("unbalanced disable")
		return nil
	}
	k.powerRefs--
	if k.powerRefs == 0 && k.opts.Power != nil {
		if err := k.opts.Power.Disable(); err != nil {
			return errors.WrapPrefix(err, "mdp5: power off", 0)
		}
	}
	return nil
}

// PowerRefs returns the number of outstanding Enable references.
func (k *KMS) PowerRefs() int {
	k.powerMu.Lock()
	defer k.powerMu.Unlock()
	return k.powerRefs
}

// PreClose cancels the pending flips of f on every output.
func (k *KMS) PreClose(f *File) {
	k.log.Debug("cancel", "file", f)
	for _, c := range k.CRTCs() {
		c.CancelPendingFlip(f)
	}
}

// CRTCs returns the outputs created on k.
func (k *KMS) CRTCs() []*CRTC {
	k.crtcsMu.Lock()
	defer k.crtcsMu.Unlock()
	return append([]*CRTC(nil), k.crtcs...)
}

// Halt masks every interrupt and destroys the outputs.
func (k *KMS) Halt() error {
	for _, c := range k.CRTCs() {
		c.Destroy()
	}
	return k.irq.Halt()
}

func (k *KMS) String() string {
	return fmt.Sprintf("mdp5.KMS{%d stages}", k.opts.Stages)
}
