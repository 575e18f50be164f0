// Package irq dispatches MDP5 interrupts to registered handlers.
//
// The Dispatcher keeps the interrupt enable register equal to the union of
// the masks of registered handlers. When the interrupt line fires it reads
// and clears the status register and calls every handler whose mask
// matches. Handlers run on the dispatcher goroutine and must return quickly;
// they may register and unregister handlers, including themselves.
package irq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"periph.io/x/conn/v3/gpio"

	"github.com/flavioheleno/mdp5/reg"
)

// Handler is one interrupt consumer.
type Handler struct {
	// Name is used in logs.
	Name string
	// Fn receives the matching status bits.
	Fn func(status uint32)

	mask       uint32
	registered bool
}

// Dispatcher owns the interrupt registers.
type Dispatcher struct {
	bank reg.Bank
	line gpio.PinIn
	poll time.Duration
	log  *slog.Logger

	mu       sync.Mutex
	handlers []*Handler
	enabled  uint32
}

// New returns a Dispatcher. line is the interrupt line, or nil to poll the
// status register every poll.
func New(bank reg.Bank, line gpio.PinIn, poll time.Duration, log *slog.Logger) *Dispatcher {
	if poll <= 0 {
		poll = time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{bank: bank, line: line, poll: poll, log: log}
}

// Register adds h. Registering twice is a no-op.
func (d *Dispatcher) Register(h *Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !h.registered {
		h.registered = true
		d.handlers = append(d.handlers, h)
	}
	return d.updateLocked()
}

// Unregister removes h. Unregistering an absent handler is a no-op.
func (d *Dispatcher) Unregister(h *Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h.registered {
		h.registered = false
		for i, o := range d.handlers {
			if o == h {
				d.handlers = append(d.handlers[:i], d.handlers[i+1:]...)
				break
			}
		}
	}
	return d.updateLocked()
}

// SetMask changes the bits h listens to.
func (d *Dispatcher) SetMask(h *Handler, mask uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	h.mask = mask
	return d.updateLocked()
}

// Mask returns the bits h listens to.
func (d *Dispatcher) Mask(h *Handler) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return h.mask
}

// Registered reports whether h is registered.
func (d *Dispatcher) Registered(h *Handler) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return h.registered
}

// Enabled returns the current interrupt enable mask.
func (d *Dispatcher) Enabled() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

func (d *Dispatcher) updateLocked() error {
	var mask uint32
	for _, h := range d.handlers {
		mask |= h.mask
	}
	if mask == d.enabled {
		return nil
	}
	if err := d.bank.Write(reg.IntrEn, mask); err != nil {
		return errors.WrapPrefix(err, "irq: update enable mask", 0)
	}
	d.enabled = mask
	return nil
}

// maxRounds bounds the status reads of one Handle call.
const maxRounds = 16

// Handle services the interrupt: it reads the pending enabled bits, clears
// them and dispatches them, until no enabled bit is pending.
func (d *Dispatcher) Handle() error {
	for i := 0; i < maxRounds; i++ {
		status, err := d.bank.Read(reg.IntrStatus)
		if err != nil {
			return errors.WrapPrefix(err, "irq: read status", 0)
		}
		d.mu.Lock()
		status &= d.enabled
		d.mu.Unlock()
		if status == 0 {
			return nil
		}
		if err := d.bank.Write(reg.IntrClear, status); err != nil {
			return errors.WrapPrefix(err, "irq: clear status", 0)
		}
		d.Dispatch(status)
	}
	d.log.Warn("interrupt storm", "rounds", maxRounds)
	return nil
}

// Halt unregisters every handler and masks every interrupt.
func (d *Dispatcher) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range d.handlers {
		h.registered = false
	}
	d.handlers = nil
	if err := d.bank.Write(reg.IntrEn, 0); err != nil {
		return errors.WrapPrefix(err, "irq: mask all", 0)
	}
	d.enabled = 0
	return nil
}

// Dispatch calls every registered handler whose mask intersects status.
func (d *Dispatcher) Dispatch(status uint32) {
	d.mu.Lock()
	type call struct {
		h    *Handler
		bits uint32
	}
	var calls []call
	for _, h := range d.handlers {
		if bits := h.mask & status; bits != 0 && h.Fn != nil {
			calls = append(calls, call{h, bits})
		}
	}
	d.mu.Unlock()

	for _, c := range calls {
		c.h.Fn(c.bits)
	}
}

// Run services interrupts until ctx is done. On a line, status is also
// read every poll without an edge.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.line != nil {
		if err := d.line.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
			return errors.WrapPrefix(err, fmt.Sprintf("irq: configure %s", d.line), 0)
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			// A timeout still reads status: a source asserting while the
			// line is high raises no edge.
			d.line.WaitForEdge(d.poll)
			if err := d.Handle(); err != nil {
				d.log.Error("interrupt", "err", err)
			}
		}
	}

	t := time.NewTicker(d.poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := d.Handle(); err != nil {
				d.log.Error("interrupt", "err", err)
			}
		}
	}
}
