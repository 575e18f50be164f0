// Package mdp5test provides test doubles for the mdp5 packages: a simulated
// register block reachable over a periph.io connection, and fake planes and
// buffers.
package mdp5test

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/go-errors/errors"
	"periph.io/x/conn/v3"

	"github.com/flavioheleno/mdp5/reg"
)

// Write is one register write seen by Sim.
type Write struct {
	Addr  uint16
	Value uint32
}

// Sim simulates the MDP5 register block behind a register bridge. It
// implements conn.Conn with the framing of reg.MMR.
//
// Control path flush registers latch written bits until VSync consumes
// them. The interrupt status register collects raised bits until cleared.
type Sim struct {
	mu     sync.Mutex
	regs   map[uint16]uint32
	writes []Write
	status uint32
	halted bool

	// FailWrites makes every write transaction fail.
	FailWrites bool
}

var _ conn.Conn = (*Sim)(nil)

// NewSim returns a Sim with all registers zero.
func NewSim() *Sim {
	return &Sim{regs: map[uint16]uint32{}}
}

// String implements conn.Resource.
func (s *Sim) String() string {
	return "mdp5test.Sim"
}

// Halt implements conn.Resource.
func (s *Sim) Halt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = true
	return nil
}

// Duplex implements conn.Conn.
func (s *Sim) Duplex() conn.Duplex {
	return conn.Half
}

// Tx implements conn.Conn. A write is a 2-byte address followed by one or
// more 4-byte values; a read is a 2-byte address with a 4-byte read buffer.
func (s *Sim) Tx(w, r []byte) error {
	if len(w) < 2 {
		return errors.New("mdp5test: short transaction")
	}
	addr := binary.BigEndian.Uint16(w)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halted {
		return errors.New("mdp5test: halted")
	}
	switch {
	case len(r) == 4 && len(w) == 2:
		binary.BigEndian.PutUint32(r, s.read(addr))
		return nil
	case len(r) == 0 && len(w) >= 6 && (len(w)-2)%4 == 0:
		if s.FailWrites {
			return errors.New("mdp5test: write failed")
		}
		for i := 2; i < len(w); i += 4 {
			s.write(addr, binary.BigEndian.Uint32(w[i:]))
			addr += 4
		}
		return nil
	default:
		return errors.Errorf("mdp5test: unsupported transaction w=%d r=%d", len(w), len(r))
	}
}

func (s *Sim) read(addr uint16) uint32 {
	if addr == reg.IntrStatus {
		return s.status
	}
	return s.regs[addr]
}

func (s *Sim) write(addr uint16, v uint32) {
	s.writes = append(s.writes, Write{Addr: addr, Value: v})
	switch {
	case addr == reg.IntrClear:
		s.status &^= v
	case s.isFlush(addr):
		s.regs[addr] |= v
	default:
		s.regs[addr] = v
	}
}

func (s *Sim) isFlush(addr uint16) bool {
	for i := 0; i < reg.NumCTL; i++ {
		if addr == reg.CTLFlush(i) {
			return true
		}
	}
	return false
}

// Reg returns the current value of the register at addr.
func (s *Sim) Reg(addr uint16) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(addr)
}

// SetReg sets a register without recording a write.
func (s *Sim) SetReg(addr uint16, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[addr] = v
}

// Writes returns every write recorded so far.
func (s *Sim) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.writes...)
}

// WritesTo returns the values written to addr, oldest first.
func (s *Sim) WritesTo(addr uint16) []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uint32
	for _, w := range s.writes {
		if w.Addr == addr {
			out = append(out, w.Value)
		}
	}
	return out
}

// Reset forgets recorded writes.
func (s *Sim) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = nil
}

// Raise sets bits in the interrupt status register. Only bits enabled in
// reg.IntrEn are raised.
func (s *Sim) Raise(bits uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status |= bits & s.regs[reg.IntrEn]
}

// VSync consumes every latched flush and raises bits as the frame boundary
// interrupt.
func (s *Sim) VSync(bits uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < reg.NumCTL; i++ {
		delete(s.regs, reg.CTLFlush(i))
	}
	s.status |= bits & s.regs[reg.IntrEn]
}

// Since returns the writes recorded after the first n.
func (s *Sim) Since(n int) []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= len(s.writes) {
		return nil
	}
	return append([]Write(nil), s.writes[n:]...)
}

// Count returns the number of writes recorded so far.
func (s *Sim) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func (w Write) String() string {
	return fmt.Sprintf("0x%04X=0x%08X", w.Addr, w.Value)
}
