package mdp5

import (
	"fmt"

	"github.com/go-errors/errors"

	"github.com/flavioheleno/mdp5/reg"
)

// regWriter writes a register sequence and keeps the first error. Writes
// after a failure are dropped.
type regWriter struct {
	bank reg.Bank
	err  error
}

func (w *regWriter) write(addr uint16, v uint32) {
	if w.err != nil {
		return
	}
	if err := w.bank.Write(addr, v); err != nil {
		w.err = errors.WrapPrefix(err, fmt.Sprintf("mdp5: write 0x%04X", addr), 0)
	}
}
