package mdp5test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/mdp5/reg"
)

func TestSimReadWrite(t *testing.T) {
	s := NewSim()
	b := reg.NewMMR(s)

	require.NoError(t, b.Write(reg.LMOutSize(0), 0x07800438))
	v, err := b.Read(reg.LMOutSize(0))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x07800438), v)
	assert.Equal(t, []uint32{0x07800438}, s.WritesTo(reg.LMOutSize(0)))
}

func TestSimFlushLatch(t *testing.T) {
	s := NewSim()
	b := reg.NewMMR(s)

	require.NoError(t, b.Write(reg.CTLFlush(0), reg.FlushLM0))
	require.NoError(t, b.Write(reg.CTLFlush(0), reg.FlushRGB0))
	assert.Equal(t, reg.FlushLM0|reg.FlushRGB0, s.Reg(reg.CTLFlush(0)))

	s.VSync(0)
	assert.Zero(t, s.Reg(reg.CTLFlush(0)))
}

func TestSimInterruptStatus(t *testing.T) {
	s := NewSim()
	b := reg.NewMMR(s)

	s.Raise(reg.IRQIntf1VSync)
	assert.Zero(t, s.Reg(reg.IntrStatus), "disabled interrupts must not latch")

	require.NoError(t, b.Write(reg.IntrEn, reg.IRQIntf1VSync))
	s.VSync(reg.IRQIntf1VSync | reg.IRQIntf0VSync)
	assert.Equal(t, reg.IRQIntf1VSync, s.Reg(reg.IntrStatus))

	require.NoError(t, b.Write(reg.IntrClear, reg.IRQIntf1VSync))
	assert.Zero(t, s.Reg(reg.IntrStatus))
}

func TestSimFailWrites(t *testing.T) {
	s := NewSim()
	s.FailWrites = true
	assert.Error(t, reg.NewMMR(s).Write(reg.IntrEn, 1))
}

func TestSimHalt(t *testing.T) {
	s := NewSim()
	require.NoError(t, s.Halt())
	_, err := reg.NewMMR(s).Read(reg.HWVersion)
	assert.Error(t, err)
}
