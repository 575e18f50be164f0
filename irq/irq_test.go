package irq

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/flavioheleno/mdp5/mdp5test"
	"github.com/flavioheleno/mdp5/reg"
)

func TestRegisterUpdatesEnable(t *testing.T) {
	sim := mdp5test.NewSim()
	d := New(reg.NewMMR(sim), nil, 0, nil)

	a := &Handler{Name: "a"}
	b := &Handler{Name: "b"}
	require.NoError(t, d.SetMask(a, reg.IRQIntf0VSync))
	require.NoError(t, d.SetMask(b, reg.IRQIntf0Underrun))
	assert.Zero(t, sim.Reg(reg.IntrEn), "unregistered masks must not be enabled")

	require.NoError(t, d.Register(a))
	require.NoError(t, d.Register(b))
	require.NoError(t, d.Register(a))
	assert.Equal(t, reg.IRQIntf0VSync|reg.IRQIntf0Underrun, sim.Reg(reg.IntrEn))

	require.NoError(t, d.Unregister(a))
	require.NoError(t, d.Unregister(a))
	assert.Equal(t, reg.IRQIntf0Underrun, sim.Reg(reg.IntrEn))
	assert.False(t, d.Registered(a))
	assert.True(t, d.Registered(b))
}

func TestHandleDispatchesAndClears(t *testing.T) {
	sim := mdp5test.NewSim()
	d := New(reg.NewMMR(sim), nil, 0, nil)

	var got uint32
	h := &Handler{Name: "vsync", Fn: func(s uint32) { got = s }}
	require.NoError(t, d.SetMask(h, reg.IRQIntf1VSync))
	require.NoError(t, d.Register(h))

	sim.VSync(reg.IRQIntf1VSync)
	require.NoError(t, d.Handle())
	assert.Equal(t, reg.IRQIntf1VSync, got)
	assert.Zero(t, sim.Reg(reg.IntrStatus))
}

func TestHandlerMayUnregisterItself(t *testing.T) {
	sim := mdp5test.NewSim()
	d := New(reg.NewMMR(sim), nil, 0, nil)

	calls := 0
	h := &Handler{Name: "oneshot"}
	h.Fn = func(uint32) {
		calls++
		require.NoError(t, d.Unregister(h))
	}
	require.NoError(t, d.SetMask(h, reg.IRQIntf0VSync))
	require.NoError(t, d.Register(h))

	d.Dispatch(reg.IRQIntf0VSync)
	d.Dispatch(reg.IRQIntf0VSync)
	assert.Equal(t, 1, calls)
	assert.Zero(t, d.Enabled())
}

func TestDispatchIgnoresOtherBits(t *testing.T) {
	d := New(reg.NewMMR(mdp5test.NewSim()), nil, 0, nil)
	called := false
	h := &Handler{Fn: func(uint32) { called = true }}
	require.NoError(t, d.SetMask(h, reg.IRQPingPong0Done))
	require.NoError(t, d.Register(h))
	d.Dispatch(reg.IRQIntf0VSync)
	assert.False(t, called)
}

func TestHandleDrainsLateBits(t *testing.T) {
	sim := mdp5test.NewSim()
	d := New(reg.NewMMR(sim), nil, 0, nil)

	var got []uint32
	h := &Handler{Name: "vsync", Fn: func(s uint32) {
		got = append(got, s)
		if s == reg.IRQIntf0VSync {
			sim.Raise(reg.IRQIntf1VSync)
		}
	}}
	require.NoError(t, d.SetMask(h, reg.IRQIntf0VSync|reg.IRQIntf1VSync))
	require.NoError(t, d.Register(h))

	sim.VSync(reg.IRQIntf0VSync)
	require.NoError(t, d.Handle())
	assert.Equal(t, []uint32{reg.IRQIntf0VSync, reg.IRQIntf1VSync}, got)
	assert.Zero(t, sim.Reg(reg.IntrStatus))
}

func TestRunOnLineWithoutEdge(t *testing.T) {
	sim := mdp5test.NewSim()
	line := &gpiotest.Pin{N: "MDP_IRQ", Num: 17, EdgesChan: make(chan gpio.Level, 1)}
	d := New(reg.NewMMR(sim), line, 5*time.Millisecond, nil)

	var fired atomic.Uint32
	h := &Handler{Name: "vsync", Fn: func(s uint32) { fired.Or(s) }}
	require.NoError(t, d.SetMask(h, reg.IRQIntf0VSync|reg.IRQIntf1VSync))
	require.NoError(t, d.Register(h))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	sim.VSync(reg.IRQIntf0VSync)
	assert.Eventually(t, func() bool { return fired.Load() == reg.IRQIntf0VSync }, time.Second, time.Millisecond)
	sim.Raise(reg.IRQIntf1VSync)
	assert.Eventually(t, func() bool {
		return fired.Load() == reg.IRQIntf0VSync|reg.IRQIntf1VSync
	}, time.Second, time.Millisecond)
	assert.Zero(t, sim.Reg(reg.IntrStatus))
	cancel()
	require.NoError(t, <-done)
}

func TestHalt(t *testing.T) {
	sim := mdp5test.NewSim()
	d := New(reg.NewMMR(sim), nil, 0, nil)

	h := &Handler{Name: "vsync"}
	require.NoError(t, d.SetMask(h, reg.IRQIntf0VSync))
	require.NoError(t, d.Register(h))
	require.NoError(t, d.Halt())
	assert.False(t, d.Registered(h))
	assert.Zero(t, d.Enabled())
	assert.Zero(t, sim.Reg(reg.IntrEn))

	require.NoError(t, d.Register(h))
	assert.Equal(t, reg.IRQIntf0VSync, sim.Reg(reg.IntrEn))
}

func TestRunPolling(t *testing.T) {
	sim := mdp5test.NewSim()
	d := New(reg.NewMMR(sim), nil, time.Millisecond, nil)

	var fired atomic.Bool
	h := &Handler{Fn: func(uint32) { fired.Store(true) }}
	require.NoError(t, d.SetMask(h, reg.IRQIntf2VSync))
	require.NoError(t, d.Register(h))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	sim.VSync(reg.IRQIntf2VSync)
	assert.Eventually(t, fired.Load, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
