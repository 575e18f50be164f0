package mdp5

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/mdp5/ctl"
	"github.com/flavioheleno/mdp5/mdp5test"
	"github.com/flavioheleno/mdp5/reg"
)

var (
	videoIntf = reg.Interface{Num: 1, Type: reg.IntfDSI, Mode: reg.IntfModeVideo}
	cmdIntf   = reg.Interface{Num: 1, Type: reg.IntfDSI, Mode: reg.IntfModeCommand}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestKMS(t *testing.T, opts *Opts) (*KMS, *mdp5test.Sim) {
	t.Helper()
	if opts == nil {
		opts = &Opts{}
	}
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	sim := mdp5test.NewSim()
	k, err := New(sim, opts)
	require.NoError(t, err)
	return k, sim
}

// runKMS services k until the test ends.
func runKMS(t *testing.T, k *KMS) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// vsyncs generates frame boundaries until the test ends.
func vsyncs(t *testing.T, sim *mdp5test.Sim, bits uint32) {
	t.Helper()
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		tick := time.NewTicker(2 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				sim.VSync(bits)
			}
		}
	}()
	t.Cleanup(func() {
		close(stop)
		<-done
	})
}

// newOutput returns output id bound to intf through control path id, with a
// 1080x1920 mode.
func newOutput(t *testing.T, k *KMS, id int, intf reg.Interface) (*CRTC, *mdp5test.Plane) {
	t.Helper()
	primary := mdp5test.NewPlane(reg.PipeRGB0)
	c, err := k.NewCRTC(primary, id)
	require.NoError(t, err)
	path, err := ctl.New(k.Bank(), id, k.log)
	require.NoError(t, err)
	require.NoError(t, c.SetPipeline(intf, path))
	require.NoError(t, c.ModeSetNoFB(Mode{Name: "1080x1920", HDisplay: 1080, VDisplay: 1920, VRefresh: 60}))
	return c, primary
}

type sentEvent struct {
	crtc int
	ev   *Event
}

type eventSink struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (s *eventSink) SendVBlankEvent(crtc int, ev *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentEvent{crtc, ev})
}

func (s *eventSink) events() []sentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentEvent(nil), s.sent...)
}

type resolver map[uint32]Buffer

func (r resolver) Lookup(f *File, handle uint32) Buffer {
	return r[handle]
}

type fakePower struct {
	mu       sync.Mutex
	enables  int
	disables int
	err      error
}

func (p *fakePower) Enable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.enables++
	return nil
}

func (p *fakePower) Disable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disables++
	return nil
}

func (p *fakePower) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enables, p.disables
}
