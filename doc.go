// Package mdp5 drives the commit pipeline of a Qualcomm MDP5 display engine.
//
// The MDP5 composes up to seven overlay planes per output in a layer mixer,
// optionally topped by a 64×64 hardware cursor, and scans the result out
// through a display interface (DSI, HDMI, eDP or writeback). This package
// assigns planes to mixer stages, programs the blenders, commits staged
// register writes atomically and waits for the hardware to consume them.
//
// # Hardware Characteristics
//
// - Six layer mixers, each with a base stage and seven blenders
// - The top blender is reserved for the hardware cursor
// - Five control paths route source pipes onto mixer stages
// - One flush register per control path commits every staged write at once
// - DSI command mode panels signal completion with a ping-pong done interrupt
// - Every other interface signals completion at vsync
//
// # Register Access
//
// The register block is reached through any periph.io conn.Conn. On a
// development board an SPI register bridge is the usual setup:
//
//	Bridge Pin → System Pin
//	GND        → GND
//	SCL/CLK    → SPI Clock (SCLK)
//	SDA/MOSI   → SPI Data (MOSI)
//	MISO       → SPI Data (MISO)
//	CS         → SPI Chip Select
//	IRQ        → GPIO (any available pin with edge detection)
//
// The IRQ line is optional. Without it the interrupt status register is
// polled every Opts.PollInterval.
//
// # Basic Usage
//
// Example of bringing up one output and committing a frame:
//
//	package main
//
//	import (
//		"context"
//
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/host/v3"
//
//		"github.com/flavioheleno/mdp5"
//		"github.com/flavioheleno/mdp5/ctl"
//		"github.com/flavioheleno/mdp5/pixfmt"
//		"github.com/flavioheleno/mdp5/reg"
//	)
//
//	func main() {
//		// Initialize periph.io
//		host.Init()
//
//		// Open SPI bus
//		spiBus, _ := spireg.Open("")
//
//		// Create device
//		dev, _ := mdp5.NewSPI(spiBus, &mdp5.Opts{
//			IRQ: gpioreg.ByName("GPIO17"),
//		})
//		defer dev.Halt()
//		go dev.Run(context.Background())
//
//		// Output 0 on mixer 0, DSI video mode through control path 0
//		out, _ := dev.NewCRTC(primary, 0)
//		path, _ := ctl.New(dev.Bank(), 0, nil)
//		out.SetPipeline(reg.Interface{Num: 1, Type: reg.IntfDSI, Mode: reg.IntfModeVideo}, path)
//		out.ModeSetNoFB(mdp5.Mode{HDisplay: 1080, VDisplay: 1920})
//		out.Enable()
//
//		// Commit one plane
//		out.Commit(&mdp5.State{
//			Enable: true,
//			Planes: []*mdp5.PlaneState{
//				{Plane: primary, Alpha: 0xFF, Format: &pixfmt.XRGB8888},
//			},
//		})
//	}
//
// primary is any value implementing Plane; the plane driver owns the source
// pipe registers and reports the flush bits its writes need.
//
// # Commit Protocol
//
// Each frame runs Check, SwapState, Begin, Flush and WaitForCommitDone in
// that order. Commit runs all of them:
//
// - Check assigns mixer stages in z order and rejects frames with more
// planes than Opts.Stages
// - Flush programs the blenders, routes the pipes and writes the flush mask
// - WaitForCommitDone blocks for at most CommitTimeout (50ms)
//
// A timeout is logged and otherwise ignored: the next frame goes on. The
// completion event of a frame is delivered to Opts.Events on the worker
// goroutine after the next vblank, or dropped by PreClose when its file
// goes away first.
//
// # Hardware Cursor
//
// Outputs 0 and 1 have a hardware cursor of at most 64×64 pixels:
//
//	out.CursorSet(file, handle, 64, 64)
//	out.CursorMove(100, 200)
//
// The part of the cursor past the screen edge is clipped. A cursor entirely
// off screen is hidden. The buffer a cursor replaces is released only after
// the next vblank, once the hardware can no longer read it.
//
// # Concurrency
//
// Run services interrupts and deferred work; it must run for events to be
// delivered and cursor buffers to be released. Interrupt handlers only swap
// flags and queue work, everything else runs on the worker goroutine.
package mdp5
