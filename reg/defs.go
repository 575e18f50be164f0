package reg

import "fmt"

// Pipe is a source surface pipe (SSPP).
type Pipe uint8

const (
	PipeNone Pipe = iota
	PipeVIG0
	PipeVIG1
	PipeVIG2
	PipeRGB0
	PipeRGB1
	PipeRGB2
	PipeDMA0
	PipeDMA1
	PipeVIG3
	PipeRGB3
	PipeCursor0
	PipeCursor1
)

var pipeNames = [...]string{
	PipeNone:    "NONE",
	PipeVIG0:    "VIG0",
	PipeVIG1:    "VIG1",
	PipeVIG2:    "VIG2",
	PipeRGB0:    "RGB0",
	PipeRGB1:    "RGB1",
	PipeRGB2:    "RGB2",
	PipeDMA0:    "DMA0",
	PipeDMA1:    "DMA1",
	PipeVIG3:    "VIG3",
	PipeRGB3:    "RGB3",
	PipeCursor0: "CURSOR0",
	PipeCursor1: "CURSOR1",
}

func (p Pipe) String() string {
	if int(p) < len(pipeNames) {
		return pipeNames[p]
	}
	return fmt.Sprintf("Pipe(%d)", uint8(p))
}

// Stage is a mixer compositing slot. StageBase is the bottom layer and has
// no blender; Stage0 through StageMax each own one blender.
type Stage uint8

const (
	StageUnused Stage = iota
	StageBase
	Stage0
	Stage1
	Stage2
	Stage3
	Stage4
	Stage5
	Stage6

	StageMax = Stage6
)

// NumStages sizes tables indexed by Stage.
const NumStages = int(StageMax) + 1

// StageCursor is the blender reserved for the hardware cursor.
const StageCursor = Stage6

// Blender returns the blender index serving s.
func (s Stage) Blender() int { return int(s) - int(Stage0) }

// BlendFlags modify the control path layer setup.
type BlendFlags uint32

const (
	// BlendBorderOut uses the border color as the base layer.
	BlendBorderOut BlendFlags = 1 << 0
)

// IntfType is the kind of display interface a control path drives.
type IntfType uint8

const (
	IntfDisabled IntfType = iota
	IntfDSI
	IntfHDMI
	IntfEDP
	IntfWB
)

// IntfMode distinguishes DSI video from DSI command mode.
type IntfMode uint8

const (
	IntfModeNone IntfMode = iota
	IntfModeVideo
	IntfModeCommand
)

// Interface is one display interface.
type Interface struct {
	Num  int
	Type IntfType
	Mode IntfMode
}

// CommandMode reports whether completion is signaled by the ping-pong done
// interrupt instead of vsync.
func (i Interface) CommandMode() bool {
	return i.Type == IntfDSI && i.Mode == IntfModeCommand
}

// Flush bits of CTLFlush.
const (
	FlushVIG0    uint32 = 1 << 0
	FlushVIG1    uint32 = 1 << 1
	FlushVIG2    uint32 = 1 << 2
	FlushRGB0    uint32 = 1 << 3
	FlushRGB1    uint32 = 1 << 4
	FlushRGB2    uint32 = 1 << 5
	FlushLM0     uint32 = 1 << 6
	FlushLM1     uint32 = 1 << 7
	FlushLM2     uint32 = 1 << 8
	FlushDMA0    uint32 = 1 << 11
	FlushDMA1    uint32 = 1 << 12
	FlushCTL     uint32 = 1 << 17
	FlushVIG3    uint32 = 1 << 18
	FlushRGB3    uint32 = 1 << 19
	FlushLM5     uint32 = 1 << 20
	FlushCursor0 uint32 = 1 << 22
	FlushCursor1 uint32 = 1 << 23

	// FlushHWMask is every bit the hardware implements.
	FlushHWMask = FlushVIG0 | FlushVIG1 | FlushVIG2 | FlushRGB0 | FlushRGB1 |
		FlushRGB2 | FlushLM0 | FlushLM1 | FlushLM2 | FlushDMA0 | FlushDMA1 |
		FlushCTL | FlushVIG3 | FlushRGB3 | FlushLM5 | FlushCursor0 | FlushCursor1
)

// FlushMaskLM returns the flush bit of mixer lm.
func FlushMaskLM(lm int) uint32 {
	switch lm {
	case 0:
		return FlushLM0
	case 1:
		return FlushLM1
	case 2:
		return FlushLM2
	case 5:
		return FlushLM5
	default:
		return 0
	}
}

// FlushMaskCursor returns the flush bit of hardware cursor id.
func FlushMaskCursor(id int) uint32 {
	switch id {
	case 0:
		return FlushCursor0
	case 1:
		return FlushCursor1
	default:
		return 0
	}
}

// FlushMaskPipe returns the flush bit of pipe p.
func FlushMaskPipe(p Pipe) uint32 {
	switch p {
	case PipeVIG0:
		return FlushVIG0
	case PipeVIG1:
		return FlushVIG1
	case PipeVIG2:
		return FlushVIG2
	case PipeVIG3:
		return FlushVIG3
	case PipeRGB0:
		return FlushRGB0
	case PipeRGB1:
		return FlushRGB1
	case PipeRGB2:
		return FlushRGB2
	case PipeRGB3:
		return FlushRGB3
	case PipeDMA0:
		return FlushDMA0
	case PipeDMA1:
		return FlushDMA1
	case PipeCursor0:
		return FlushCursor0
	case PipeCursor1:
		return FlushCursor1
	default:
		return 0
	}
}

// Interrupt bits of IntrEn, IntrStatus and IntrClear.
const (
	IRQWB0Done       uint32 = 1 << 0
	IRQWB1Done       uint32 = 1 << 1
	IRQWB2Done       uint32 = 1 << 4
	IRQPingPong0Done uint32 = 1 << 8
	IRQPingPong0Rd   uint32 = 1 << 12
	IRQIntf0Underrun uint32 = 1 << 24
	IRQIntf0VSync    uint32 = 1 << 25
	IRQIntf1Underrun uint32 = 1 << 26
	IRQIntf1VSync    uint32 = 1 << 27
	IRQIntf2Underrun uint32 = 1 << 28
	IRQIntf2VSync    uint32 = 1 << 29
	IRQIntf3Underrun uint32 = 1 << 30
	IRQIntf3VSync    uint32 = 1 << 31
)

// PingPong returns the ping-pong block bound to mixer lm.
func PingPong(lm int) int {
	if lm == 5 {
		return 3
	}
	return lm
}

// IntfErr returns the underrun interrupt of interface number n.
func IntfErr(n int) uint32 {
	switch n {
	case 0:
		return IRQIntf0Underrun
	case 1:
		return IRQIntf1Underrun
	case 2:
		return IRQIntf2Underrun
	case 3:
		return IRQIntf3Underrun
	default:
		return 0
	}
}

// IntfVBlank returns the interrupt that marks a frame boundary for intf
// driven by mixer lm. In DSI command mode the ping-pong read pointer stands
// in for vsync.
func IntfVBlank(lm int, intf Interface) uint32 {
	if intf.CommandMode() {
		return IRQPingPong0Rd << PingPong(lm)
	}
	if intf.Type == IntfWB {
		return IRQWB2Done
	}
	switch intf.Num {
	case 0:
		return IRQIntf0VSync
	case 1:
		return IRQIntf1VSync
	case 2:
		return IRQIntf2VSync
	case 3:
		return IRQIntf3VSync
	default:
		return 0
	}
}

// LMPingPongDone returns the ping-pong done interrupt of mixer lm.
func LMPingPongDone(lm int) uint32 {
	return IRQPingPong0Done << PingPong(lm)
}

// AlphaType selects the alpha source of one side of a blender.
type AlphaType uint32

const (
	FGConst AlphaType = iota
	BGConst
	FGPixel
	BGPixel
)

// Fields of LMBlendOpMode.
const (
	BlendFGInvAlpha    uint32 = 1 << 2
	BlendFGModAlpha    uint32 = 1 << 3
	BlendFGInvModAlpha uint32 = 1 << 4
	BlendFGTranspEn    uint32 = 1 << 5
	BlendBGInvAlpha    uint32 = 1 << 10
	BlendBGModAlpha    uint32 = 1 << 11
	BlendBGInvModAlpha uint32 = 1 << 12
	BlendBGTranspEn    uint32 = 1 << 13
)

// BlendFGAlpha encodes the foreground alpha source.
func BlendFGAlpha(t AlphaType) uint32 { return uint32(t) & 0x3 }

// BlendBGAlpha encodes the background alpha source.
func BlendBGAlpha(t AlphaType) uint32 { return (uint32(t) & 0x3) << 8 }

// Size packs a width and height into the layout shared by the size and
// position registers.
func Size(w, h int) uint32 {
	return uint32(w)&0xFFFF | (uint32(h)&0xFFFF)<<16
}

// Fields of CTLLayer. Each pipe owns three stage bits; CTLLayerExt carries
// the fourth.
const (
	LayerBorderColor uint32 = 1 << 24
	LayerCursorOut   uint32 = 1 << 25
)

var layerShift = map[Pipe]uint{
	PipeVIG0: 0,
	PipeVIG1: 3,
	PipeVIG2: 6,
	PipeRGB0: 9,
	PipeRGB1: 12,
	PipeRGB2: 15,
	PipeDMA0: 18,
	PipeDMA1: 21,
	PipeVIG3: 26,
	PipeRGB3: 29,
}

var layerExtShift = map[Pipe]uint{
	PipeVIG0: 0,
	PipeVIG1: 2,
	PipeVIG2: 4,
	PipeVIG3: 6,
	PipeRGB0: 8,
	PipeRGB1: 10,
	PipeRGB2: 12,
	PipeRGB3: 14,
	PipeDMA0: 16,
	PipeDMA1: 18,
}

// LayerMask returns the CTLLayer bits placing pipe p on stage s.
func LayerMask(p Pipe, s Stage) uint32 {
	shift, ok := layerShift[p]
	if !ok {
		return 0
	}
	return (uint32(s) & 0x7) << shift
}

// LayerExtMask returns the CTLLayerExt bits placing pipe p on stage s.
func LayerExtMask(p Pipe, s Stage) uint32 {
	shift, ok := layerExtShift[p]
	if !ok {
		return 0
	}
	return (uint32(s) >> 3 & 0x1) << shift
}

// Fields of CTLOp.
const (
	OpModeCommand uint32 = 1 << 17
)

// OpIntfNum encodes the interface number driven by a control path. Zero
// means no interface.
func OpIntfNum(n int) uint32 { return uint32(n+1) & 0xF << 4 }

// PixelExtLR encodes left and right pixel extension. Positive values repeat
// edge pixels, negative values overfetch.
func PixelExtLR(left, right int) uint32 {
	return pixelExtPair(left, right)
}

// PixelExtTB encodes top and bottom pixel extension.
func PixelExtTB(top, bottom int) uint32 {
	return pixelExtPair(top, bottom)
}

func pixelExtPair(a, b int) uint32 {
	var v uint32
	if a >= 0 {
		v |= uint32(a) & 0xFF
	} else {
		v |= (uint32(-a) & 0xFF) << 8
	}
	if b >= 0 {
		v |= (uint32(b) & 0xFF) << 16
	} else {
		v |= (uint32(-b) & 0xFF) << 24
	}
	return v
}

// PixelExtReq encodes the number of pixels fetched per line and per column.
func PixelExtReq(w, h int) uint32 {
	return Size(w, h)
}
