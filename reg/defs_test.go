package reg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageBlender(t *testing.T) {
	assert.Equal(t, 0, Stage0.Blender())
	assert.Equal(t, 6, StageCursor.Blender())
	assert.Equal(t, 9, NumStages)
}

func TestPipeString(t *testing.T) {
	assert.Equal(t, "RGB0", PipeRGB0.String())
	assert.Equal(t, "CURSOR1", PipeCursor1.String())
	assert.Equal(t, "Pipe(200)", Pipe(200).String())
}

func TestInterfaceCommandMode(t *testing.T) {
	tests := []struct {
		intf Interface
		want bool
	}{
		{Interface{Type: IntfDSI, Mode: IntfModeCommand}, true},
		{Interface{Type: IntfDSI, Mode: IntfModeVideo}, false},
		{Interface{Type: IntfHDMI, Mode: IntfModeCommand}, false},
		{Interface{}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.intf.CommandMode(), "%+v", tt.intf)
	}
}

func TestFlushMasks(t *testing.T) {
	assert.Equal(t, FlushLM5, FlushMaskLM(5))
	assert.Zero(t, FlushMaskLM(3))
	assert.Equal(t, FlushCursor1, FlushMaskCursor(1))
	assert.Zero(t, FlushMaskCursor(2))
	assert.Equal(t, FlushDMA1, FlushMaskPipe(PipeDMA1))
	assert.Zero(t, FlushMaskPipe(PipeNone))
	for _, p := range []Pipe{PipeVIG0, PipeVIG3, PipeRGB3, PipeCursor0} {
		assert.NotZero(t, FlushMaskPipe(p)&FlushHWMask, "%s", p)
	}
}

func TestInterruptBits(t *testing.T) {
	video := Interface{Num: 2, Type: IntfDSI, Mode: IntfModeVideo}
	cmd := Interface{Num: 1, Type: IntfDSI, Mode: IntfModeCommand}

	assert.Equal(t, IRQIntf2VSync, IntfVBlank(0, video))
	assert.Equal(t, IRQPingPong0Rd<<1, IntfVBlank(1, cmd))
	assert.Equal(t, IRQPingPong0Rd<<3, IntfVBlank(5, cmd))
	assert.Equal(t, IRQWB2Done, IntfVBlank(0, Interface{Num: 3, Type: IntfWB}))
	assert.Equal(t, IRQPingPong0Done<<3, LMPingPongDone(5))
	assert.Equal(t, IRQIntf0Underrun, IntfErr(0))
	assert.Zero(t, IntfErr(4))
}

func TestLayerMask(t *testing.T) {
	assert.Equal(t, uint32(1)<<0, LayerMask(PipeVIG0, StageBase))
	assert.Equal(t, uint32(2)<<9, LayerMask(PipeRGB0, Stage0))
	assert.Equal(t, uint32(0)<<12, LayerMask(PipeRGB1, Stage6))
	assert.Equal(t, uint32(1)<<10, LayerExtMask(PipeRGB1, Stage6))
	assert.Zero(t, LayerExtMask(PipeRGB1, Stage5))
	assert.Zero(t, LayerMask(PipeCursor0, Stage0))
}

func TestSize(t *testing.T) {
	assert.Equal(t, uint32(0x07800438), Size(1080, 1920))
}

func TestOpIntfNum(t *testing.T) {
	assert.Equal(t, uint32(0x10), OpIntfNum(0))
	assert.Equal(t, uint32(0x40), OpIntfNum(3))
}

func TestPixelExt(t *testing.T) {
	assert.Equal(t, uint32(0x00010002), PixelExtLR(2, 1))
	assert.Equal(t, uint32(0x02000100), PixelExtTB(-1, -2))
	assert.Zero(t, PixelExtLR(0, 0))
}
