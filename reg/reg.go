// Package reg describes the MDP5 register block: the register map, the
// bit-fields the commit pipeline programs, and a Bank that reads and writes
// 32-bit registers over any periph.io connection.
//
// Each register write is a single transaction on the underlying connection.
// Nothing wider than one register is atomic.
package reg

import (
	"encoding/binary"
	"fmt"

	"github.com/go-errors/errors"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/mmr"
)

// Bank reads and writes 32-bit registers addressed by a 16-bit offset.
type Bank interface {
	Read(addr uint16) (uint32, error)
	Write(addr uint16, v uint32) error
}

// MMR is a Bank backed by a memory-mapped register bridge.
//
// Registers are addressed with a big-endian 16-bit offset followed by the
// 32-bit big-endian value.
type MMR struct {
	dev mmr.Dev16
}

// NewMMR returns a Bank that talks to the register bridge on c.
func NewMMR(c conn.Conn) *MMR {
	return &MMR{dev: mmr.Dev16{Conn: c, Order: binary.BigEndian}}
}

// Read reads the register at addr.
func (m *MMR) Read(addr uint16) (uint32, error) {
	v, err := m.dev.ReadUint32(addr)
	if err != nil {
		return 0, errors.WrapPrefix(err, fmt.Sprintf("reg: read 0x%04X", addr), 0)
	}
	return v, nil
}

// Write writes v to the register at addr.
func (m *MMR) Write(addr uint16, v uint32) error {
	if err := m.dev.WriteUint32(addr, v); err != nil {
		return errors.WrapPrefix(err, fmt.Sprintf("reg: write 0x%04X", addr), 0)
	}
	return nil
}

// String returns the name of the underlying connection.
func (m *MMR) String() string {
	return fmt.Sprintf("reg.MMR{%s}", m.dev.Conn)
}

// Top-level interrupt block.
const (
	HWVersion  uint16 = 0x0000
	IntrEn     uint16 = 0x0010
	IntrStatus uint16 = 0x0014
	IntrClear  uint16 = 0x0018
)

// NumCTL is the number of control paths in the register map.
const NumCTL = 5

const (
	ctlBase   = 0x0600
	ctlStride = 0x0100
)

// CTLLayer is the stage layout register of control path ctl for mixer lm.
func CTLLayer(ctl, lm int) uint16 { return uint16(ctlBase + ctl*ctlStride + 0x00 + lm*4) }

// CTLLayerExt holds the fourth stage bit of every pipe for mixer lm.
func CTLLayerExt(ctl, lm int) uint16 { return uint16(ctlBase + ctl*ctlStride + 0x40 + lm*4) }

// CTLOp selects the interface and its mode.
func CTLOp(ctl int) uint16 { return uint16(ctlBase + ctl*ctlStride + 0x80) }

// CTLFlush latches staged register writes. Bits read back as set until the
// hardware has consumed them at the next frame boundary.
func CTLFlush(ctl int) uint16 { return uint16(ctlBase + ctl*ctlStride + 0x84) }

// CTLStart kicks a frame out in command mode.
func CTLStart(ctl int) uint16 { return uint16(ctlBase + ctl*ctlStride + 0x88) }

const (
	pipeBase   = 0x1000
	pipeStride = 0x0200
)

func pipeReg(p Pipe, off int) uint16 { return uint16(pipeBase + int(p)*pipeStride + off) }

// Source pipe registers.
func PipeSrcSize(p Pipe) uint16    { return pipeReg(p, 0x00) }
func PipeSrcImgSize(p Pipe) uint16 { return pipeReg(p, 0x04) }
func PipeSrcXY(p Pipe) uint16      { return pipeReg(p, 0x08) }
func PipeOutSize(p Pipe) uint16    { return pipeReg(p, 0x0C) }
func PipeOutXY(p Pipe) uint16      { return pipeReg(p, 0x10) }
func PipeSrc0Addr(p Pipe) uint16   { return pipeReg(p, 0x14) }
func PipeSrcStrideA(p Pipe) uint16 { return pipeReg(p, 0x24) }
func PipeSrcFormat(p Pipe) uint16  { return pipeReg(p, 0x30) }
func PipeSrcUnpack(p Pipe) uint16  { return pipeReg(p, 0x34) }

// Software pixel extension, one set per color component.
func PipeSWPixExtLR(p Pipe, comp int) uint16        { return pipeReg(p, 0x100+comp*0x10) }
func PipeSWPixExtTB(p Pipe, comp int) uint16        { return pipeReg(p, 0x104+comp*0x10) }
func PipeSWPixExtReqPixels(p Pipe, comp int) uint16 { return pipeReg(p, 0x108+comp*0x10) }

// NumLM is the number of layer mixers in the register map.
const NumLM = 6

const (
	lmBase    = 0x4000
	lmStride  = 0x0400
	blendBase = 0x20
	blendSize = 0x30
)

// LMOutSize is the output size of mixer lm.
func LMOutSize(lm int) uint16 { return uint16(lmBase + lm*lmStride + 0x04) }

// LMBorderColor0 is the low word of the border color used as base layer.
func LMBorderColor0(lm int) uint16 { return uint16(lmBase + lm*lmStride + 0x08) }

// Blender registers of mixer lm. Blender b serves stage Stage0+b.
func LMBlendOpMode(lm, b int) uint16 { return uint16(lmBase + lm*lmStride + blendBase + b*blendSize) }
func LMBlendFGAlpha(lm, b int) uint16 {
	return uint16(lmBase + lm*lmStride + blendBase + b*blendSize + 0x04)
}
func LMBlendBGAlpha(lm, b int) uint16 {
	return uint16(lmBase + lm*lmStride + blendBase + b*blendSize + 0x08)
}
