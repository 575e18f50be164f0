package mdp5

import (
	"fmt"

	"github.com/flavioheleno/mdp5/reg"
)

// blendOp returns the blender op mode and the constant foreground and
// background alpha composing a plane over the stages below it.
func blendOp(alphaEnable, premultiplied bool, alpha uint8) (op, fg, bg uint32) {
	fg = uint32(alpha)
	bg = 0xFF - fg
	switch {
	case alphaEnable && premultiplied:
		op = reg.BlendFGAlpha(reg.FGConst) | reg.BlendBGAlpha(reg.FGPixel)
		if alpha != 0xFF {
			bg = fg
			op |= reg.BlendBGModAlpha | reg.BlendBGInvModAlpha
		} else {
			op |= reg.BlendBGInvAlpha
		}
	case alphaEnable:
		op = reg.BlendFGAlpha(reg.FGPixel) | reg.BlendBGAlpha(reg.FGPixel)
		if alpha != 0xFF {
			bg = fg
			op |= reg.BlendFGModAlpha | reg.BlendFGInvModAlpha |
				reg.BlendBGModAlpha | reg.BlendBGInvModAlpha
		} else {
			op |= reg.BlendBGInvAlpha
		}
	default:
		op = reg.BlendFGAlpha(reg.FGConst) | reg.BlendBGAlpha(reg.BGConst)
	}
	return op, fg, bg
}

// blendSetup programs every blender of the mixer from the committed state
// and routes its planes through the control path.
func (c *CRTC) blendSetup() {
	c.lmMu.Lock()
	defer c.lmMu.Unlock()
	if c.ctl == nil || c.state == nil {
		return
	}

	var (
		byStage [reg.NumStages]*PlaneState
		stage   [reg.NumStages]reg.Pipe
		count   int
	)
	for _, ps := range c.state.Planes {
		if ps.Stage < reg.StageBase || ps.Stage > reg.StageMax {
			c.log.Warn("plane without stage", "pipe", ps.Plane.Pipe())
			continue
		}
		byStage[ps.Stage] = ps
		stage[ps.Stage] = ps.Plane.Pipe()
		count++
	}

	var flags reg.BlendFlags
	if byStage[reg.StageBase] == nil && count > 0 {
		flags |= reg.BlendBorderOut
		c.log.Debug("border color as base")
	}

	w := regWriter{bank: c.kms.bank}
	for s := reg.Stage0; s <= reg.StageMax; s++ {
		ps := byStage[s]
		if ps == nil {
			continue
		}
		op, fg, bg := blendOp(ps.alphaEnable(), ps.Premultiplied, ps.Alpha)
		b := s.Blender()
		w.write(reg.LMBlendOpMode(c.lm, b), op)
		w.write(reg.LMBlendFGAlpha(c.lm, b), fg)
		w.write(reg.LMBlendBGAlpha(c.lm, b), bg)
		c.log.Debug("blend", "stage", s, "pipe", ps.Plane.Pipe(), "op", fmt.Sprintf("%08x", op), "fg", fg, "bg", bg)
	}
	if w.err != nil {
		c.log.Error("blend setup", "err", w.err)
	}

	if err := c.ctl.Blend(stage, count, flags); err != nil {
		c.log.Error("blend", "err", err)
	}
}
