package pixfmt

import (
	"fmt"

	"github.com/go-errors/errors"
)

// PhaseStepShift is the fixed-point precision of a phase step.
const PhaseStepShift = 21

// ErrInvalidScale is returned when a phase step cannot be computed.
var ErrInvalidScale = errors.New("pixfmt: invalid scale")

// Steps holds one phase step per component.
type Steps [CompMax]uint32

// Ext holds one pixel extension per component. Positive values repeat edge
// pixels, negative values overfetch.
type Ext [CompMax]int

// Scaler computes scaler programming for a pipe.
type Scaler interface {
	ScaleXSteps(f *Format, src, dst int) (Steps, error)
	ScaleYSteps(f *Format, src, dst int) (Steps, error)
	PixelExt(f *Format, src, dst int, steps Steps, horz bool) (edge1, edge2 Ext)
}

// Default is the scaler of the MDP5 source pipes: PCMN filter for
// downscale, bilinear for upscale, single pipe.
type Default struct {
	// MaxDownscale bounds src/dst. Zero means 4.
	MaxDownscale int
}

var _ Scaler = Default{}

func (d Default) maxDownscale() int {
	if d.MaxDownscale <= 0 {
		return 4
	}
	return d.MaxDownscale
}

func (d Default) phaseStep(src, dst int) (uint32, error) {
	if src <= 0 || dst <= 0 {
		return 0, errors.WrapPrefix(ErrInvalidScale, fmt.Sprintf("%d->%d", src, dst), 0)
	}
	if src > dst*d.maxDownscale() {
		return 0, errors.WrapPrefix(ErrInvalidScale, fmt.Sprintf("%d->%d exceeds downscale limit", src, dst), 0)
	}
	step := uint64(src) << PhaseStepShift / uint64(dst)
	if step > 0xFFFFFFFF {
		return 0, errors.WrapPrefix(ErrInvalidScale, fmt.Sprintf("%d->%d overflows", src, dst), 0)
	}
	return uint32(step), nil
}

// ScaleXSteps returns the horizontal phase steps for src to dst pixels.
func (d Default) ScaleXSteps(f *Format, src, dst int) (Steps, error) {
	var steps Steps
	step, err := d.phaseStep(src, dst)
	if err != nil {
		return steps, err
	}
	steps[Comp0] = step
	steps[Comp3] = step
	steps[Comp1_2] = step / uint32(max(f.HSub, 1))
	return steps, nil
}

// ScaleYSteps returns the vertical phase steps for src to dst lines.
func (d Default) ScaleYSteps(f *Format, src, dst int) (Steps, error) {
	var steps Steps
	step, err := d.phaseStep(src, dst)
	if err != nil {
		return steps, err
	}
	steps[Comp0] = step
	steps[Comp3] = step
	steps[Comp1_2] = step / uint32(max(f.VSub, 1))
	return steps, nil
}

// PixelExt returns the extension on the leading and trailing edge. Scaling
// needs one extra trailing pixel for the bilinear filter; YUV always scales.
func (d Default) PixelExt(f *Format, src, dst int, steps Steps, horz bool) (edge1, edge2 Ext) {
	scaling := f.YUV || src != dst
	for i := range edge2 {
		if scaling {
			edge2[i] = 1
		}
	}
	return edge1, edge2
}
