package mdp5

import (
	stderrors "errors"
	"fmt"

	"github.com/go-errors/errors"

	"github.com/flavioheleno/mdp5/pixfmt"
	"github.com/flavioheleno/mdp5/reg"
)

// Largest hardware cursor.
const (
	CursorWidth  = 64
	CursorHeight = 64
)

// The cursor is composed with pixel alpha over everything below it.
const cursorBlendOp = uint32(reg.FGPixel) | uint32(reg.BGPixel)<<8 | reg.BlendBGInvAlpha

var cursorFormat = &pixfmt.ARGB8888

// cursorPipe returns the hardware cursor of output id.
func cursorPipe(id int) reg.Pipe {
	if id == 1 {
		return reg.PipeCursor1
	}
	return reg.PipeCursor0
}

// clipROI returns the visible part of a w x h cursor at x, y on an xres x
// yres screen.
func clipROI(w, h, x, y, xres, yres int) (int, int) {
	return max(min(w, xres-x), 0), max(min(h, yres-y), 0)
}

type cursorGeometry struct {
	w, h        int
	left, right pixfmt.Ext
	top, bottom pixfmt.Ext
}

func (c *CRTC) cursorGeometry(w, h int) (cursorGeometry, error) {
	g := cursorGeometry{w: w, h: h}
	sx, err := c.kms.scaler.ScaleXSteps(cursorFormat, w, w)
	if err != nil {
		return g, errors.New(stderrors.Join(ErrScaling, err))
	}
	sy, err := c.kms.scaler.ScaleYSteps(cursorFormat, h, h)
	if err != nil {
		return g, errors.New(stderrors.Join(ErrScaling, err))
	}
	g.left, g.right = c.kms.scaler.PixelExt(cursorFormat, w, w, sx, true)
	g.top, g.bottom = c.kms.scaler.PixelExt(cursorFormat, h, h, sy, false)
	return g, nil
}

// writePixelExt programs the software pixel extension of every component
// of pipe.
func writePixelExt(w *regWriter, pipe reg.Pipe, f *pixfmt.Format, g cursorGeometry) {
	for i := 0; i < pixfmt.CompMax; i++ {
		rw, rh := g.w, g.h
		if f.YUV && i == pixfmt.Comp1_2 {
			rw /= int(max(f.HSub, 1))
			rh /= int(max(f.VSub, 1))
		}
		w.write(reg.PipeSWPixExtLR(pipe, i), reg.PixelExtLR(g.left[i], g.right[i]))
		w.write(reg.PipeSWPixExtTB(pipe, i), reg.PixelExtTB(g.top[i], g.bottom[i]))
		w.write(reg.PipeSWPixExtReqPixels(pipe, i), reg.PixelExtReq(
			rw+g.left[i]+g.right[i], rh+g.top[i]+g.bottom[i]))
	}
}

// CursorSet shows buffer handle of file as a width x height cursor. Handle
// zero hides the cursor. The previous buffer is released once the frame that
// may still show it is gone. Only outputs 0 and 1 have a cursor; on others
// CursorSet does nothing.
func (c *CRTC) CursorSet(file *File, handle uint32, width, height int) error {
	if c.id >= 2 {
		c.log.Debug("no hardware cursor")
		return nil
	}
	if width < 0 || height < 0 || width > CursorWidth || height > CursorHeight {
		c.log.Error("bad cursor size", "width", width, "height", height)
		return errors.WrapPrefix(ErrInvalidCursorSize, fmt.Sprintf("%dx%d", width, height), 0)
	}
	ctl := c.binding()
	if ctl == nil {
		return ErrNotBound
	}

	enable := handle != 0
	var (
		buf  Buffer
		addr uint32
	)
	if enable {
		if r := c.kms.opts.Buffers; r != nil {
			buf = r.Lookup(file, handle)
		}
		if buf == nil {
			return errors.WrapPrefix(ErrNoSuchBuffer, fmt.Sprintf("handle %d", handle), 0)
		}
		var err error
		if addr, err = buf.IOVA(c.kms.opts.AddressSpace); err != nil {
			buf.Release()
			return errors.New(stderrors.Join(ErrNoSuchBuffer, err))
		}
	}

	if err := c.kms.Enable(); err != nil {
		if buf != nil {
			buf.Release()
		}
		return err
	}
	defer func() {
		if err := c.kms.Disable(); err != nil {
			c.log.Error("cursor power", "err", err)
		}
	}()

	pipe := cursorPipe(c.id)
	mode := c.currentMode()

	c.cursor.mu.Lock()
	roiW, roiH := clipROI(width, height, c.cursor.x, c.cursor.y, mode.HDisplay, mode.VDisplay)
	var g cursorGeometry
	if enable && roiW > 0 && roiH > 0 {
		var err error
		if g, err = c.cursorGeometry(roiW, roiH); err != nil {
			c.cursor.mu.Unlock()
			buf.Release()
			return err
		}
	}
	old := c.cursor.buf
	c.cursor.buf = buf
	c.cursor.width = width
	c.cursor.height = height

	var err error
	if enable && (roiW == 0 || roiH == 0) {
		c.log.Debug("cursor off screen")
		enable = false
	}
	if enable {
		w := regWriter{bank: c.kms.bank}
		w.write(reg.PipeSrcStrideA(pipe), uint32(cursorFormat.Stride(width)))
		w.write(reg.PipeSrcFormat(pipe), cursorFormat.SrcFormat())
		w.write(reg.PipeSrcUnpack(pipe), cursorFormat.SrcUnpack())
		w.write(reg.PipeSrcImgSize(pipe), reg.Size(width, height))
		w.write(reg.PipeSrcSize(pipe), reg.Size(roiW, roiH))
		w.write(reg.PipeOutSize(pipe), reg.Size(roiW, roiH))
		w.write(reg.PipeSrc0Addr(pipe), addr)
		writePixelExt(&w, pipe, cursorFormat, g)
		b := reg.StageCursor.Blender()
		w.write(reg.LMBlendOpMode(c.lm, b), cursorBlendOp)
		w.write(reg.LMBlendFGAlpha(c.lm, b), 0)
		w.write(reg.LMBlendBGAlpha(c.lm, b), 0xFF)
		err = w.err
	}
	c.cursor.mu.Unlock()

	if err == nil {
		err = ctl.SetCursor(c.id, enable)
	}
	if err == nil {
		c.flush(ctl, reg.FlushMaskCursor(c.id)|reg.FlushMaskLM(c.lm))
	} else {
		c.log.Error("cursor set", "err", err)
	}

	if old != nil {
		c.unrefCursor.queue(old)
		c.requestPending(pendingCursor)
	}
	return err
}

// CursorMove places the cursor at x, y, negative coordinates being clamped
// to zero. It does nothing while the output is disabled. A cursor entirely
// off screen is hidden.
func (c *CRTC) CursorMove(x, y int) error {
	if c.id >= 2 {
		return nil
	}
	st := c.currentState()
	if st == nil || !st.Enable {
		return nil
	}
	ctl := c.binding()
	if ctl == nil {
		return nil
	}
	x, y = max(x, 0), max(y, 0)

	if err := c.kms.Enable(); err != nil {
		return err
	}
	defer func() {
		if err := c.kms.Disable(); err != nil {
			c.log.Error("cursor power", "err", err)
		}
	}()

	pipe := cursorPipe(c.id)
	mode := c.currentMode()

	c.cursor.mu.Lock()
	c.cursor.x, c.cursor.y = x, y
	roiW, roiH := clipROI(c.cursor.width, c.cursor.height, x, y, mode.HDisplay, mode.VDisplay)
	enable := c.cursor.buf != nil && roiW > 0 && roiH > 0
	var err error
	if enable {
		var g cursorGeometry
		if g, err = c.cursorGeometry(roiW, roiH); err != nil {
			c.cursor.mu.Unlock()
			return err
		}
		w := regWriter{bank: c.kms.bank}
		w.write(reg.PipeSrcSize(pipe), reg.Size(roiW, roiH))
		w.write(reg.PipeOutSize(pipe), reg.Size(roiW, roiH))
		w.write(reg.PipeOutXY(pipe), reg.Size(x, y))
		writePixelExt(&w, pipe, cursorFormat, g)
		err = w.err
	}
	c.cursor.mu.Unlock()
	if err != nil {
		c.log.Error("cursor move", "err", err)
		return err
	}

	if err := ctl.SetCursor(c.id, enable); err != nil {
		c.log.Error("cursor move", "err", err)
		return err
	}
	c.flush(ctl, reg.FlushMaskCursor(c.id)|reg.FlushMaskLM(c.lm))
	return nil
}
