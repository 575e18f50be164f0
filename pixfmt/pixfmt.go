// Package pixfmt describes the pixel formats a source pipe can fetch and
// computes the scaler phase steps and pixel extension a pipe needs for a
// given source and destination extent.
//
// Components are indexed the way the fetch unit sees them: Comp0 is luma or
// green, Comp1_2 the chroma pair or red/blue, Comp3 alpha.
package pixfmt

import "fmt"

// Component indexes.
const (
	Comp0 = iota
	Comp1_2
	Comp2
	Comp3

	CompMax
)

// Bits per component as encoded in the source format register.
const (
	BPC4 uint8 = 0
	BPC5 uint8 = 1
	BPC6 uint8 = 2
	BPC8 uint8 = 3

	BPC1A uint8 = 0
	BPC4A uint8 = 1
	BPC6A uint8 = 2
	BPC8A uint8 = 3
)

// FetchInterleaved fetches all components from one plane.
const FetchInterleaved uint8 = 0

// ChromaRGB means no chroma subsampling.
const ChromaRGB uint8 = 0

// Format is a pixel format as the fetch unit understands it.
type Format struct {
	Name string

	BPCA, BPCR, BPCG, BPCB uint8
	AlphaEnable            bool

	// CPP is bytes per pixel.
	CPP         uint8
	UnpackCount uint8
	UnpackTight bool
	Unpack      [4]uint8

	FetchType    uint8
	ChromaSample uint8

	// HSub and VSub are the chroma subsampling factors, 1 for RGB.
	HSub, VSub uint8
	YUV        bool
}

func rgb(name string, a, r, g, b uint8, e0, e1, e2, e3 uint8, alpha, tight bool, cpp, cnt uint8) Format {
	return Format{
		Name:        name,
		BPCA:        a,
		BPCR:        r,
		BPCG:        g,
		BPCB:        b,
		AlphaEnable: alpha,
		CPP:         cpp,
		UnpackCount: cnt,
		UnpackTight: tight,
		Unpack:      [4]uint8{e0, e1, e2, e3},
		HSub:        1,
		VSub:        1,
	}
}

var (
	ARGB8888 = rgb("ARGB8888", BPC8A, BPC8, BPC8, BPC8, 1, 0, 2, 3, true, true, 4, 4)
	ABGR8888 = rgb("ABGR8888", BPC8A, BPC8, BPC8, BPC8, 2, 0, 1, 3, true, true, 4, 4)
	RGBA8888 = rgb("RGBA8888", BPC8A, BPC8, BPC8, BPC8, 3, 1, 0, 2, true, true, 4, 4)
	XRGB8888 = rgb("XRGB8888", BPC8A, BPC8, BPC8, BPC8, 1, 0, 2, 3, false, true, 4, 4)
	RGB888   = rgb("RGB888", 0, BPC8, BPC8, BPC8, 1, 0, 2, 0, false, true, 3, 3)
	RGB565   = rgb("RGB565", 0, BPC5, BPC6, BPC5, 1, 0, 2, 0, false, true, 2, 3)
)

func (f *Format) String() string {
	return f.Name
}

// Bpp returns bits per pixel.
func (f *Format) Bpp() int {
	return int(f.CPP) * 8
}

// SrcFormat encodes f into the pipe source format register.
func (f *Format) SrcFormat() uint32 {
	v := uint32(f.BPCG&0x3) |
		uint32(f.BPCB&0x3)<<2 |
		uint32(f.BPCR&0x3)<<4 |
		uint32(f.BPCA&0x3)<<6 |
		uint32((f.CPP-1)&0x3)<<9 |
		uint32((f.UnpackCount-1)&0x3)<<12 |
		uint32(f.FetchType&0x3)<<19 |
		uint32(f.ChromaSample&0x3)<<23
	if f.AlphaEnable {
		v |= 1 << 8
	}
	if f.UnpackTight {
		v |= 1 << 17
	}
	return v
}

// SrcUnpack encodes the component order into the pipe unpack register.
func (f *Format) SrcUnpack() uint32 {
	return uint32(f.Unpack[0]) |
		uint32(f.Unpack[1])<<8 |
		uint32(f.Unpack[2])<<16 |
		uint32(f.Unpack[3])<<24
}

// Stride returns the line length in bytes of an image w pixels wide.
func (f *Format) Stride(w int) int {
	return w * int(f.CPP)
}

func (f *Format) GoString() string {
	return fmt.Sprintf("pixfmt.Format{%s}", f.Name)
}
