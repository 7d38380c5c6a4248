package lenstracer

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
)

// PixelFormat is the memory layout of one framebuffer pixel.
type PixelFormat uint8

const (
	FormatXRGB8888 PixelFormat = iota // 32-bit little endian 0x00RRGGBB
	FormatRGB888                      // bytes R, G, B
	FormatRGB565                      // 16-bit little endian
	FormatRGB555                      // 16-bit little endian, top bit unused
	FormatGray8                       // luminance
	numFormats
)

var formatNames = [numFormats]string{"xrgb8888", "rgb888", "rgb565", "rgb555", "gray8"}

func (f PixelFormat) String() string {
	if f < numFormats {
		return formatNames[f]
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// ParsePixelFormat accepts the names printed by String, case-insensitively.
// An empty name selects FormatXRGB8888.
func ParsePixelFormat(s string) (PixelFormat, error) {
	if s == "" {
		return FormatXRGB8888, nil
	}
	for i, n := range formatNames {
		if strings.EqualFold(s, n) {
			return PixelFormat(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pixel format %q", s)
}

// BytesPerPixel returns the stride of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatXRGB8888:
		return 4
	case FormatRGB888:
		return 3
	case FormatRGB565, FormatRGB555:
		return 2
	case FormatGray8:
		return 1
	}
	return 0
}

// Framebuffer is a packed pixel buffer. It implements image.Image so it can
// be handed to any encoder or drawn onto a display.
type Framebuffer struct {
	Format PixelFormat
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// NewFramebuffer allocates a cleared buffer.
func NewFramebuffer(w, h int, f PixelFormat) (*Framebuffer, error) {
	bpp := f.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("framebuffer: %v", f)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("framebuffer: invalid size %dx%d", w, h)
	}
	return &Framebuffer{Format: f, Width: w, Height: h, Stride: w * bpp, Pix: make([]byte, w*h*bpp)}, nil
}

func to8(x Real) uint8 { return uint8(math.Round(x * 255)) }

func toBits(x Real, bits uint) uint16 {
	return uint16(math.Round(x * Real(uint16(1)<<bits-1)))
}

// WritePixel stores c, clamped to [0,1], at (x, y). Out of range coordinates are ignored.
func (fb *Framebuffer) WritePixel(x, y int, c RGB) {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return
	}
	c = c.clamp01()
	p := fb.Pix[y*fb.Stride+x*fb.Format.BytesPerPixel():]
	switch fb.Format {
	case FormatXRGB8888:
		v := uint32(to8(c.R))<<16 | uint32(to8(c.G))<<8 | uint32(to8(c.B))
		binary.LittleEndian.PutUint32(p, v)
	case FormatRGB888:
		p[0], p[1], p[2] = to8(c.R), to8(c.G), to8(c.B)
	case FormatRGB565:
		v := toBits(c.R, 5)<<11 | toBits(c.G, 6)<<5 | toBits(c.B, 5)
		binary.LittleEndian.PutUint16(p, v)
	case FormatRGB555:
		v := toBits(c.R, 5)<<10 | toBits(c.G, 5)<<5 | toBits(c.B, 5)
		binary.LittleEndian.PutUint16(p, v)
	case FormatGray8:
		p[0] = to8(math.Min(1, c.Luminance()))
	}
}

// expand widens an n-bit channel to 8 bits by bit replication.
func expand(v uint16, bits uint) uint8 {
	v <<= 8 - bits
	return uint8(v | v>>bits)
}

func (fb *Framebuffer) ColorModel() color.Model { return color.RGBAModel }

func (fb *Framebuffer) Bounds() image.Rectangle { return image.Rect(0, 0, fb.Width, fb.Height) }

func (fb *Framebuffer) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return color.RGBA{}
	}
	p := fb.Pix[y*fb.Stride+x*fb.Format.BytesPerPixel():]
	switch fb.Format {
	case FormatXRGB8888:
		v := binary.LittleEndian.Uint32(p)
		return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
	case FormatRGB888:
		return color.RGBA{p[0], p[1], p[2], 0xff}
	case FormatRGB565:
		v := binary.LittleEndian.Uint16(p)
		return color.RGBA{expand(v>>11&0x1f, 5), expand(v>>5&0x3f, 6), expand(v&0x1f, 5), 0xff}
	case FormatRGB555:
		v := binary.LittleEndian.Uint16(p)
		return color.RGBA{expand(v>>10&0x1f, 5), expand(v>>5&0x1f, 5), expand(v&0x1f, 5), 0xff}
	case FormatGray8:
		return color.RGBA{p[0], p[0], p[0], 0xff}
	}
	return color.RGBA{}
}
