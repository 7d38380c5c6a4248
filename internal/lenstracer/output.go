package lenstracer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
)

// create opens path for writing, creating parent directories, and calls fn.
func create(path string, fn func(w io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SavePNG writes the framebuffer as an 8-bit PNG.
func SavePNG(f *Frame, path string) error {
	return create(path, func(w io.Writer) error {
		return png.Encode(w, f.FB)
	})
}

// SaveBMP writes the framebuffer as a 24-bit BMP.
func SaveBMP(f *Frame, path string) error {
	return create(path, func(w io.Writer) error {
		return bmp.Encode(w, f.FB)
	})
}

// SavePNG16 writes the linear frame with 16 bits per channel. Values are
// clamped to [0,1] and gamma corrected; no normalization is applied.
func SavePNG16(f *Frame, path string, gamma Real) error {
	toU16 := func(v Real) uint16 {
		if v <= 0 {
			return 0
		}
		if v > 1 {
			v = 1
		}
		if gamma > 0 && gamma != 1 {
			v = math.Pow(v, 1/gamma)
		}
		return uint16(math.Round(v * 65535))
	}
	img := image.NewNRGBA64(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width; x++ {
			c := f.At(x, y)
			p := row[x*8:]
			// big endian R, G, B, A
			binary.BigEndian.PutUint16(p[0:], toU16(c.R))
			binary.BigEndian.PutUint16(p[2:], toU16(c.G))
			binary.BigEndian.PutUint16(p[4:], toU16(c.B))
			binary.BigEndian.PutUint16(p[6:], 0xffff)
		}
	}
	return create(path, func(w io.Writer) error {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	})
}

// SaveAnimatedGIF writes one GIF frame per rendered frame, dithered to the
// Plan 9 palette. delay is in 100ths of a second.
func SaveAnimatedGIF(frames []*Frame, path string, delay int) error {
	if len(frames) == 0 {
		return fmt.Errorf("gif %s: no frames", path)
	}
	out := &gif.GIF{
		Image: make([]*image.Paletted, 0, len(frames)),
		Delay: make([]int, 0, len(frames)),
	}
	for i, f := range frames {
		if Progress {
			fmt.Printf("[GIF] %.2f%%\n", Real(i+1)*100/Real(len(frames)))
		}
		p := image.NewPaletted(f.FB.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(p, p.Bounds(), f.FB, image.Point{})
		out.Image = append(out.Image, p)
		out.Delay = append(out.Delay, delay)
	}
	return create(path, func(w io.Writer) error {
		return gif.EncodeAll(w, out)
	})
}

// SaveRawRGB64 dumps the linear frame: width and height as little endian
// int32, then width·height·3 float64 values in row order.
func SaveRawRGB64(f *Frame, path string) error {
	if len(f.HDR) != f.Width*f.Height {
		return fmt.Errorf("raw %s: have %d pixels, expected %dx%d", path, len(f.HDR), f.Width, f.Height)
	}
	return create(path, func(w io.Writer) error {
		if err := binary.Write(w, binary.LittleEndian, [2]int32{int32(f.Width), int32(f.Height)}); err != nil {
			return err
		}
		buf := make([]float64, 0, 3*f.Width)
		for y := 0; y < f.Height; y++ {
			buf = buf[:0]
			for x := 0; x < f.Width; x++ {
				c := f.At(x, y)
				buf = append(buf, c.R, c.G, c.B)
			}
			if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadRawRGB64 reads a file written by SaveRawRGB64.
func LoadRawRGB64(path string) (w, h int, pix []RGB, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return 0, 0, nil, err
	}
	r := bufio.NewReader(f)
	var hdr [2]int32
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return 0, 0, nil, fmt.Errorf("raw %s: header: %w", path, err)
	}
	if hdr[0] < 0 || hdr[1] < 0 {
		return 0, 0, nil, fmt.Errorf("raw %s: negative size %dx%d", path, hdr[0], hdr[1])
	}
	w, h = int(hdr[0]), int(hdr[1])
	// 24 bytes per pixel follow the 8 byte header
	data := st.Size() - 8
	if data%24 != 0 || int64(w)*int64(h) != data/24 {
		return 0, 0, nil, fmt.Errorf("raw %s: header says %dx%d, file has %d data bytes", path, w, h, data)
	}
	pix = make([]RGB, w*h)
	if len(pix) == 0 {
		return w, h, pix, nil
	}
	vals := make([]float64, 3*w*h)
	if err := binary.Read(r, binary.LittleEndian, vals); err != nil {
		return 0, 0, nil, err
	}
	for i := range pix {
		pix[i] = RGB{vals[3*i], vals[3*i+1], vals[3*i+2]}
	}
	return w, h, pix, nil
}
