package lenstracer

import (
	"fmt"
	"image"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Display receives finished framebuffer regions while a frame renders.
// Implementations must tolerate scanlines arriving out of order.
type Display interface {
	BlitScanline(y int, fb *Framebuffer) error
	BlitRegion(r image.Rectangle, fb *Framebuffer) error
}

// ImageDisplay is an in-memory display. Scale > 1 enlarges the image with
// nearest-neighbor sampling.
type ImageDisplay struct {
	mu    sync.Mutex
	img   *image.RGBA
	scale int
}

// NewImageDisplay creates a display for a w×h framebuffer.
func NewImageDisplay(w, h, scale int) *ImageDisplay {
	if scale < 1 {
		scale = 1
	}
	return &ImageDisplay{img: image.NewRGBA(image.Rect(0, 0, w*scale, h*scale)), scale: scale}
}

func (d *ImageDisplay) BlitScanline(y int, fb *Framebuffer) error {
	return d.BlitRegion(image.Rect(0, y, fb.Width, y+1), fb)
}

func (d *ImageDisplay) BlitRegion(r image.Rectangle, fb *Framebuffer) error {
	r = r.Intersect(fb.Bounds())
	if r.Empty() {
		return nil
	}
	dst := image.Rect(r.Min.X*d.scale, r.Min.Y*d.scale, r.Max.X*d.scale, r.Max.Y*d.scale)
	if !dst.In(d.img.Bounds()) {
		return fmt.Errorf("display: region %v outside %v", dst, d.img.Bounds())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scale == 1 {
		xdraw.Copy(d.img, r.Min, fb, r, xdraw.Src, nil)
		return nil
	}
	xdraw.NearestNeighbor.Scale(d.img, dst, fb, r, xdraw.Src, nil)
	return nil
}

// Image returns the display contents. It is shared, not copied.
func (d *ImageDisplay) Image() *image.RGBA { return d.img }
