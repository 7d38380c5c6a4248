package lenstracer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
)

func newTestRenderer(s *Scene, w, h int, bg RGB) *Renderer {
	opts := DefaultOptions()
	opts.AntiAlias = true
	opts.Background = bg
	r := NewRenderer(w, h, NewTracer(s, gray(1), opts))
	r.Seed = 7
	return r
}

// halfWallScene is a bright wall covering the left half of the view.
func halfWallScene() *Scene {
	s := NewScene()
	s.AddEntity(wall("left", -10, 0, -10, 10, 5, matte(gray(1), RGB{})))
	return s
}

func TestRenderUniformSkipsAntiAliasing(t *testing.T) {
	bg := gray(0.3)
	r := newTestRenderer(NewScene(), 8, 6, bg)
	f, err := r.RenderFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range f.HDR {
		if c != bg {
			t.Fatalf("pixel %d = %+v", i, c)
		}
	}
	if f.Stats[RayPrimary] != 48 || f.Stats[RayAntiAlias] != 0 {
		t.Fatalf("stats %v", f.Stats)
	}
}

func TestRenderEdgeAntiAliasing(t *testing.T) {
	r := newTestRenderer(halfWallScene(), 8, 6, RGB{})
	f, err := r.RenderFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	extra := int64(r.Tracer.Opts.AASamples - 1)
	n := f.Stats[RayAntiAlias]
	if n == 0 || n%extra != 0 {
		t.Fatalf("anti-alias rays %d, want a positive multiple of %d", n, extra)
	}
	// the edge sits between columns 3 and 4; only column 4 has a brighter left neighbor
	if n != extra*6 {
		t.Fatalf("anti-alias rays %d want %d", n, extra*6)
	}
	if f.At(0, 0) != gray(1) || f.At(7, 0) != (RGB{}) {
		t.Fatalf("wall %+v background %+v", f.At(0, 0), f.At(7, 0))
	}
	if got := f.FB.At(0, 0).(color.RGBA); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("framebuffer %+v", got)
	}
}

func TestRenderDeterministicAcrossWorkers(t *testing.T) {
	render := func(workers int) *Frame {
		r := newTestRenderer(halfWallScene(), 16, 12, RGB{})
		r.Camera.Rot = Rot3Deg{Y: 3}
		r.Workers = workers
		f, err := r.RenderFrame(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return f
	}
	a, b := render(1), render(4)
	for i := range a.HDR {
		if a.HDR[i] != b.HDR[i] {
			t.Fatalf("pixel %d differs: %+v vs %+v", i, a.HDR[i], b.HDR[i])
		}
	}
}

func TestRenderLensMasksOutside(t *testing.T) {
	r := newTestRenderer(NewScene(), 10, 10, gray(0.5))
	r.Lens = hemisphereTable(t)
	f, err := r.RenderFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f.At(0, 0) != (RGB{}) {
		t.Fatalf("corner outside the lens = %+v", f.At(0, 0))
	}
	if f.At(5, 5) != gray(0.5) {
		t.Fatalf("center = %+v", f.At(5, 5))
	}
	if f.Stats[RayPrimary] == 0 || f.Stats[RayPrimary] >= 100 {
		t.Fatalf("primary rays %d", f.Stats[RayPrimary])
	}
}

func TestPrimaryRayThroughLens(t *testing.T) {
	r := newTestRenderer(NewScene(), 100, 100, RGB{})
	r.Lens = hemisphereTable(t)
	r.Camera.Position = Vector3{1, 2, 3}
	r.Camera.Rot = Rot3Deg{Y: 90}
	o, d, ok := r.PrimaryRay(50, 50)
	if !ok || o != r.Camera.Position {
		t.Fatalf("center ray %v %v %v", o, d, ok)
	}
	// center pixel is just off axis; yaw 90 turns +Z into +X
	if d.X() < 0.999 || !nearly(d.Len(), 1, 1e-9) {
		t.Fatalf("direction %v", d)
	}
	if _, _, ok := r.PrimaryRay(0, 0); ok {
		t.Fatal("corner pixel inside the lens")
	}
}

func TestRenderDisplayReceivesFrame(t *testing.T) {
	r := newTestRenderer(halfWallScene(), 8, 6, RGB{})
	d := NewImageDisplay(8, 6, 2)
	r.Display = d
	f, err := r.RenderFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	img := d.Image()
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 12 {
		t.Fatalf("display bounds %v", img.Bounds())
	}
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			want := f.FB.At(x, y).(color.RGBA)
			if got := img.RGBAAt(2*x+1, 2*y+1); got != want {
				t.Fatalf("(%d,%d) display %+v framebuffer %+v", x, y, got, want)
			}
		}
	}
}

// scanlineRecorder notes which rows arrive and how many primary rays had
// been traced at that moment.
type scanlineRecorder struct {
	mu      sync.Mutex
	stats   *Stats
	rows    []int
	primary []int64
	left    []color.RGBA
	regions int
}

func (d *scanlineRecorder) BlitScanline(y int, fb *Framebuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = append(d.rows, y)
	d.primary = append(d.primary, d.stats.Count(RayPrimary))
	d.left = append(d.left, fb.At(0, y).(color.RGBA))
	return nil
}

func (d *scanlineRecorder) BlitRegion(image.Rectangle, *Framebuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regions++
	return nil
}

func TestRenderFlushesEachScanline(t *testing.T) {
	r := newTestRenderer(halfWallScene(), 8, 6, RGB{})
	r.Workers = 1
	d := &scanlineRecorder{stats: r.Tracer.Stats}
	r.Display = d
	if _, err := r.RenderFrame(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(d.rows) != 6 || d.regions != 1 {
		t.Fatalf("rows %v regions %d", d.rows, d.regions)
	}
	for i, y := range d.rows {
		if y != i {
			t.Fatalf("rows out of order: %v", d.rows)
		}
		// a row is shown as soon as it and the row above are traced
		if want := int64(8 * (i + 1)); d.primary[i] != want {
			t.Fatalf("row %d shown after %d primary rays, want %d", y, d.primary[i], want)
		}
		if d.left[i] != (color.RGBA{255, 255, 255, 255}) {
			t.Fatalf("row %d blitted before it was written: %+v", y, d.left[i])
		}
	}
}

func TestRenderOverlayVertices(t *testing.T) {
	s := NewScene()
	s.AddEntity(NewCube("c", Vector3{0, 0, 6}, 1, matte(RGB{}, RGB{})))
	r := newTestRenderer(s, 40, 40, RGB{})
	r.Lens = hemisphereTable(t)
	r.OverlayVertices = true
	f, err := r.RenderFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	white := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if f.FB.At(x, y) == (color.RGBA{255, 255, 255, 255}) {
				white++
			}
		}
	}
	if white == 0 {
		t.Fatal("no vertices marked")
	}
}

func TestRunStops(t *testing.T) {
	r := newTestRenderer(NewScene(), 4, 4, RGB{})
	n := 0
	err := r.Run(context.Background(), 5, func(f *Frame) error {
		if f.Index != n {
			t.Fatalf("frame index %d want %d", f.Index, n)
		}
		n++
		if n == 2 {
			r.Stop()
		}
		return nil
	})
	if err != nil || n != 2 {
		t.Fatalf("err=%v frames=%d", err, n)
	}

	n = 0
	err = r.Run(context.Background(), 0, func(*Frame) error {
		n++
		if n == 3 {
			return ErrStop
		}
		return nil
	})
	if err != nil || n != 3 {
		t.Fatalf("err=%v frames=%d", err, n)
	}

	boom := errors.New("boom")
	if err := r.Run(context.Background(), 2, func(*Frame) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("callback error lost: %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	r := newTestRenderer(NewScene(), 4, 4, RGB{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx, 1, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if _, err := r.RenderFrame(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("frame err = %v", err)
	}
}
