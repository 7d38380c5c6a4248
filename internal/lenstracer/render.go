package lenstracer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Camera is the eye. Local +Z looks forward and +Y is up.
type Camera struct {
	Position Vector3
	Rot      Rot3Deg
	FOVDeg   Real // pinhole only
}

// Frame is one rendered image plus its bookkeeping.
type Frame struct {
	ID      uuid.UUID
	Index   int
	Width   int
	Height  int
	HDR     []RGB // linear, row major, before clamping and gamma
	FB      *Framebuffer
	Stats   [numCategories]int64 // rays traced for this frame only
	Elapsed time.Duration
}

// At returns the linear color of pixel (x, y).
func (f *Frame) At(x, y int) RGB { return f.HDR[y*f.Width+x] }

// Renderer turns the scene into frames, one scanline per task.
type Renderer struct {
	Width, Height int
	Tracer        *Tracer
	Camera        Camera
	// Lens maps pixels to view directions. nil renders a plain pinhole view.
	Lens            *Table
	ProjectorOffset Real
	Format          PixelFormat
	Display         Display // optional
	Workers         int     // 0 uses the Workers var, then runtime.NumCPU()
	Gamma           Real
	Seed            uint64 // anti-aliasing jitter seed
	OverlayVertices bool   // mark lens-projected scene vertices on the framebuffer

	stop   atomic.Bool
	frames int
}

// NewRenderer returns a pinhole renderer with default settings.
func NewRenderer(width, height int, tr *Tracer) *Renderer {
	return &Renderer{
		Width:  width,
		Height: height,
		Tracer: tr,
		Camera: Camera{FOVDeg: FOVDeg},
		Format: FormatXRGB8888,
		Gamma:  Gamma,
	}
}

// ErrStop may be returned by the Run callback to end rendering without error.
var ErrStop = errors.New("stop rendering")

// Stop makes Run return after the frame in progress.
func (r *Renderer) Stop() { r.stop.Store(true) }

func (r *Renderer) workers() int {
	n := r.Workers
	if n <= 0 {
		n = Workers
	}
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return n
}

func (r *Renderer) halfMin() Real { return Real(min(r.Width, r.Height)) / 2 }

// lensScale converts pixels to lens-plane units: the largest circle that fits
// the image spans the curve's valid radius.
func (r *Renderer) lensScale() Real { return r.Lens.Curve.Limit / r.halfMin() }

// PrimaryRay returns the world-space ray through the center of pixel (x, y).
// ok is false for lens pixels outside the valid curve radius.
func (r *Renderer) PrimaryRay(x, y int) (o, d Vector3, ok bool) {
	sx := Real(x) + 0.5 - Real(r.Width)/2
	sy := Real(r.Height)/2 - (Real(y) + 0.5)
	var local Vector3
	if r.Lens != nil {
		k := r.lensScale()
		if local, ok = r.Lens.Unproject(sx*k, sy*k); !ok {
			return Vector3{}, Vector3{}, false
		}
	} else {
		k := math.Tan(r.Camera.FOVDeg*math.Pi/360) / r.halfMin()
		local = unit(Vector3{sx * k, sy * k, 1})
	}
	return r.Camera.Position, r.Camera.Rot.Matrix().Mul3x1(local), true
}

// RenderFrame traces one frame. Each scanline first shoots a single ray per
// pixel, then resamples pixels whose luminance differs from their left or
// upper neighbor by more than AAThreshold, once the row above has its single
// samples. The finished scanline goes to the framebuffer and the display
// right away.
func (r *Renderer) RenderFrame(ctx context.Context) (*Frame, error) {
	W, H := r.Width, r.Height
	fb, err := NewFramebuffer(W, H, r.Format)
	if err != nil {
		return nil, err
	}
	f := &Frame{ID: uuid.New(), Index: r.frames, Width: W, Height: H, HDR: make([]RGB, W*H), FB: fb}
	log := Logger().With("frame", f.ID.String(), "index", f.Index)
	start := time.Now()
	before := r.Tracer.Stats.Snapshot()

	first := make([]RGB, W*H)
	inside := make([]bool, W*H)
	// sampled[y] is closed once row y has its single samples
	sampled := make([]chan struct{}, H)
	for y := range sampled {
		sampled[y] = make(chan struct{})
	}
	var done atomic.Int64
	step := max(1, H/100)
	if err := r.forRows(ctx, func(ctx context.Context, y int) error {
		for x := 0; x < W; x++ {
			o, d, ok := r.PrimaryRay(x, y)
			if !ok {
				continue
			}
			r.Tracer.Stats.add(RayPrimary)
			first[y*W+x] = r.Tracer.Trace(o, d, nil, 1, 1, true)
			inside[y*W+x] = true
		}
		close(sampled[y])
		if y > 0 {
			select {
			case <-sampled[y-1]:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for x := 0; x < W; x++ {
			i := y*W + x
			c := first[i]
			if inside[i] && r.needsAA(first, x, y) {
				c = r.antiAlias(x, y, c)
			}
			f.HDR[i] = c
			fb.WritePixel(x, y, r.gamma(c))
		}
		if r.Display != nil {
			if err := r.Display.BlitScanline(y, fb); err != nil {
				return err
			}
		}
		if n := done.Add(1); Progress && n%int64(step) == 0 {
			fmt.Printf("[PROGRESS] %.2f%%\n", Real(n)*100/Real(H))
		}
		return nil
	}); err != nil {
		log.Warn("frame aborted", "err", err)
		return nil, fmt.Errorf("frame %d: %w", f.Index, err)
	}

	if r.OverlayVertices && r.Lens != nil {
		r.overlay(fb)
	}
	if r.Display != nil {
		if err := r.Display.BlitRegion(image.Rect(0, 0, W, H), fb); err != nil {
			return nil, fmt.Errorf("frame %d: %w", f.Index, err)
		}
	}

	after := r.Tracer.Stats.Snapshot()
	for i := range f.Stats {
		f.Stats[i] = after[i] - before[i]
	}
	f.Elapsed = time.Since(start)
	r.frames++
	log.Info("frame rendered", "size", fmt.Sprintf("%dx%d", W, H), "elapsed", f.Elapsed,
		"primary", f.Stats[RayPrimary], "antiAlias", f.Stats[RayAntiAlias])
	return f, nil
}

// forRows runs fn for every scanline on the worker pool. Rows start in
// order, so a row may wait on the one above it.
func (r *Renderer) forRows(ctx context.Context, fn func(ctx context.Context, y int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for y := 0; y < r.Height; y++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, y)
		})
	}
	return g.Wait()
}

func (r *Renderer) needsAA(first []RGB, x, y int) bool {
	opts := &r.Tracer.Opts
	if !opts.AntiAlias || opts.AASamples < 2 {
		return false
	}
	l := first[y*r.Width+x].Luminance()
	if x > 0 && math.Abs(l-first[y*r.Width+x-1].Luminance()) > opts.AAThreshold {
		return true
	}
	return y > 0 && math.Abs(l-first[(y-1)*r.Width+x].Luminance()) > opts.AAThreshold
}

// antiAlias averages base with AASamples-1 rays jittered around the pixel's
// primary direction. The jitter sequence depends only on Seed and the pixel.
func (r *Renderer) antiAlias(x, y int, base RGB) RGB {
	opts := &r.Tracer.Opts
	o, d, _ := r.PrimaryRay(x, y)
	u, v := orthonormal(unit(d))
	rng := rand.New(rand.NewPCG(r.Seed, uint64(y)*uint64(r.Width)+uint64(x)))
	n := opts.AASamples - 1
	sum := base
	for i := 0; i < n; i++ {
		ju := (2*rng.Float64() - 1) * opts.AAJitter
		jv := (2*rng.Float64() - 1) * opts.AAJitter
		dir := unit(d.Add(u.Mul(ju)).Add(v.Mul(jv)))
		sum = sum.Add(r.Tracer.Trace(o, dir, nil, 1, 1, true))
	}
	r.Tracer.Stats.addN(RayAntiAlias, n)
	return sum.Div(Real(opts.AASamples))
}

func (r *Renderer) gamma(c RGB) RGB {
	c = c.clamp01()
	if r.Gamma <= 0 || r.Gamma == 1 {
		return c
	}
	g := 1 / r.Gamma
	return RGB{math.Pow(c.R, g), math.Pow(c.G, g), math.Pow(c.B, g)}
}

// overlay forward-projects every vertex through the lens and marks the
// visible ones in white.
func (r *Renderer) overlay(fb *Framebuffer) {
	inv := r.Camera.Rot.Matrix().Transpose()
	k := r.lensScale()
	marked := 0
	for _, e := range r.Tracer.Scene.Entities {
		e.Walk(func(n *Entity) {
			for _, v := range n.Vertices {
				p := inv.Mul3x1(v.Pos.Sub(r.Camera.Position))
				pr := r.Lens.ProjectOffset(p, r.ProjectorOffset)
				if !r.Lens.Visible(pr) {
					continue
				}
				x := int(math.Round(pr.X/k + Real(r.Width)/2 - 0.5))
				y := int(math.Round(Real(r.Height)/2 - pr.Y/k - 0.5))
				fb.WritePixel(x, y, RGB{1, 1, 1})
				marked++
			}
		})
	}
	DebugLog("Vertex overlay: %d visible vertices", marked)
}

// Run renders up to frames frames (all until stopped when frames <= 0),
// calling each after every frame. It returns early on context cancellation,
// a frame error or an error from each. Stop is honored between frames.
func (r *Renderer) Run(ctx context.Context, frames int, each func(*Frame) error) error {
	r.stop.Store(false)
	for i := 0; frames <= 0 || i < frames; i++ {
		if r.stop.Load() {
			Logger().Info("render stopped", "frames", i)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := r.RenderFrame(ctx)
		if err != nil {
			return err
		}
		if each != nil {
			if err := each(f); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		}
	}
	return nil
}
