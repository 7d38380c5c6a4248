package lenstracer

import "testing"

var blue = RGB{0, 0, 1}

// mirrorTracer puts a quad at z = 5 facing the eye at the origin.
func mirrorTracer(m Material, opts Options) *Tracer {
	s := NewScene()
	s.AddEntity(wall("mirror", -1, 1, -1, 1, 5, m))
	opts.Background = blue
	return NewTracer(s, gray(1), opts)
}

var (
	eye     = Vector3{0.3, 0.1, 0}
	forward = Vector3{0, 0, 1}
)

func TestTraceMissReturnsBackground(t *testing.T) {
	opts := DefaultOptions()
	opts.Background = RGB{0.1, 0.2, 0.3}
	tr := NewTracer(NewScene(), gray(1), opts)
	if c := tr.Trace(Vector3{}, forward, nil, 1, 1, true); c != opts.Background {
		t.Fatalf("miss = %+v", c)
	}
	if tr.Stats.Count(RayMiss) != 1 || tr.Stats.Count(RayHit) != 0 {
		t.Fatalf("stats %v", tr.Stats.Snapshot())
	}
}

func TestTraceOpaqueIsLocalColor(t *testing.T) {
	tr := mirrorTracer(matte(RGB{0.4, 0, 0}, gray(0.5)), DefaultOptions())
	if c := tr.Trace(eye, forward, nil, 1, 1, true); !rgbNear(c, RGB{0.4, 0, 0}, 1e-12) {
		t.Fatalf("color %+v", c)
	}
	if tr.Stats.Count(RayReflect) != 0 {
		t.Fatal("opaque surface spawned a reflection")
	}
}

func TestTraceReflectionCombines(t *testing.T) {
	m := NewMaterial(RGB{0.4, 0, 0}, RGB{}, RGB{}, 0, 0.5, 0, 1)
	tr := mirrorTracer(m, DefaultOptions())
	c := tr.Trace(eye, forward, nil, 1, 1, true)
	// local·(1-0.5) + background·0.5
	if want := (RGB{0.2, 0, 0.5}); !rgbNear(c, want, 1e-12) {
		t.Fatalf("color %+v want %+v", c, want)
	}
	if tr.Stats.Count(RayReflect) != 1 || tr.Stats.Count(RayMiss) != 1 {
		t.Fatalf("stats %v", tr.Stats.Snapshot())
	}
}

func TestTraceDepthLimit(t *testing.T) {
	m := NewMaterial(RGB{0.4, 0, 0}, RGB{}, RGB{}, 0, 0.5, 0, 1)
	opts := DefaultOptions()
	opts.MaxDepth = 1
	tr := mirrorTracer(m, opts)
	if c := tr.Trace(eye, forward, nil, 1, 1, true); !rgbNear(c, RGB{0.4, 0, 0}, 1e-12) {
		t.Fatalf("color %+v", c)
	}
	if tr.Stats.Count(RayDepthLimit) != 1 || tr.Stats.Count(RayReflect) != 0 {
		t.Fatalf("stats %v", tr.Stats.Snapshot())
	}
}

func TestTraceReflectionsDisabled(t *testing.T) {
	m := NewMaterial(RGB{0.4, 0, 0}, RGB{}, RGB{}, 0, 0.5, 0, 1)
	opts := DefaultOptions()
	opts.Reflections = false
	tr := mirrorTracer(m, opts)
	if c := tr.Trace(eye, forward, nil, 1, 1, true); !rgbNear(c, RGB{0.4, 0, 0}, 1e-12) {
		t.Fatalf("color %+v", c)
	}
}

func TestTraceAdaptiveThreshold(t *testing.T) {
	m := NewMaterial(RGB{0.4, 0, 0}, RGB{}, RGB{}, 0, 0.5, 0, 1)
	opts := DefaultOptions()
	opts.AdaptiveDepthThreshold = 0.6
	tr := mirrorTracer(m, opts)
	if c := tr.Trace(eye, forward, nil, 1, 1, true); !rgbNear(c, RGB{0.4, 0, 0}, 1e-12) {
		t.Fatalf("color %+v", c)
	}
	if tr.Stats.Count(RayAttenuated) != 1 {
		t.Fatalf("stats %v", tr.Stats.Snapshot())
	}
}

func TestTraceTransmission(t *testing.T) {
	m := NewMaterial(RGB{0.4, 0, 0}, RGB{}, RGB{}, 0, 0, 0.75, 1.5)
	for _, refract := range []bool{true, false} {
		opts := DefaultOptions()
		opts.Refractions = refract
		tr := mirrorTracer(m, opts)
		c := tr.Trace(eye, forward, nil, 1, 1, true)
		// local·opacity + background·transmissivity
		if want := (RGB{0.1, 0, 0.75}); !rgbNear(c, want, 1e-12) {
			t.Fatalf("refract=%v: color %+v want %+v", refract, c, want)
		}
		cat := RayPassThrough
		if refract {
			cat = RayRefract
		}
		if tr.Stats.Count(cat) != 1 {
			t.Fatalf("refract=%v: stats %v", refract, tr.Stats.Snapshot())
		}
	}
}

func TestTraceThroughGlassCube(t *testing.T) {
	s := NewScene()
	s.AddEntity(NewCube("glass", Vector3{0, 0, 5}, 2, NewMaterial(RGB{}, RGB{}, RGB{}, 0, 0, 1, 1.5)))
	opts := DefaultOptions()
	opts.Background = blue
	tr := NewTracer(s, gray(1), opts)
	// fully transparent, no ambient: only the background shows
	c := tr.Trace(Vector3{0.1, 0.2, 0}, forward, nil, 1, 1, true)
	if !rgbNear(c, blue, 1e-12) {
		t.Fatalf("color %+v", c)
	}
	if tr.Stats.Count(RayRefract) != 2 {
		t.Fatalf("expected to enter and leave the cube: %v", tr.Stats.Snapshot())
	}
}

func TestTracePreview(t *testing.T) {
	m := NewMaterial(RGB{0.4, 0, 0}, RGB{}, RGB{}, 0, 0.5, 0, 1)
	opts := DefaultOptions()
	opts.Preview = true
	tr := mirrorTracer(m, opts)
	if c := tr.Trace(eye, forward, nil, 1, 1, true); !rgbNear(c, RGB{0.4, 0, 0}, 1e-12) {
		t.Fatalf("color %+v", c)
	}
	if tr.Stats.Count(RayReflect) != 0 || tr.Stats.Count(RayShadow) != 0 {
		t.Fatalf("preview recursed: %v", tr.Stats.Snapshot())
	}
}
