package lenstracer

// Options control recursion and anti-aliasing.
type Options struct {
	MaxDepth    int
	Reflections bool
	Refractions bool // when false, transmitted rays pass straight through
	Shadows     bool
	Preview     bool // Gouraud shading only, no recursion, no shadows
	Background  RGB
	// AdaptiveDepthThreshold stops a branch once its accumulated attenuation
	// drops below it. 0 disables the check, leaving MaxDepth as the only limit.
	AdaptiveDepthThreshold Real

	AntiAlias   bool
	AASamples   int
	AAJitter    Real
	AAThreshold Real
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		MaxDepth:    MaxDepth,
		Reflections: true,
		Refractions: true,
		Shadows:     true,
		AASamples:   AASamples,
		AAJitter:    AAJitter,
		AAThreshold: AAThreshold,
	}
}

// Tracer follows rays recursively through the scene. It holds no per-ray
// state, so one Tracer serves all render workers.
type Tracer struct {
	Scene  *Scene
	Shader *Shader
	Opts   Options
	Stats  *Stats
}

// NewTracer wires a shader and statistics around the scene.
func NewTracer(scene *Scene, ambient RGB, opts Options) *Tracer {
	stats := &Stats{}
	return &Tracer{
		Scene:  scene,
		Shader: &Shader{Scene: scene, Ambient: ambient, Stats: stats},
		Opts:   opts,
		Stats:  stats,
	}
}

// Trace returns the color seen along o + t·d. exclude is the surface the ray
// leaves from, depth starts at 1, atten at 1 and entering at true.
func (tr *Tracer) Trace(o, d Vector3, exclude *Triangle, depth int, atten Real, entering bool) RGB {
	h, ok := tr.Scene.NearestHit(o, d, exclude)
	if !ok {
		tr.Stats.add(RayMiss)
		return tr.Opts.Background
	}
	tr.Stats.add(RayHit)
	if tr.Opts.Preview {
		return tr.preview(h)
	}

	color := tr.Shader.Phong(h, o, tr.Opts.Shadows)
	m := &h.Tri.Material
	reflective := tr.Opts.Reflections && m.Reflectivity != 0
	transmissive := m.Transmissivity != 0
	if !reflective && !transmissive {
		return color
	}
	if depth >= tr.Opts.MaxDepth {
		tr.Stats.add(RayDepthLimit)
		return color
	}

	var reflected, transmitted RGB
	haveRefl, haveTrans := false, false
	if reflective {
		if a := atten * m.Reflectivity; tr.keepGoing(a) {
			tr.Stats.add(RayReflect)
			reflected = tr.Trace(h.Point, Reflect(d, h), h.Tri, depth+1, a, entering)
			haveRefl = true
		}
	}
	if transmissive {
		if a := atten * m.Transmissivity; tr.keepGoing(a) {
			dir, next := unit(d), !entering
			if tr.Opts.Refractions {
				var crossed bool
				if dir, crossed = Refract(d, h, entering); crossed {
					tr.Stats.add(RayRefract)
				} else {
					tr.Stats.add(RayTIR)
					next = entering
				}
			} else {
				tr.Stats.add(RayPassThrough)
			}
			transmitted = tr.Trace(h.Point, dir, h.Tri, depth+1, a, next)
			haveTrans = true
		}
	}

	if haveTrans {
		color = color.Scale(m.Opacity).Add(transmitted.Scale(m.Transmissivity))
	}
	if haveRefl {
		color = color.Scale(1 - m.Reflectivity).Add(reflected.Scale(m.Reflectivity))
	}
	return color
}

func (tr *Tracer) keepGoing(atten Real) bool {
	thr := tr.Opts.AdaptiveDepthThreshold
	if thr <= 0 || atten >= thr {
		return true
	}
	tr.Stats.add(RayAttenuated)
	return false
}

// preview interpolates the Gouraud corner colors at the hit.
func (tr *Tracer) preview(h Hit) RGB {
	c := tr.Shader.GouraudTriangle(h.Tri)
	w := 1 - h.U - h.V
	return c[0].Scale(w).Add(c[1].Scale(h.U)).Add(c[2].Scale(h.V))
}
