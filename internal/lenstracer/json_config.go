package lenstracer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

type LensCfg struct {
	Curve           string `json:"curve,omitempty"` // empty means pinhole
	Limit           Real   `json:"limit,omitempty"`
	Resolution      int    `json:"resolution,omitempty"` // entries per degree
	ProjectorOffset Real   `json:"projectorOffset,omitempty"`
	OverlayVertices bool   `json:"overlayVertices,omitempty"`
}

type CameraCfg struct {
	Position Vector3 `json:"position"`
	RotDeg   Rot3Deg `json:"rotDeg"`
	FOVDeg   Real    `json:"fovDeg,omitempty"`
}

type LightCfg struct {
	Position Vector3 `json:"position"`
	Color    RGB     `json:"color"`
}

type MaterialCfg struct {
	Ambient        *RGB `json:"ambient,omitempty"` // defaults to diffuse
	Diffuse        RGB  `json:"diffuse"`
	Specular       RGB  `json:"specular"`
	Shininess      Real `json:"shininess,omitempty"`
	Reflectivity   Real `json:"reflectivity,omitempty"`
	Transmissivity Real `json:"transmissivity,omitempty"`
	IOR            Real `json:"ior,omitempty"`
}

func (m MaterialCfg) Build() Material {
	amb := m.Diffuse
	if m.Ambient != nil {
		amb = *m.Ambient
	}
	return NewMaterial(amb, m.Diffuse, m.Specular, m.Shininess, m.Reflectivity, m.Transmissivity, m.IOR)
}

// EntityCfg describes one node of the scene tree. Type is "cube", "quad",
// "mesh" or empty for a pure group. The placement (scale, then rotation, then
// translation) applies to the node and all of its children.
type EntityCfg struct {
	Name     string      `json:"name,omitempty"`
	Type     string      `json:"type,omitempty"`
	Material MaterialCfg `json:"material"`

	Center  Vector3    `json:"center,omitempty"`  // cube
	Size    Real       `json:"size,omitempty"`    // cube
	Corners [4]Vector3 `json:"corners,omitempty"` // quad

	Vertices []Vector3 `json:"vertices,omitempty"` // mesh
	Faces    [][3]int  `json:"faces,omitempty"`    // mesh
	Smooth   bool      `json:"smooth,omitempty"`   // mesh

	Translate Vector3 `json:"translate,omitempty"`
	RotDeg    Rot3Deg `json:"rotDeg,omitempty"`
	Scale     Vector3 `json:"scale,omitempty"` // zero components default to 1

	Children []EntityCfg `json:"children,omitempty"`
}

var errUnknownEntity = errors.New("unknown entity type")

// Build validates and constructs the subtree.
func (ec EntityCfg) Build() (*Entity, error) {
	name := ec.Name
	if name == "" {
		name = ec.Type
	}
	m := ec.Material.Build()
	var e *Entity
	switch strings.ToLower(ec.Type) {
	case "cube":
		if ec.Size <= 0 {
			return nil, fmt.Errorf("cube %q: size must be > 0, got %g", name, ec.Size)
		}
		e = NewCube(name, ec.Center, ec.Size, m)
	case "quad":
		e = NewQuad(name, ec.Corners, m)
	case "mesh":
		var err error
		if e, err = NewMesh(name, ec.Vertices, ec.Faces, ec.Smooth, m); err != nil {
			return nil, err
		}
	case "", "group":
		e = &Entity{Name: name}
	default:
		return nil, fmt.Errorf("%w %q", errUnknownEntity, ec.Type)
	}
	for i, cc := range ec.Children {
		c, err := cc.Build()
		if err != nil {
			return nil, fmt.Errorf("%s child #%d: %w", name, i, err)
		}
		e.attach(c)
	}
	if ec.Translate != (Vector3{}) || !ec.RotDeg.IsZero() || (ec.Scale != (Vector3{}) && ec.Scale != (Vector3{1, 1, 1})) {
		e.Transform(placement(ec.Translate, ec.RotDeg, ec.Scale))
	} else {
		e.RecomputeDerived()
	}
	return e, nil
}

type Config struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format,omitempty"`
	Workers int    `json:"workers,omitempty"`
	Seed    uint64 `json:"seed,omitempty"`

	MaxDepth               int   `json:"maxDepth,omitempty"`
	Reflections            *bool `json:"reflections,omitempty"`
	Refractions            *bool `json:"refractions,omitempty"`
	Shadows                *bool `json:"shadows,omitempty"`
	Preview                bool  `json:"preview,omitempty"`
	AdaptiveDepthThreshold Real  `json:"adaptiveDepthThreshold,omitempty"`
	Background             RGB   `json:"background"`
	Ambient                *RGB  `json:"ambient,omitempty"`

	AntiAlias   *bool `json:"antiAlias,omitempty"`
	AASamples   int   `json:"aaSamples,omitempty"`
	AAJitter    Real  `json:"aaJitter,omitempty"`
	AAThreshold Real  `json:"aaThreshold,omitempty"`

	Lens   LensCfg   `json:"lens"`
	Camera CameraCfg `json:"camera"`

	Frames     int    `json:"frames,omitempty"`
	YawStepDeg Real   `json:"yawStepDeg,omitempty"`
	GIFDelay   int    `json:"gifDelay,omitempty"`
	Gamma      Real   `json:"gamma,omitempty"`
	Out        string `json:"out,omitempty"`

	Lights   []LightCfg  `json:"lights"`
	Entities []EntityCfg `json:"entities"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	DebugLog("Loaded config from %s: size=(%d, %d), depth=%d, lens=%q, frames=%d, gamma=%f",
		path, cfg.Width, cfg.Height, cfg.MaxDepth, cfg.Lens.Curve, cfg.Frames, cfg.Gamma)
	return &cfg, nil
}

// applyDefaults fills unset fields from const.go and validates the rest.
func (cfg *Config) applyDefaults() error {
	if cfg.Width <= 0 {
		cfg.Width = Width
	}
	if cfg.Height <= 0 {
		cfg.Height = Height
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = MaxDepth
	}
	if cfg.AASamples <= 0 {
		cfg.AASamples = AASamples
	}
	if cfg.AAJitter <= 0 {
		cfg.AAJitter = AAJitter
	}
	if cfg.AAThreshold <= 0 {
		cfg.AAThreshold = AAThreshold
	}
	if cfg.Ambient == nil {
		cfg.Ambient = &RGB{AmbientLevel, AmbientLevel, AmbientLevel}
	}
	if cfg.Lens.Limit <= 0 {
		cfg.Lens.Limit = CurveLimit
	}
	if cfg.Lens.Resolution <= 0 {
		cfg.Lens.Resolution = CurveResolution
	}
	if cfg.Camera.FOVDeg <= 0 {
		cfg.Camera.FOVDeg = FOVDeg
	}
	if cfg.Camera.FOVDeg >= 180 {
		return fmt.Errorf("fovDeg must be < 180, got %g", cfg.Camera.FOVDeg)
	}
	if cfg.Frames <= 0 {
		cfg.Frames = 1
	}
	if cfg.GIFDelay <= 0 {
		cfg.GIFDelay = GIFDelay
	}
	if cfg.Gamma <= 0 {
		cfg.Gamma = Gamma
	}
	if cfg.Out == "" {
		cfg.Out = Out
	}
	if _, err := ParsePixelFormat(cfg.Format); err != nil {
		return err
	}
	if len(cfg.Lights) == 0 {
		return fmt.Errorf("config has no lights")
	}
	return nil
}

// Options converts the tracing section.
func (cfg *Config) Options() Options {
	return Options{
		MaxDepth:               cfg.MaxDepth,
		Reflections:            boolOr(cfg.Reflections, true),
		Refractions:            boolOr(cfg.Refractions, true),
		Shadows:                boolOr(cfg.Shadows, true),
		Preview:                cfg.Preview,
		Background:             cfg.Background,
		AdaptiveDepthThreshold: cfg.AdaptiveDepthThreshold,
		AntiAlias:              boolOr(cfg.AntiAlias, true),
		AASamples:              cfg.AASamples,
		AAJitter:               cfg.AAJitter,
		AAThreshold:            cfg.AAThreshold,
	}
}

// Build constructs the scene and a renderer for it. Entities that fail to
// build are skipped with a warning. A lens curve that does not compile or
// evaluate is an error.
func (cfg *Config) Build() (*Renderer, error) {
	scene := NewScene()
	for _, lc := range cfg.Lights {
		scene.AddLight(Light{Position: lc.Position, Color: lc.Color})
	}
	for i, ec := range cfg.Entities {
		e, err := ec.Build()
		if err != nil {
			Logger().Warn("skipping entity", "index", i, "name", ec.Name, "err", err)
			continue
		}
		scene.AddEntity(e)
	}

	tr := NewTracer(scene, *cfg.Ambient, cfg.Options())
	r := NewRenderer(cfg.Width, cfg.Height, tr)
	r.Camera = Camera{Position: cfg.Camera.Position, Rot: cfg.Camera.RotDeg, FOVDeg: cfg.Camera.FOVDeg}
	r.Workers = cfg.Workers
	r.Gamma = cfg.Gamma
	r.Seed = cfg.Seed
	format, err := ParsePixelFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	r.Format = format

	if cfg.Lens.Curve != "" {
		curve, err := CompileCurve(cfg.Lens.Curve, cfg.Lens.Limit)
		if err != nil {
			return nil, err
		}
		if r.Lens, err = BuildTable(curve, cfg.Lens.Resolution); err != nil {
			return nil, err
		}
		r.ProjectorOffset = cfg.Lens.ProjectorOffset
		r.OverlayVertices = cfg.Lens.OverlayVertices
	}
	return r, nil
}
