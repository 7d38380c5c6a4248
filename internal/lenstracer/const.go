package lenstracer

// Defaults used when the JSON config leaves a field unset.
const (
	Width           = 640
	Height          = 480
	MaxDepth        = 5
	AASamples       = 4
	AAJitter        = 0.0025
	AAThreshold     = 0.1
	CurveResolution = 10 // table entries per degree
	CurveLimit      = 1.0
	FOVDeg          = 60
	GIFDelay        = 10 // 100ths of a second per frame
	Gamma           = 1.0
	AmbientLevel    = 0.1 // global ambient light when the config has none
	Out             = "render.png"

	CurveHuge = 1e30 // stands in for non-finite curve values and unreachable radii

	bisectIters = 100
	bisectTol   = 1e-5
	triEps      = 1e-5 // minimal accepted t for ray/triangle
	detEps      = 1e-12
	parEps      = 1e-12
)
