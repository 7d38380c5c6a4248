package lenstracer

var (
	Debug    = false // verbose debug output, ray statistics and scene dump
	PNG      = true  // save 8-bit PNG of the last frame
	PNG16    = false // save 16-bit PNG of the last frame (linear HDR, gamma applied)
	BMP      = false // save BMP of the last frame
	RAW      = false // save raw float64 RGB of the last frame
	GIF      = false // save all frames as an animated GIF
	Progress = true  // print [PROGRESS] lines while rendering
	Workers  = 0     // scanline workers, 0 means runtime.NumCPU()
)
